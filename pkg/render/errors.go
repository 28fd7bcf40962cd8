package render

import "errors"

// Render error kinds. Every failure of Render wraps exactly one of them
// together with the underlying cause.
var (
	// ErrMalformedInput means the input bytes are not a readable STL model.
	ErrMalformedInput = errors.New("malformed input")
	// ErrInvalidGeometry means the mesh cannot be framed: no triangles or a zero-radius bound.
	ErrInvalidGeometry = errors.New("invalid geometry")
	// ErrInvalidConfiguration means an option is non-finite, out of range or of the wrong kind.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrRenderBackend means the rasterizer or encoder failed.
	ErrRenderBackend = errors.New("render backend failure")
)
