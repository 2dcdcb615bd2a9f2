// Package gfx abstracts the GPU backend behind a capability-negotiated
// interface. The hardware path talks OpenGL, the software path
// rasterizes into an RGBA image. A context is only ever current inside
// the span of one operation: callers pair MakeCurrent with
// ReleaseCurrent on every path, including errors.
package gfx

import "errors"

// ErrUnsupported is returned by Capability for features the backend
// does not provide. Absence of an optional capability is not an error
// condition for the shell, the feature is silently disabled.
var ErrUnsupported = errors.New("gfx: capability unsupported")

type API int

const (
	Hardware API = iota
	Software
)

func (a API) String() string {
	if a == Hardware {
		return "hardware"
	}
	return "software"
}

// Capability names negotiated at context-creation time.
const (
	CapSwapControl = "swap-control"
	CapBlurBehind  = "blur-behind"
	CapTransparent = "transparent-framebuffer"
)

// Backend is the GPU backend collaborator.
type Backend interface {
	API() API

	// MakeCurrent binds the context to the calling thread for the span
	// of one operation. ReleaseCurrent must be called before yielding
	// control back to the message loop, even on error paths.
	MakeCurrent() error
	ReleaseCurrent()

	// Capability reports whether a named optional feature is available.
	// Returns nil or ErrUnsupported.
	Capability(name string) error

	// Frame recording. BeginFrame sets the framebuffer size in physical
	// pixels; FillRect coordinates are physical pixels with the origin
	// at the top left.
	BeginFrame(w, h int) error
	FillRect(x, y, w, h float32, rgba [4]float32)
	EndFrame() error // present / swap

	// FreeTextures releases GPU-side textures reclaimed by the
	// renderer's epoch accounting.
	FreeTextures(ids []uint32)

	// DeleteContext destroys the context. The backend is unusable
	// afterwards. Idempotent.
	DeleteContext()
}
