// Package platform is the message-loop host: it owns native windows,
// their GPU contexts and renderers, reconciles timers onto OS
// primitives and drives the event-to-action decision engine. The
// native windowing layer is abstracted behind Host/Surface so the
// whole lifecycle runs headless in tests.
package platform

import (
	"errors"
	"fmt"

	"github.com/mawren/thicket/shell/core"
	"github.com/mawren/thicket/shell/gfx"
	"github.com/mawren/thicket/shell/layout"
)

// Host is the OS windowing collaborator. Init runs once per process;
// Wait blocks the calling thread until at least one event has been
// processed; Wake interrupts Wait from any goroutine.
type Host interface {
	Init() error
	CreateSurface(opts SurfaceOptions) (Surface, error)
	Poll()
	Wait()
	Wake()
	Terminate()
}

// SurfaceOptions describes one native window to create. Hardware asks
// for a GL-capable surface; the caller handles fallback.
type SurfaceOptions struct {
	Title    string
	Width    int // logical units
	Height   int
	Hardware bool
	VSync    bool
	Frame    core.WindowFrame
}

// Surface is one native window. Events arrive through the sink on the
// thread that pumps the host; the surface never calls the sink outside
// Poll/Wait.
type Surface interface {
	SetEventSink(fn func(core.Event))
	Show()
	Hide()
	SetTitle(title string)
	SetSize(w, h int) // logical units
	SetCursor(icon layout.CursorIcon)
	FramebufferSize() (int, int)
	Scale() float32

	// GL returns the surface's hardware context handle, or nil when the
	// surface was created without one.
	GL() gfx.NativeContext

	Destroy()
}

// CreateStage locates a window-creation failure.
type CreateStage int

const (
	StageInit CreateStage = iota
	StageSurface
	StageContext
	StageLayout
	StageFirstFrame
)

func (s CreateStage) String() string {
	switch s {
	case StageInit:
		return "init"
	case StageSurface:
		return "surface"
	case StageContext:
		return "context"
	case StageLayout:
		return "layout"
	case StageFirstFrame:
		return "first-frame"
	}
	return "unknown"
}

// CreateError is the typed window-creation failure. Any stage after
// surface creation rolls the native resources back before this is
// returned; no partial window stays registered.
type CreateError struct {
	Stage CreateStage
	Err   error
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("platform: create window failed at %s: %v", e.Stage, e.Err)
}

func (e *CreateError) Unwrap() error { return e.Err }

// ErrNoLayout is returned when a window is requested without a layout
// callback.
var ErrNoLayout = errors.New("platform: window options carry no layout callback")
