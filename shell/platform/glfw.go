package platform

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/mawren/thicket/shell/core"
	"github.com/mawren/thicket/shell/gfx"
	"github.com/mawren/thicket/shell/layout"
)

// GLFWHost drives native windows through GLFW. Must be used from the
// main OS thread.
type GLFWHost struct {
	inited bool
}

func NewGLFWHost() *GLFWHost { return &GLFWHost{} }

func (h *GLFWHost) Init() error {
	if h.inited {
		return nil
	}
	// contexts and the event pump require the main OS thread
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw init: %w", err)
	}
	h.inited = true
	return nil
}

func (h *GLFWHost) CreateSurface(opts SurfaceOptions) (Surface, error) {
	glfw.DefaultWindowHints()
	if opts.Hardware {
		glfw.WindowHint(glfw.ContextVersionMajor, 3)
		glfw.WindowHint(glfw.ContextVersionMinor, 3)
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
		glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	} else {
		glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	}
	// shown explicitly after the first frame exists
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Maximized, boolHint(opts.Frame == core.FrameMaximized))

	win, err := glfw.CreateWindow(opts.Width, opts.Height, opts.Title, nil, nil)
	if err != nil {
		return nil, err
	}
	if opts.Hardware && opts.VSync {
		win.MakeContextCurrent()
		glfw.SwapInterval(1)
		glfw.DetachCurrentContext()
	}

	s := &glfwSurface{w: win, hasGL: opts.Hardware, cursors: map[layout.CursorIcon]*glfw.Cursor{}}
	s.install()
	return s, nil
}

func (h *GLFWHost) Poll() { glfw.PollEvents() }
func (h *GLFWHost) Wait() { glfw.WaitEvents() }
func (h *GLFWHost) Wake() { glfw.PostEmptyEvent() }

func (h *GLFWHost) Terminate() {
	if h.inited {
		glfw.Terminate()
		h.inited = false
	}
}

func boolHint(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}

type glfwSurface struct {
	w       *glfw.Window
	sink    func(core.Event)
	hasGL   bool
	cursors map[layout.CursorIcon]*glfw.Cursor
}

func (s *glfwSurface) install() {
	s.w.SetCloseCallback(func(*glfw.Window) {
		s.emit(core.EventCloseRequested{})
	})
	s.w.SetSizeCallback(func(_ *glfw.Window, w, h int) {
		s.emit(core.EventResized{
			Size:  layout.Size{W: float32(w), H: float32(h)},
			Frame: s.frameState(),
		})
	})
	s.w.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		s.emit(core.EventCursorMoved{Pos: layout.Point{X: float32(x), Y: float32(y)}})
	})
	// leave tracking re-arms on every transition into the window
	s.w.SetCursorEnterCallback(func(_ *glfw.Window, entered bool) {
		if entered {
			x, y := s.w.GetCursorPos()
			s.emit(core.EventCursorEntered{Pos: layout.Point{X: float32(x), Y: float32(y)}})
		} else {
			s.emit(core.EventCursorLeft{})
		}
	})
	s.w.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		var b core.MouseButton
		switch button {
		case glfw.MouseButtonLeft:
			b = core.ButtonLeft
		case glfw.MouseButtonRight:
			b = core.ButtonRight
		default:
			return
		}
		s.emit(core.EventMouseButton{Button: b, Down: action != glfw.Release})
	})
	s.w.SetScrollCallback(func(_ *glfw.Window, xoff, yoff float64) {
		s.emit(core.EventScroll{X: float32(xoff), Y: float32(yoff)})
	})
	s.w.SetContentScaleCallback(func(_ *glfw.Window, x, _ float32) {
		s.emit(core.EventDPIChanged{Scale: x})
	})
}

func (s *glfwSurface) frameState() core.WindowFrame {
	switch {
	case s.w.GetAttrib(glfw.Iconified) == glfw.True:
		return core.FrameMinimized
	case s.w.GetAttrib(glfw.Maximized) == glfw.True:
		return core.FrameMaximized
	}
	return core.FrameNormal
}

func (s *glfwSurface) emit(ev core.Event) {
	if s.sink != nil {
		s.sink(ev)
	}
}

func (s *glfwSurface) SetEventSink(fn func(core.Event)) { s.sink = fn }
func (s *glfwSurface) Show()                            { s.w.Show() }
func (s *glfwSurface) Hide()                            { s.w.Hide() }
func (s *glfwSurface) SetTitle(title string)            { s.w.SetTitle(title) }
func (s *glfwSurface) SetSize(w, h int)                 { s.w.SetSize(w, h) }

func (s *glfwSurface) SetCursor(icon layout.CursorIcon) {
	c := s.cursors[icon]
	if c == nil {
		c = glfw.CreateStandardCursor(standardCursor(icon))
		s.cursors[icon] = c
	}
	s.w.SetCursor(c)
}

func (s *glfwSurface) FramebufferSize() (int, int) { return s.w.GetFramebufferSize() }

func (s *glfwSurface) Scale() float32 {
	x, _ := s.w.GetContentScale()
	return x
}

func (s *glfwSurface) GL() gfx.NativeContext {
	if !s.hasGL {
		return nil
	}
	return glfwContext{w: s.w}
}

func (s *glfwSurface) Destroy() {
	for _, c := range s.cursors {
		c.Destroy()
	}
	s.cursors = map[layout.CursorIcon]*glfw.Cursor{}
	s.w.Destroy()
}

func standardCursor(icon layout.CursorIcon) glfw.StandardCursor {
	switch icon {
	case layout.CursorPointer:
		return glfw.HandCursor
	case layout.CursorText:
		return glfw.IBeamCursor
	case layout.CursorCrosshair:
		return glfw.CrosshairCursor
	case layout.CursorResizeEW:
		return glfw.HResizeCursor
	case layout.CursorResizeNS:
		return glfw.VResizeCursor
	}
	return glfw.ArrowCursor
}

// glfwContext adapts a GLFW window to the backend's context handle.
type glfwContext struct{ w *glfw.Window }

func (c glfwContext) MakeContextCurrent()   { c.w.MakeContextCurrent() }
func (c glfwContext) DetachCurrentContext() { glfw.DetachCurrentContext() }
func (c glfwContext) SwapBuffers()          { c.w.SwapBuffers() }
