package platform

import (
	"log"
	"time"

	"github.com/mawren/thicket/shell/core"
	"github.com/mawren/thicket/shell/gfx"
	"github.com/mawren/thicket/shell/layout"
	"github.com/mawren/thicket/shell/render"
	"github.com/mawren/thicket/shell/task"
)

// Window owns the native resources of one UI window: surface, GPU
// backend, renderer, hit-tester cache, timer supervisor and the UI
// state driving the decision machine. Exactly one renderer per window,
// deinitialized before the context is deleted.
type Window struct {
	id       core.WindowID
	surface  Surface
	backend  gfx.Backend
	renderer *render.Renderer
	doc      render.DocumentID

	hitTester  *render.AsyncHitTester
	supervisor *task.Supervisor
	timerSvc   *timerService

	ui      *core.UIState
	options core.WindowOptions

	menuHash uint64
	menuCmds map[uint16]core.Callback

	listsSubmitted int
	framesRendered int
}

// createWindow performs the ordered creation sequence. Any failure
// after surface creation releases the context, destroys the surface
// and returns a typed error; no partial window is registered.
func (a *App) createWindow(id core.WindowID, opts core.WindowOptions, data any) (*Window, error) {
	if opts.Layout.Build == nil {
		return nil, &CreateError{Stage: StageLayout, Err: ErrNoLayout}
	}

	surface, backend, err := a.createSurfaceAndBackend(opts)
	if err != nil {
		return nil, err
	}
	rollback := func() {
		backend.DeleteContext()
		surface.Destroy()
	}

	scale := surface.Scale()
	if scale <= 0 {
		scale = 1
	}
	size := opts.Size
	cur := &core.WindowState{
		Title: opts.Title,
		Size: core.WindowSize{
			Dimensions: size,
			DPI:        uint32(scale * 96),
			Scale:      scale,
		},
		Flags:  core.WindowFlags{Visible: opts.Visible, Frame: opts.Frame},
		Layout: opts.Layout,
	}

	dom, cbs := opts.Layout.Build(data)
	tree := layout.Build(dom, size)
	if opts.SizeToContent {
		if content := tree.ContentSize(); content.W > 0 && content.H > 0 {
			size = content
			cur.Size.Dimensions = size
			surface.SetSize(int(size.W), int(size.H))
			tree = layout.Build(dom, size)
		}
	}

	renderer := render.New(backend, render.NopNotifier{})
	doc := renderer.AddDocument(size)

	ui := core.NewUIState(doc, cur)
	ui.Tree = tree
	ui.Callbacks = cbs

	win := &Window{
		id:       id,
		surface:  surface,
		backend:  backend,
		renderer: renderer,
		doc:      doc,
		ui:       ui,
		options:  opts,
	}
	win.timerSvc = newTimerService(a, id)
	win.supervisor = task.NewSupervisor(win.timerSvc)

	// first display list, first frame
	win.submitList()
	renderer.GenerateFrame(doc, true)
	if err := win.paint(); err != nil {
		renderer.Deinit()
		rollback()
		return nil, &CreateError{Stage: StageFirstFrame, Err: err}
	}

	// first hit-tester; resolvable immediately, even pre-input
	win.hitTester = render.NewAsyncHitTester(renderer.RequestHitTester(doc))

	win.installMenu(opts.Menu)

	if opts.HotReload {
		win.supervisor.Reconcile(
			map[task.TimerID]time.Duration{hotReloadTimerID: hotReloadPeriod},
			nil, nil, nil,
		)
		ui.Timers[hotReloadTimerID] = core.TimerEntry{Period: hotReloadPeriod}
	}

	if opts.Visible {
		surface.Show()
	}
	return win, nil
}

// createSurfaceAndBackend tries a hardware surface first unless the
// options force software. Falling back to software is logged, never an
// error; a forced-hardware failure is.
func (a *App) createSurfaceAndBackend(opts core.WindowOptions) (Surface, gfx.Backend, error) {
	sopts := SurfaceOptions{
		Title:  opts.Title,
		Width:  int(opts.Size.W),
		Height: int(opts.Size.H),
		VSync:  opts.VSync,
		Frame:  opts.Frame,
	}

	if opts.Renderer != core.RendererSoftware {
		sopts.Hardware = true
		surface, err := a.host.CreateSurface(sopts)
		if err == nil {
			if ctx := surface.GL(); ctx != nil {
				backend, berr := gfx.NewGL(ctx)
				if berr == nil {
					return surface, backend, nil
				}
				if opts.Renderer == core.RendererHardware {
					surface.Destroy()
					return nil, nil, &CreateError{Stage: StageContext, Err: berr}
				}
				log.Printf("platform: hardware context failed, using software: %v", berr)
				surface.Destroy()
			} else {
				if opts.Renderer == core.RendererHardware {
					surface.Destroy()
					return nil, nil, &CreateError{Stage: StageContext, Err: gfx.ErrUnsupported}
				}
				// host gave a plain surface; rasterize on the CPU
				return surface, gfx.NewSoft(), nil
			}
		} else {
			if opts.Renderer == core.RendererHardware {
				return nil, nil, &CreateError{Stage: StageSurface, Err: err}
			}
			log.Printf("platform: hardware surface failed, using software: %v", err)
		}
	}

	sopts.Hardware = false
	surface, err := a.host.CreateSurface(sopts)
	if err != nil {
		return nil, nil, &CreateError{Stage: StageSurface, Err: err}
	}
	return surface, gfx.NewSoft(), nil
}

// destroy tears the window down in the required order: supervisor
// first, renderer deinit before the context goes away, surface last.
func (w *Window) destroy() {
	w.supervisor.Shutdown()
	w.renderer.Deinit()
	w.backend.DeleteContext()
	w.surface.Destroy()
}

// submitList encodes the current styled tree and submits it with the
// tree's viewport. Every submission advances the hit-tester generation.
func (w *Window) submitList() {
	view := w.ui.Tree.Viewport()
	w.renderer.SendTransaction(w.doc, &render.Transaction{
		ViewSize: &view,
		List:     render.FromTree(w.ui.Tree),
	})
	w.listsSubmitted++
}

func (w *Window) refreshHitTester() {
	w.hitTester.Refresh(w.renderer.RequestHitTester(w.doc))
}

// paint draws one frame. The context is current only within this call
// and released on every path.
func (w *Window) paint() error {
	if err := w.backend.MakeCurrent(); err != nil {
		return err
	}
	defer w.backend.ReleaseCurrent()

	w.renderer.FlushSceneBuilder()
	fbW, fbH := w.surface.FramebufferSize()
	if fbW < 1 || fbH < 1 {
		return nil
	}
	if err := w.renderer.Render(w.doc, fbW, fbH, w.ui.Current.Size.Scale); err != nil {
		return err
	}
	w.renderer.FlushPipeline()
	w.framesRendered++
	return nil
}

// regenerateDom rebuilds the UI tree from the layout callback. The
// previous snapshot is dropped so downstream diffing restarts cleanly.
func (w *Window) regenerateDom(data any) {
	dom, cbs := w.ui.Current.Layout.Build(data)
	size := w.ui.Current.Size.LayoutSize()
	w.ui.Tree = layout.Build(dom, size)
	w.ui.Callbacks = cbs
	w.ui.Previous = nil
	w.ui.Current.LastHitTest = render.HitResult{Focused: w.ui.Current.FocusedNode}

	w.submitList()
	w.refreshHitTester()
	w.installMenu(w.options.Menu)
}

// installMenu rebuilds the command table only when the menu content
// hash changed.
func (w *Window) installMenu(m *core.Menu) {
	h := menuHash(m)
	if h == w.menuHash && w.menuCmds != nil {
		return
	}
	w.menuHash = h
	w.menuCmds = menuCommands(m)
}
