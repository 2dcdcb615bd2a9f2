package platform

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mawren/thicket/shell/core"
	"github.com/mawren/thicket/shell/gfx"
	"github.com/mawren/thicket/shell/layout"
	"github.com/mawren/thicket/shell/task"
)

type stubHost struct {
	surfaces    []*stubSurface
	inited      bool
	terminated  bool
	failSurface bool
	wakes       int
}

func (h *stubHost) Init() error { h.inited = true; return nil }

func (h *stubHost) CreateSurface(opts SurfaceOptions) (Surface, error) {
	if h.failSurface {
		return nil, errors.New("stub: surface refused")
	}
	s := &stubSurface{opts: opts, w: opts.Width, h: opts.Height, scale: 1}
	h.surfaces = append(h.surfaces, s)
	return s, nil
}

func (h *stubHost) Poll()      {}
func (h *stubHost) Wait()      {}
func (h *stubHost) Wake()      { h.wakes++ }
func (h *stubHost) Terminate() { h.terminated = true }

type stubSurface struct {
	opts     SurfaceOptions
	sink     func(core.Event)
	shown    bool
	destroys int
	title    string
	cursor   layout.CursorIcon
	w, h     int
	scale    float32
}

func (s *stubSurface) SetEventSink(fn func(core.Event))  { s.sink = fn }
func (s *stubSurface) Show()                             { s.shown = true }
func (s *stubSurface) Hide()                             { s.shown = false }
func (s *stubSurface) SetTitle(title string)             { s.title = title }
func (s *stubSurface) SetSize(w, h int)                  { s.w, s.h = w, h }
func (s *stubSurface) SetCursor(icon layout.CursorIcon)  { s.cursor = icon }
func (s *stubSurface) FramebufferSize() (int, int)       { return s.w, s.h }
func (s *stubSurface) Scale() float32                    { return s.scale }
func (s *stubSurface) GL() gfx.NativeContext             { return nil }
func (s *stubSurface) Destroy()                          { s.destroys++ }

type testUI struct {
	builds      int
	clicks      int
	timerFires  int
	focusGained int
	focusLost   int
}

const (
	rootNode layout.NodeID = 1
	boxNode  layout.NodeID = 2
)

// uiBuilder produces an expanding root with one fixed 100x100 box at
// the origin; the box is scrollable and a hit at (10,10) reaches it.
func uiBuilder(register func(m core.CallbackMap, d *testUI)) core.BuildFn {
	return func(data any) (*layout.Dom, core.CallbackMap) {
		d := data.(*testUI)
		d.builds++
		root := layout.NewNode(rootNode, layout.Style{
			WidthMode:  layout.SizeExpand,
			HeightMode: layout.SizeExpand,
			Direction:  layout.Vertical,
			Background: [4]float32{0.1, 0.1, 0.1, 1},
		})
		box := layout.NewNode(boxNode, layout.Style{
			WidthMode:  layout.SizeFixed,
			HeightMode: layout.SizeFixed,
			Width:      100,
			Height:     100,
			Background: [4]float32{0.5, 0.5, 0.5, 1},
			Scrollable: true,
		})
		root.Children = []*layout.Node{box}
		m := core.CallbackMap{}
		if register != nil {
			register(m, d)
		}
		return &layout.Dom{Root: root}, m
	}
}

func testOptions(build core.BuildFn) core.WindowOptions {
	return core.WindowOptions{
		Title:    "test",
		Size:     layout.Size{W: 800, H: 600},
		Visible:  true,
		Renderer: core.RendererSoftware,
		Layout:   core.LayoutSource{Build: build, Generation: 1},
	}
}

func newTestApp(register func(m core.CallbackMap, d *testUI)) (*App, *stubHost, *testUI, core.WindowID) {
	host := &stubHost{}
	data := &testUI{}
	app := NewApp(host, data)
	id, err := app.CreateWindow(testOptions(uiBuilder(register)))
	if err != nil {
		panic(err)
	}
	return app, host, data, id
}

func (a *App) window(id core.WindowID) *Window {
	st, release, ok := a.cell.TryAcquire()
	if !ok {
		return nil
	}
	defer release()
	return st.windows[id]
}

func (a *App) tableSize() int {
	st, release, ok := a.cell.TryAcquire()
	if !ok {
		return -1
	}
	defer release()
	return len(st.windows)
}

func TestCreateDestroyRoundTrip(t *testing.T) {
	assert := assert.New(t)
	app, host, data, id := newTestApp(nil)
	win := app.window(id)

	assert.Equal(1, app.tableSize())
	assert.Equal(1, data.builds)
	assert.Equal(1, win.listsSubmitted)
	assert.Equal(1, win.framesRendered)
	assert.True(host.surfaces[0].shown)

	app.DestroyWindow(id)

	assert.Equal(0, app.tableSize())
	assert.Equal(1, host.surfaces[0].destroys)
	assert.Error(win.backend.MakeCurrent())
	assert.True(app.quitRequested())
}

func TestCreateWithoutLayoutFails(t *testing.T) {
	assert := assert.New(t)
	host := &stubHost{}
	app := NewApp(host, &testUI{})

	_, err := app.CreateWindow(core.WindowOptions{Size: layout.Size{W: 100, H: 100}})

	var ce *CreateError
	assert.ErrorAs(err, &ce)
	assert.Equal(StageLayout, ce.Stage)
	assert.ErrorIs(err, ErrNoLayout)
	assert.Equal(0, app.tableSize())
	assert.Empty(host.surfaces)
}

func TestForcedHardwareRollsBack(t *testing.T) {
	assert := assert.New(t)
	host := &stubHost{} // stub surfaces never carry a GL context
	app := NewApp(host, &testUI{})

	opts := testOptions(uiBuilder(nil))
	opts.Renderer = core.RendererHardware
	_, err := app.CreateWindow(opts)

	var ce *CreateError
	assert.ErrorAs(err, &ce)
	assert.Equal(StageContext, ce.Stage)
	assert.Equal(0, app.tableSize())
	// the attempted surface was destroyed, nothing leaked
	assert.Len(host.surfaces, 1)
	assert.Equal(1, host.surfaces[0].destroys)
}

func TestSurfaceFailure(t *testing.T) {
	host := &stubHost{failSurface: true}
	app := NewApp(host, &testUI{})

	_, err := app.CreateWindow(testOptions(uiBuilder(nil)))

	var ce *CreateError
	assert.ErrorAs(t, err, &ce)
	assert.Equal(t, StageSurface, ce.Stage)
}

// Scenario: a window with no registered callbacks yields DoNothing on
// the first event pass; exactly one display list and one frame were
// produced during creation.
func TestQuietFirstEvent(t *testing.T) {
	assert := assert.New(t)
	app, _, _, id := newTestApp(nil)
	win := app.window(id)

	outcomes := app.deliverEvent(id, core.EventCursorMoved{Pos: layout.Point{X: 10, Y: 10}})

	assert.Equal([]core.DecisionOutcome{core.DoNothing}, outcomes)
	assert.Equal(1, win.listsSubmitted)
	assert.Equal(1, win.framesRendered)
	assert.Equal([]layout.NodeID{boxNode, rootNode}, win.ui.Current.LastHitTest.Hovered)
}

// Scenario: a hover callback dirties a paint property; the decision
// must be a display-list rebuild, not a dom regeneration.
func TestHoverCallbackRebuildsDisplayList(t *testing.T) {
	assert := assert.New(t)
	app, _, _, id := newTestApp(func(m core.CallbackMap, d *testUI) {
		m.Set(boxNode, core.KindMouseEnter, func(info *core.CallbackInfo) core.Update {
			info.SetCSS(boxNode, layout.PropertyChange{Prop: layout.PropBackground, Value: 0.8})
			return core.UpdateDoNothing
		})
	})
	win := app.window(id)

	outcomes := app.deliverEvent(id, core.EventCursorMoved{Pos: layout.Point{X: 10, Y: 10}})

	assert.Equal([]core.DecisionOutcome{core.UpdateDisplayListCurrentWindow}, outcomes)

	app.drain()
	assert.Equal(2, win.listsSubmitted)
	assert.Equal(2, win.framesRendered)
	// the rebuilt list fed a fresh hit-tester before the repaint
	assert.Equal(uint64(2), win.hitTester.Resolve().Generation())
}

// Scenario: a resize from 800x600 to 1024x600 reprocesses exactly
// once; the second pass over stable geometry stays cheap.
func TestResizeReprocessesOnce(t *testing.T) {
	assert := assert.New(t)
	app, _, _, id := newTestApp(nil)
	win := app.window(id)

	outcomes := app.deliverEvent(id, core.EventResized{Size: layout.Size{W: 1024, H: 600}})

	assert.Len(outcomes, 2)
	assert.Equal(core.UpdateHitTesterAndReprocess, outcomes[0])
	assert.Contains(
		[]core.DecisionOutcome{core.ReRenderCurrentWindow, core.DoNothing},
		outcomes[1],
	)
	// one resubmission during the reprocess
	assert.Equal(2, win.listsSubmitted)
	assert.Equal(layout.Size{W: 1024, H: 600}, win.ui.Tree.Viewport())
}

// Scenario: a callback requests close; the window leaves the table on
// the destroy pass and the last window signals shutdown.
func TestCloseRequestDestroysWindow(t *testing.T) {
	assert := assert.New(t)
	app, host, _, id := newTestApp(func(m core.CallbackMap, d *testUI) {
		m.Set(boxNode, core.KindMouseUp, func(info *core.CallbackInfo) core.Update {
			info.CloseWindow()
			return core.UpdateDoNothing
		})
	})

	app.deliverEvent(id, core.EventCursorMoved{Pos: layout.Point{X: 10, Y: 10}})
	app.deliverEvent(id, core.EventMouseButton{Button: core.ButtonLeft, Down: true})
	app.deliverEvent(id, core.EventMouseButton{Button: core.ButtonLeft, Down: false})
	app.drain()

	assert.Equal(0, app.tableSize())
	assert.Equal(1, host.surfaces[0].destroys)
	assert.True(app.quitRequested())
}

// Scenario: a click moves focus to the box, the release clears it.
// The focus-received and focus-lost handlers run at the writeback of
// the same pass and their style dirt folds into that pass's decision.
func TestFocusHandlersFireOnChange(t *testing.T) {
	assert := assert.New(t)
	app, _, data, id := newTestApp(func(m core.CallbackMap, d *testUI) {
		m.Set(boxNode, core.KindMouseDown, func(info *core.CallbackInfo) core.Update {
			info.SetFocus(boxNode)
			return core.UpdateDoNothing
		})
		m.Set(boxNode, core.KindMouseUp, func(info *core.CallbackInfo) core.Update {
			info.ClearFocus()
			return core.UpdateDoNothing
		})
		m.Set(boxNode, core.KindFocusReceived, func(info *core.CallbackInfo) core.Update {
			d.focusGained++
			info.SetCSS(boxNode, layout.PropertyChange{Prop: layout.PropBackground, Value: 0.9})
			return core.UpdateDoNothing
		})
		m.Set(boxNode, core.KindFocusLost, func(info *core.CallbackInfo) core.Update {
			d.focusLost++
			return core.UpdateDoNothing
		})
	})
	win := app.window(id)

	app.deliverEvent(id, core.EventCursorMoved{Pos: layout.Point{X: 10, Y: 10}})
	outcomes := app.deliverEvent(id, core.EventMouseButton{Button: core.ButtonLeft, Down: true})

	assert.Equal(1, data.focusGained)
	assert.Equal(0, data.focusLost)
	assert.Equal(boxNode, win.ui.Current.FocusedNode)
	// the received handler's paint dirt decided this very pass
	assert.Equal(core.UpdateDisplayListCurrentWindow, outcomes[len(outcomes)-1])

	app.deliverEvent(id, core.EventMouseButton{Button: core.ButtonLeft, Down: false})

	assert.Equal(1, data.focusGained)
	assert.Equal(1, data.focusLost)
	assert.Equal(layout.NoNode, win.ui.Current.FocusedNode)
}

func TestReentrantEventDropped(t *testing.T) {
	app, _, _, id := newTestApp(nil)

	_, release, ok := app.cell.TryAcquire()
	assert.True(t, ok)
	defer release()

	outcomes := app.deliverEvent(id, core.EventCursorMoved{Pos: layout.Point{X: 10, Y: 10}})
	assert.Nil(t, outcomes)
}

func TestScrollRendersWithoutRebuild(t *testing.T) {
	assert := assert.New(t)
	app, _, _, id := newTestApp(nil)
	win := app.window(id)

	app.deliverEvent(id, core.EventCursorMoved{Pos: layout.Point{X: 10, Y: 10}})
	assert.Equal([]layout.NodeID{boxNode}, win.ui.Current.LastHitTest.ScrollTargets)

	outcomes := app.deliverEvent(id, core.EventScroll{Y: -3})

	assert.Equal([]core.DecisionOutcome{core.ReRenderCurrentWindow}, outcomes)
	assert.Zero(win.ui.Current.Mouse.WheelY)
	assert.Equal(layout.Point{X: 0, Y: -3}, win.ui.Scroll[boxNode])
	// a scroll never resubmits the display list
	assert.Equal(1, win.listsSubmitted)
}

func TestCallbackTimerLifecycle(t *testing.T) {
	assert := assert.New(t)
	const tid task.TimerID = 7
	app, _, data, id := newTestApp(func(m core.CallbackMap, d *testUI) {
		m.Set(boxNode, core.KindMouseDown, func(info *core.CallbackInfo) core.Update {
			// long period: only the explicitly posted fire below runs
			info.StartTimer(tid, time.Hour, func(info *core.CallbackInfo) core.Update {
				d.timerFires++
				info.SetCSS(boxNode, layout.PropertyChange{Prop: layout.PropBackground, Value: 0.3})
				return core.UpdateDoNothing
			})
			return core.UpdateDoNothing
		})
	})
	win := app.window(id)

	app.deliverEvent(id, core.EventCursorMoved{Pos: layout.Point{X: 10, Y: 10}})
	app.deliverEvent(id, core.EventMouseButton{Button: core.ButtonLeft, Down: true})

	assert.Equal(1, win.supervisor.TimerCount())
	assert.Contains(win.ui.Timers, core.UserTimerID(tid))

	// simulate the OS timer fire
	app.post(message{window: id, kind: msgTimer, timer: core.UserTimerID(tid)})
	app.drain()

	assert.Equal(1, data.timerFires)
	// the timer callback dirtied a paint property
	assert.Equal(2, win.listsSubmitted)

	app.DestroyWindow(id)
	assert.Equal(0, win.supervisor.TimerCount())
}

// Scenario: an application starts a timer whose id collides with the
// reserved task-poll tick. The remap keeps the two apart: a tick fire
// polls tasks only, the remapped id runs the application callback.
func TestReservedTimerIDsNotHijacked(t *testing.T) {
	assert := assert.New(t)
	app, _, data, id := newTestApp(func(m core.CallbackMap, d *testUI) {
		m.Set(boxNode, core.KindMouseDown, func(info *core.CallbackInfo) core.Update {
			info.StartTimer(task.TickTimerID, time.Hour, func(info *core.CallbackInfo) core.Update {
				d.timerFires++
				return core.UpdateDoNothing
			})
			return core.UpdateDoNothing
		})
	})
	win := app.window(id)

	app.deliverEvent(id, core.EventCursorMoved{Pos: layout.Point{X: 10, Y: 10}})
	app.deliverEvent(id, core.EventMouseButton{Button: core.ButtonLeft, Down: true})

	assert.NotContains(win.ui.Timers, task.TickTimerID)
	assert.Contains(win.ui.Timers, core.UserTimerID(task.TickTimerID))

	// a task-poll fire with no tasks does nothing
	app.post(message{window: id, kind: msgTimer, timer: task.TickTimerID})
	app.drain()
	assert.Equal(0, data.timerFires)

	app.post(message{window: id, kind: msgTimer, timer: core.UserTimerID(task.TickTimerID)})
	app.drain()
	assert.Equal(1, data.timerFires)
}

func TestStaleTimerFireIgnored(t *testing.T) {
	app, _, data, id := newTestApp(nil)

	app.post(message{window: id, kind: msgTimer, timer: 99})
	app.drain()

	assert.Equal(t, 0, data.timerFires)
	assert.Equal(t, 1, app.tableSize())
}

func TestHotReloadRebuildsDom(t *testing.T) {
	assert := assert.New(t)
	host := &stubHost{}
	data := &testUI{}
	app := NewApp(host, data)

	opts := testOptions(uiBuilder(nil))
	opts.HotReload = true
	id, err := app.CreateWindow(opts)
	assert.NoError(err)
	win := app.window(id)

	assert.Equal(1, data.builds)
	assert.Equal(1, win.supervisor.TimerCount())

	app.post(message{window: id, kind: msgTimer, timer: hotReloadTimerID})
	app.drain()

	assert.Equal(2, data.builds)
	assert.Equal(2, win.listsSubmitted)
	assert.Equal(2, win.framesRendered)
}

func TestRegenerateAllWindows(t *testing.T) {
	assert := assert.New(t)
	host := &stubHost{}
	data := &testUI{}
	app := NewApp(host, data)

	build := uiBuilder(func(m core.CallbackMap, d *testUI) {
		m.Set(boxNode, core.KindMouseDown, func(info *core.CallbackInfo) core.Update {
			return core.UpdateRegenerateAllWindows
		})
	})
	id1, err := app.CreateWindow(testOptions(build))
	assert.NoError(err)
	_, err = app.CreateWindow(testOptions(build))
	assert.NoError(err)
	assert.Equal(2, data.builds)

	app.deliverEvent(id1, core.EventCursorMoved{Pos: layout.Point{X: 10, Y: 10}})
	outcomes := app.deliverEvent(id1, core.EventMouseButton{Button: core.ButtonLeft, Down: true})
	assert.Equal(core.RegenerateDomAllWindows, outcomes[len(outcomes)-1])

	app.drain()
	assert.Equal(4, data.builds)
}

func TestCallbackCreatesWindow(t *testing.T) {
	assert := assert.New(t)
	app, _, data, id := newTestApp(func(m core.CallbackMap, d *testUI) {
		m.Set(boxNode, core.KindMouseDown, func(info *core.CallbackInfo) core.Update {
			info.CreateWindow(testOptions(uiBuilder(nil)))
			return core.UpdateDoNothing
		})
	})

	app.deliverEvent(id, core.EventCursorMoved{Pos: layout.Point{X: 10, Y: 10}})
	app.deliverEvent(id, core.EventMouseButton{Button: core.ButtonLeft, Down: true})
	app.drain()

	assert.Equal(2, app.tableSize())
	assert.Equal(2, data.builds)
}

func TestMenuCommandDispatch(t *testing.T) {
	assert := assert.New(t)
	host := &stubHost{}
	data := &testUI{}
	app := NewApp(host, data)

	opts := testOptions(uiBuilder(nil))
	opts.Menu = &core.Menu{Items: []core.MenuItem{
		{Label: "File", Children: []core.MenuItem{
			{Label: "Click", Command: 40001, Callback: func(info *core.CallbackInfo) core.Update {
				data.clicks++
				return core.UpdateDoNothing
			}},
			{Separator: true},
			{Label: "Quit", Command: 40002, Callback: func(info *core.CallbackInfo) core.Update {
				info.CloseWindow()
				return core.UpdateDoNothing
			}},
		}},
	}}
	id, err := app.CreateWindow(opts)
	assert.NoError(err)

	app.Command(id, 40001)
	assert.Equal(1, data.clicks)

	app.Command(id, 40002)
	app.drain()
	assert.Equal(0, app.tableSize())
}

func TestMenuHashStability(t *testing.T) {
	assert := assert.New(t)
	m1 := &core.Menu{Items: []core.MenuItem{{Label: "File", Command: 1}}}
	m2 := &core.Menu{Items: []core.MenuItem{{Label: "File", Command: 1}}}
	m3 := &core.Menu{Items: []core.MenuItem{{Label: "Edit", Command: 1}}}

	assert.Equal(menuHash(m1), menuHash(m2))
	assert.NotEqual(menuHash(m1), menuHash(m3))
	assert.Zero(menuHash(nil))
}

func TestCursorIconFollowsHit(t *testing.T) {
	assert := assert.New(t)
	host := &stubHost{}
	data := &testUI{}
	app := NewApp(host, data)

	build := func(d any) (*layout.Dom, core.CallbackMap) {
		data.builds++
		root := layout.NewNode(rootNode, layout.Style{
			WidthMode:  layout.SizeExpand,
			HeightMode: layout.SizeExpand,
			Background: [4]float32{0, 0, 0, 1},
		})
		box := layout.NewNode(boxNode, layout.Style{
			WidthMode:  layout.SizeFixed,
			HeightMode: layout.SizeFixed,
			Width:      100,
			Height:     100,
			Background: [4]float32{1, 1, 1, 1},
			Cursor:     layout.CursorPointer,
		})
		root.Children = []*layout.Node{box}
		return &layout.Dom{Root: root}, core.CallbackMap{}
	}
	id, err := app.CreateWindow(testOptions(build))
	assert.NoError(err)

	app.deliverEvent(id, core.EventCursorMoved{Pos: layout.Point{X: 10, Y: 10}})
	assert.Equal(layout.CursorPointer, host.surfaces[0].cursor)

	app.deliverEvent(id, core.EventCursorMoved{Pos: layout.Point{X: 500, Y: 500}})
	assert.Equal(layout.CursorDefault, host.surfaces[0].cursor)
}

func TestBackgroundTaskCompletion(t *testing.T) {
	assert := assert.New(t)
	const taskID task.TaskID = 3
	done := make(chan struct{})
	app, _, data, id := newTestApp(func(m core.CallbackMap, d *testUI) {
		m.Set(boxNode, core.KindMouseDown, func(info *core.CallbackInfo) core.Update {
			info.SpawnTask(taskID, func() { <-done }, func(info *core.CallbackInfo) core.Update {
				d.clicks++
				return core.UpdateDoNothing
			})
			return core.UpdateDoNothing
		})
	})
	win := app.window(id)

	app.deliverEvent(id, core.EventCursorMoved{Pos: layout.Point{X: 10, Y: 10}})
	app.deliverEvent(id, core.EventMouseButton{Button: core.ButtonLeft, Down: true})

	// task live: the coalescing tick timer is armed
	assert.True(win.supervisor.TickRunning())
	assert.Equal(1, win.supervisor.TaskCount())

	// tick while the task still runs: nothing happens
	app.post(message{window: id, kind: msgTimer, timer: task.TickTimerID})
	app.drain()
	assert.Equal(0, data.clicks)
	assert.True(win.supervisor.TickRunning())

	close(done)
	entry := win.ui.Tasks[taskID]
	<-entry.Done

	app.post(message{window: id, kind: msgTimer, timer: task.TickTimerID})
	app.drain()

	assert.Equal(1, data.clicks)
	assert.Equal(0, win.supervisor.TaskCount())
	assert.False(win.supervisor.TickRunning())
}
