package platform

import (
	"errors"
	"log"
	"sync"

	"github.com/mawren/thicket/shell/core"
	"github.com/mawren/thicket/shell/task"
)

// appState is the process-wide application state guarded by the shared
// cell: the window table and the opaque user data handed to callbacks.
type appState struct {
	windows map[core.WindowID]*Window
	data    any
	nextID  core.WindowID
}

type msgKind int

// Synthetic application messages. Posted by handlers and timers,
// drained by the run loop before the next OS event is waited on.
const (
	msgRegenerateDom msgKind = iota
	msgRebuildDisplayList
	msgRedoHitTest
	msgRender
	msgTimer
	msgCreateWindow
	msgDestroyWindow
)

type message struct {
	window core.WindowID
	kind   msgKind
	timer  task.TimerID
	opts   *core.WindowOptions
}

// App is the message-loop host. All window mutation happens on the
// thread running the loop; the shared cell is try-acquired on every
// entry so reentrant native callbacks degrade to dropped events.
type App struct {
	host Host
	cell *core.Cell[appState]

	qmu   sync.Mutex
	queue []message
	quit  bool
}

func NewApp(host Host, data any) *App {
	st := &appState{
		windows: map[core.WindowID]*Window{},
		data:    data,
	}
	return &App{host: host, cell: core.NewCell(st)}
}

// CreateWindow creates and registers a window. Must be called from the
// loop thread while no message is being handled.
func (a *App) CreateWindow(opts core.WindowOptions) (core.WindowID, error) {
	if err := a.host.Init(); err != nil {
		return 0, &CreateError{Stage: StageInit, Err: err}
	}
	st, release, ok := a.cell.TryAcquire()
	if !ok {
		return 0, errors.New("platform: shared state busy")
	}
	defer release()

	st.nextID++
	id := st.nextID
	win, err := a.createWindow(id, opts, st.data)
	if err != nil {
		return 0, err
	}
	st.windows[id] = win
	win.surface.SetEventSink(func(ev core.Event) { a.deliverEvent(id, ev) })
	return id, nil
}

// DestroyWindow tears a window down immediately when the state is
// free, otherwise defers to the message queue.
func (a *App) DestroyWindow(id core.WindowID) {
	st, release, ok := a.cell.TryAcquire()
	if !ok {
		a.post(message{window: id, kind: msgDestroyWindow})
		return
	}
	a.destroyLocked(st, id)
	release()
}

func (a *App) destroyLocked(st *appState, id core.WindowID) {
	win := st.windows[id]
	if win == nil {
		return
	}
	delete(st.windows, id)
	win.destroy()
	if len(st.windows) == 0 {
		a.requestQuit()
	}
}

// Command dispatches a native menu command to its registered callback.
func (a *App) Command(id core.WindowID, cmd uint16) {
	st, release, ok := a.cell.TryAcquire()
	if !ok {
		log.Printf("platform: shared state busy, menu command %d dropped", cmd)
		return
	}
	defer release()
	win := st.windows[id]
	if win == nil {
		return
	}
	cb := win.menuCmds[cmd]
	if cb == nil {
		return
	}
	res := core.RunCallback(cb, win.ui.Current, 0, st.data)
	rep, fallback := a.applyCallbackResults(win, st.data, res, core.DoNothing)
	outcome := core.Decide(win.ui.Previous, win.ui.Current, res, rep, false, fallback)
	a.applyOutcome(st, win, outcome)
	if win.ui.Current.Flags.CloseRequested {
		a.post(message{window: id, kind: msgDestroyWindow})
	}
}

// Run drives the loop: drain every synthetic message, then block on
// the host until the next OS event. Exits when the window table
// empties.
func (a *App) Run() error {
	if err := a.host.Init(); err != nil {
		return &CreateError{Stage: StageInit, Err: err}
	}
	for {
		a.drain()
		if a.quitRequested() || a.windowCount() == 0 {
			break
		}
		a.host.Wait()
	}
	a.host.Terminate()
	return nil
}

func (a *App) post(m message) {
	a.qmu.Lock()
	a.queue = append(a.queue, m)
	a.qmu.Unlock()
	a.host.Wake()
}

func (a *App) take() (message, bool) {
	a.qmu.Lock()
	defer a.qmu.Unlock()
	if len(a.queue) == 0 {
		return message{}, false
	}
	m := a.queue[0]
	a.queue = a.queue[1:]
	return m, true
}

// drain handles queued synthetic messages, including ones posted while
// draining. Always runs to exhaustion before the next OS wait.
func (a *App) drain() {
	for {
		m, ok := a.take()
		if !ok {
			return
		}
		a.handle(m)
	}
}

func (a *App) requestQuit() {
	a.qmu.Lock()
	a.quit = true
	a.qmu.Unlock()
	a.host.Wake()
}

func (a *App) quitRequested() bool {
	a.qmu.Lock()
	defer a.qmu.Unlock()
	return a.quit
}

func (a *App) windowCount() int {
	st, release, ok := a.cell.TryAcquire()
	if !ok {
		return 1
	}
	n := len(st.windows)
	release()
	return n
}

// handle processes one synthetic message with the cell held.
func (a *App) handle(m message) {
	st, release, ok := a.cell.TryAcquire()
	if !ok {
		log.Printf("platform: shared state busy, message %d dropped", m.kind)
		return
	}
	defer release()

	if m.kind == msgCreateWindow {
		st.nextID++
		id := st.nextID
		win, err := a.createWindow(id, *m.opts, st.data)
		if err != nil {
			log.Printf("platform: deferred window creation failed: %v", err)
			return
		}
		st.windows[id] = win
		win.surface.SetEventSink(func(ev core.Event) { a.deliverEvent(id, ev) })
		return
	}

	win := st.windows[m.window]
	if win == nil {
		return
	}

	switch m.kind {
	case msgDestroyWindow:
		a.destroyLocked(st, m.window)

	case msgRegenerateDom:
		win.regenerateDom(st.data)
		a.simulatedMouseMove(win, st.data)
		a.post(message{window: m.window, kind: msgRender})

	case msgRebuildDisplayList:
		win.submitList()
		win.renderer.GenerateFrame(win.doc, true)
		a.post(message{window: m.window, kind: msgRedoHitTest})
		a.post(message{window: m.window, kind: msgRender})

	case msgRedoHitTest:
		win.refreshHitTester()
		cur := win.ui.Current
		if cur.Mouse.Cursor.State == core.CursorInWindow {
			ht := win.hitTester.Resolve()
			cur.LastHitTest = ht.HitTest(cur.Mouse.Cursor.Pos, cur.FocusedNode)
		}

	case msgRender:
		if err := win.paint(); err != nil {
			log.Printf("platform: paint failed: %v", err)
		}

	case msgTimer:
		outcome := a.processTimer(win, st, m.timer)
		a.applyOutcome(st, win, outcome)
		if win.ui.Current.Flags.CloseRequested {
			a.post(message{window: m.window, kind: msgDestroyWindow})
		}
	}
}

// deliverEvent is the surface event sink: classify, run decision
// passes, apply the outcome. Returns the pass trace.
func (a *App) deliverEvent(id core.WindowID, ev core.Event) []core.DecisionOutcome {
	st, release, ok := a.cell.TryAcquire()
	if !ok {
		// reentrant delivery; drop the event, default handling applies
		log.Printf("platform: shared state busy, event dropped")
		return nil
	}
	win := st.windows[id]
	if win == nil {
		release()
		return nil
	}

	core.Classify(win.ui, ev)
	outcomes := a.runEventPasses(win, st.data)
	a.applyOutcome(st, win, outcomes[len(outcomes)-1])
	closed := win.ui.Current.Flags.CloseRequested
	release()

	if closed {
		a.post(message{window: id, kind: msgDestroyWindow})
	}
	return outcomes
}

// applyOutcome posts the follow-up synthetic message for a decision.
func (a *App) applyOutcome(st *appState, win *Window, outcome core.DecisionOutcome) {
	switch outcome {
	case core.RegenerateDomAllWindows:
		for id := range st.windows {
			a.post(message{window: id, kind: msgRegenerateDom})
		}
	case core.RegenerateDomCurrentWindow:
		a.post(message{window: win.id, kind: msgRegenerateDom})
	case core.UpdateDisplayListCurrentWindow:
		a.post(message{window: win.id, kind: msgRebuildDisplayList})
	case core.ReRenderCurrentWindow:
		a.post(message{window: win.id, kind: msgRender})
	}
}
