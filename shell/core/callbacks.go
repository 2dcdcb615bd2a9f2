package core

import (
	"time"

	"github.com/mawren/thicket/shell/layout"
	"github.com/mawren/thicket/shell/task"
)

// Update is a callback's screen-update directive.
type Update int

const (
	UpdateDoNothing Update = iota
	UpdateRegenerateCurrentWindow
	UpdateRegenerateAllWindows
)

// Merge keeps the stronger of two directives.
func (u Update) Merge(other Update) Update {
	if other > u {
		return other
	}
	return u
}

// EventKind selects which node handler a delta fires.
type EventKind int

const (
	KindMouseEnter EventKind = iota
	KindMouseLeave
	KindMouseOver
	KindMouseDown
	KindMouseUp
	KindRightMouseDown
	KindRightMouseUp
	KindScroll
	KindFocusReceived
	KindFocusLost
)

// Callback is one user UI handler. It reads the snapshot through info
// and records requested mutations on it; it never touches shared state
// directly.
type Callback func(info *CallbackInfo) Update

// CallbackMap registers handlers per node and event kind.
type CallbackMap map[layout.NodeID]map[EventKind]Callback

// Set registers a handler, allocating the inner map on first use.
func (m CallbackMap) Set(node layout.NodeID, kind EventKind, cb Callback) {
	inner := m[node]
	if inner == nil {
		inner = map[EventKind]Callback{}
		m[node] = inner
	}
	inner[kind] = cb
}

// NodesToCheck is the node set implicated by one event pass.
type NodesToCheck struct {
	Hovered      []layout.NodeID
	HoverEntered []layout.NodeID
	HoverLeft    []layout.NodeID
	MouseDown    bool
	Focused      layout.NodeID
}

// NodesFromDelta derives the node set from the staged hit test and the
// input delta.
func NodesFromDelta(cur *WindowState, d InputDelta) NodesToCheck {
	return NodesToCheck{
		Hovered:      cur.LastHitTest.Hovered,
		HoverEntered: d.HoverEntered,
		HoverLeft:    d.HoverLeft,
		MouseDown:    cur.Mouse.AnyDown(),
		Focused:      cur.FocusedNode,
	}
}

// SimulatedMouseMove is the node set used right after a DOM
// regeneration: every currently hovered node counts as newly entered.
func SimulatedMouseMove(cur *WindowState) NodesToCheck {
	return NodesToCheck{
		Hovered:      cur.LastHitTest.Hovered,
		HoverEntered: cur.LastHitTest.Hovered,
		MouseDown:    cur.Mouse.AnyDown(),
		Focused:      cur.FocusedNode,
	}
}

// CallbackResults bundles every mutation requested by the callbacks of
// one pass. Side effects are confined to this bundle; the caller
// applies them.
type CallbackResults struct {
	Update        Update
	ModifiedState *WindowState

	TimersAdded   map[task.TimerID]TimerEntry
	TimersRemoved []task.TimerID
	TasksAdded    map[task.TaskID]*TaskEntry
	TasksRemoved  []task.TaskID

	WindowsCreated []WindowOptions

	CSSChanged   map[layout.NodeID][]layout.PropertyChange
	WordsChanged map[layout.NodeID]string
	FocusRequest *layout.FocusRequest
}

// TimerPeriods projects the added timers to the form the supervisor
// reconciles.
func (r *CallbackResults) TimerPeriods() map[task.TimerID]time.Duration {
	if len(r.TimersAdded) == 0 {
		return nil
	}
	m := make(map[task.TimerID]time.Duration, len(r.TimersAdded))
	for id, t := range r.TimersAdded {
		m[id] = t.Period
	}
	return m
}

// CallbackInfo is the view a callback gets: the window snapshot, the
// node the handler is bound to, the shared application data, and the
// mutation collectors.
type CallbackInfo struct {
	Window *WindowState // read-only snapshot; mutate via ModifyState
	Node   layout.NodeID
	Data   any

	results *CallbackResults
}

// ModifyState requests a window-state replacement. The mutation runs
// on a clone; the shell applies it after dispatch.
func (c *CallbackInfo) ModifyState(f func(*WindowState)) {
	if c.results.ModifiedState == nil {
		c.results.ModifiedState = c.Window.Clone()
	}
	f(c.results.ModifiedState)
}

// CloseWindow queues this window for destruction.
func (c *CallbackInfo) CloseWindow() {
	c.ModifyState(func(s *WindowState) { s.Flags.CloseRequested = true })
}

// UserTimerID maps an application timer id into the non-reserved id
// space. Ids below task.FirstUserTimerID belong to the shell (task
// poll tick, hot reload); the offset keeps application timers from
// ever hijacking them.
func UserTimerID(id task.TimerID) task.TimerID {
	return task.FirstUserTimerID + id
}

func (c *CallbackInfo) StartTimer(id task.TimerID, period time.Duration, fn Callback) {
	if c.results.TimersAdded == nil {
		c.results.TimersAdded = map[task.TimerID]TimerEntry{}
	}
	c.results.TimersAdded[UserTimerID(id)] = TimerEntry{Period: period, Fn: fn}
}

func (c *CallbackInfo) StopTimer(id task.TimerID) {
	c.results.TimersRemoved = append(c.results.TimersRemoved, UserTimerID(id))
}

func (c *CallbackInfo) SpawnTask(id task.TaskID, run func(), onDone Callback) {
	if c.results.TasksAdded == nil {
		c.results.TasksAdded = map[task.TaskID]*TaskEntry{}
	}
	c.results.TasksAdded[id] = &TaskEntry{Run: run, OnDone: onDone, Done: make(chan struct{})}
}

func (c *CallbackInfo) StopTask(id task.TaskID) {
	c.results.TasksRemoved = append(c.results.TasksRemoved, id)
}

func (c *CallbackInfo) CreateWindow(opts WindowOptions) {
	c.results.WindowsCreated = append(c.results.WindowsCreated, opts)
}

// SetCSS marks a CSS property dirty on a node.
func (c *CallbackInfo) SetCSS(node layout.NodeID, changes ...layout.PropertyChange) {
	if c.results.CSSChanged == nil {
		c.results.CSSChanged = map[layout.NodeID][]layout.PropertyChange{}
	}
	c.results.CSSChanged[node] = append(c.results.CSSChanged[node], changes...)
}

// SetText replaces a node's text run.
func (c *CallbackInfo) SetText(node layout.NodeID, text string) {
	if c.results.WordsChanged == nil {
		c.results.WordsChanged = map[layout.NodeID]string{}
	}
	c.results.WordsChanged[node] = text
}

func (c *CallbackInfo) SetFocus(node layout.NodeID) {
	c.results.FocusRequest = &layout.FocusRequest{Target: node}
}

func (c *CallbackInfo) ClearFocus() {
	c.results.FocusRequest = &layout.FocusRequest{Clear: true}
}

// RunCallback invokes a single handler outside node dispatch: timers,
// task completions, menu commands. A nil handler yields empty results.
func RunCallback(fn Callback, snapshot *WindowState, node layout.NodeID, data any) *CallbackResults {
	results := &CallbackResults{}
	if fn != nil {
		info := &CallbackInfo{Window: snapshot, Node: node, Data: data, results: results}
		results.Update = fn(info)
	}
	return results
}

// DispatchCallbacks invokes the handlers of the affected nodes and
// collects their requested mutations. The snapshot handed to handlers
// is the live current state; handlers must mutate only through the
// collectors.
func DispatchCallbacks(nodes NodesToCheck, d InputDelta, callbacks CallbackMap, snapshot *WindowState, data any) *CallbackResults {
	results := &CallbackResults{}
	info := &CallbackInfo{Window: snapshot, Data: data, results: results}

	fire := func(node layout.NodeID, kind EventKind) {
		handlers := callbacks[node]
		if handlers == nil {
			return
		}
		cb := handlers[kind]
		if cb == nil {
			return
		}
		info.Node = node
		results.Update = results.Update.Merge(cb(info))
	}

	for _, n := range nodes.HoverLeft {
		fire(n, KindMouseLeave)
	}
	for _, n := range nodes.HoverEntered {
		fire(n, KindMouseEnter)
	}
	for _, n := range nodes.Hovered {
		if d.CursorMoved {
			fire(n, KindMouseOver)
		}
		if d.LeftDown {
			fire(n, KindMouseDown)
		}
		if d.LeftUp {
			fire(n, KindMouseUp)
		}
		if d.RightDown {
			fire(n, KindRightMouseDown)
		}
		if d.RightUp {
			fire(n, KindRightMouseUp)
		}
		if d.Scrolled {
			fire(n, KindScroll)
		}
	}
	if d.FocusChanged {
		fire(nodes.Focused, KindFocusReceived)
	}
	return results
}
