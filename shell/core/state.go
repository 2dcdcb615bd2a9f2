// Package core holds the event-to-action decision engine of the shell:
// typed input events diffed against window state, user-callback
// dispatch with its result bundle, and the pure state machine that maps
// one event-processing pass to the next re-derivation step.
package core

import (
	"time"

	"github.com/mawren/thicket/shell/layout"
	"github.com/mawren/thicket/shell/render"
	"github.com/mawren/thicket/shell/task"
)

// WindowID is the stable per-window identifier keying the application
// window table.
type WindowID uint64

// RendererPref selects the rendering path at window creation.
type RendererPref int

const (
	RendererAuto RendererPref = iota // hardware first, software fallback
	RendererHardware
	RendererSoftware
)

type WindowFrame int

const (
	FrameNormal WindowFrame = iota
	FrameMinimized
	FrameMaximized
	FrameFullscreen
)

// BuildFn is the application's layout callback: it produces the UI
// tree description plus the handler registrations for its nodes.
type BuildFn func(data any) (*layout.Dom, CallbackMap)

// LayoutSource identifies the layout callback. Generation changes when
// the application swaps the callback or its configuration; the decision
// machine regenerates the DOM on any such change.
type LayoutSource struct {
	Build      BuildFn
	Generation uint64
}

type CursorState int

const (
	CursorUninitialized CursorState = iota
	CursorOutOfWindow
	CursorInWindow
)

type CursorPosition struct {
	State CursorState
	Pos   layout.Point // logical units, valid when State == CursorInWindow
}

type MouseState struct {
	Cursor    CursorPosition
	LeftDown  bool
	RightDown bool
	// Wheel deltas accumulate until the system scroll is applied, then
	// reset to zero.
	WheelX, WheelY float32
	CursorIcon     layout.CursorIcon
}

func (m *MouseState) AnyDown() bool { return m.LeftDown || m.RightDown }

type WindowSize struct {
	Dimensions layout.Size // logical units
	DPI        uint32
	Scale      float32 // hidpi factor, physical = logical * Scale
}

// LayoutSize is the size layout runs at. Two states with equal layout
// sizes never require a relayout from size alone.
func (s WindowSize) LayoutSize() layout.Size { return s.Dimensions }

type WindowFlags struct {
	Visible        bool
	Frame          WindowFrame
	CloseRequested bool // is_about_to_close: queue this window for destruction
}

// WindowState is one snapshot of a window's input/layout state. The
// shell keeps a previous and a current snapshot per window; diffing
// them yields the input delta for callback dispatch.
type WindowState struct {
	Title       string
	Size        WindowSize
	Flags       WindowFlags
	Mouse       MouseState
	FocusedNode layout.NodeID
	LastHitTest render.HitResult
	Layout      LayoutSource
}

// Clone returns a deep copy of the snapshot.
func (s *WindowState) Clone() *WindowState {
	c := *s
	c.LastHitTest.Hovered = append([]layout.NodeID(nil), s.LastHitTest.Hovered...)
	c.LastHitTest.ScrollTargets = append([]layout.NodeID(nil), s.LastHitTest.ScrollTargets...)
	return &c
}

// LayoutCallbackChanged reports whether the layout callback identity
// differs from the previous snapshot.
func (s *WindowState) LayoutCallbackChanged(prev *WindowState) bool {
	return prev != nil && s.Layout.Generation != prev.Layout.Generation
}

// TimerEntry is one logical timer: its period and the callback the
// shell runs when it fires.
type TimerEntry struct {
	Period time.Duration
	Fn     Callback
}

// TaskEntry is one logical background task. Run executes on its own
// goroutine; Done is closed when it finishes; OnDone runs on the shell
// thread during the next tick after completion.
type TaskEntry struct {
	Run    func()
	OnDone Callback
	Done   chan struct{}
}

// Finished reports task completion without blocking.
func (t *TaskEntry) Finished() bool {
	select {
	case <-t.Done:
		return true
	default:
		return false
	}
}

// UIState bundles everything the shell keeps per window besides native
// resources: the two state snapshots, the styled tree, scroll offsets,
// handler registrations and the logical timer/task tables.
type UIState struct {
	// Previous is nil only before the first processed event and right
	// after a DOM regeneration.
	Previous *WindowState
	Current  *WindowState

	Tree      *layout.StyledTree
	Scroll    layout.ScrollStates
	Callbacks CallbackMap

	Timers map[task.TimerID]TimerEntry
	Tasks  map[task.TaskID]*TaskEntry

	Doc render.DocumentID
}

func NewUIState(doc render.DocumentID, cur *WindowState) *UIState {
	return &UIState{
		Current:   cur,
		Scroll:    layout.ScrollStates{},
		Callbacks: CallbackMap{},
		Timers:    map[task.TimerID]TimerEntry{},
		Tasks:     map[task.TaskID]*TaskEntry{},
		Doc:       doc,
	}
}

// Stage snapshots the current state as previous, before applying an
// event delta to current. Done once per message, before hit-testing.
func (u *UIState) Stage() {
	u.Previous = u.Current.Clone()
}

// ProcessSystemScroll moves accumulated wheel deltas onto the scroll
// targets of the last hit test. Returns nil if nothing scrolled.
func (u *UIState) ProcessSystemScroll() *layout.ScrollResult {
	m := &u.Current.Mouse
	res := u.Scroll.ApplySystemScroll(m.WheelX, m.WheelY, u.Current.LastHitTest.ScrollTargets)
	return res
}

// ResetScrollToZero clears the wheel accumulator after the system
// scroll has been applied.
func (u *UIState) ResetScrollToZero() {
	u.Current.Mouse.WheelX = 0
	u.Current.Mouse.WheelY = 0
}

// WindowOptions describes a window to create.
type WindowOptions struct {
	Title         string
	Size          layout.Size // logical units
	Visible       bool
	Frame         WindowFrame
	Renderer      RendererPref
	VSync         bool
	SizeToContent bool
	HotReload     bool // rebuild the DOM on a 200ms cadence
	Layout        LayoutSource
	Menu          *Menu
}

// Menu is the native menu description attached to a window. The shell
// hashes the content to avoid rebuilding an unchanged menu.
type Menu struct {
	Items []MenuItem
}

type MenuItem struct {
	Label     string
	Command   uint16
	Separator bool
	Callback  Callback
	Children  []MenuItem
}
