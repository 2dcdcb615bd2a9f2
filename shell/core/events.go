package core

import (
	"github.com/mawren/thicket/shell/layout"
	"github.com/mawren/thicket/shell/render"
)

// Event is the closed union of typed input events produced from raw
// platform messages.
type Event interface{ isEvent() }

type EventCursorMoved struct{ Pos layout.Point } // logical units

func (EventCursorMoved) isEvent() {}

// EventCursorEntered fires when the cursor transitions into the window.
// The platform re-arms leave tracking on every one of these.
type EventCursorEntered struct{ Pos layout.Point }

func (EventCursorEntered) isEvent() {}

type EventCursorLeft struct{}

func (EventCursorLeft) isEvent() {}

type MouseButton int

const (
	ButtonLeft MouseButton = iota
	ButtonRight
)

type EventMouseButton struct {
	Button MouseButton
	Down   bool
}

func (EventMouseButton) isEvent() {}

type EventScroll struct{ X, Y float32 }

func (EventScroll) isEvent() {}

type EventResized struct {
	Size  layout.Size // logical units
	Frame WindowFrame
}

func (EventResized) isEvent() {}

type EventDPIChanged struct{ Scale float32 }

func (EventDPIChanged) isEvent() {}

type EventCloseRequested struct{}

func (EventCloseRequested) isEvent() {}

// Classify stages previous = clone(current) and applies the event's
// delta to current. This happens exactly once per message, before any
// hit-testing, so previous-vs-current diffing downstream is always
// well-defined.
func Classify(u *UIState, ev Event) {
	u.Stage()
	cur := u.Current
	switch e := ev.(type) {
	case EventCursorMoved:
		cur.Mouse.Cursor = CursorPosition{State: CursorInWindow, Pos: e.Pos}
	case EventCursorEntered:
		cur.Mouse.Cursor = CursorPosition{State: CursorInWindow, Pos: e.Pos}
	case EventCursorLeft:
		cur.Mouse.Cursor = CursorPosition{State: CursorOutOfWindow}
		cur.LastHitTest = render.HitResult{Focused: cur.FocusedNode}
		cur.Mouse.CursorIcon = layout.CursorDefault
	case EventMouseButton:
		switch e.Button {
		case ButtonLeft:
			cur.Mouse.LeftDown = e.Down
		case ButtonRight:
			cur.Mouse.RightDown = e.Down
		}
	case EventScroll:
		cur.Mouse.WheelX += e.X
		cur.Mouse.WheelY += e.Y
	case EventResized:
		cur.Size.Dimensions = e.Size
		cur.Flags.Frame = e.Frame
	case EventDPIChanged:
		cur.Size.Scale = e.Scale
		cur.Size.DPI = uint32(e.Scale * 96)
	case EventCloseRequested:
		cur.Flags.CloseRequested = true
	}
}

// InputDelta summarizes what changed between the previous and current
// snapshots of one message.
type InputDelta struct {
	CursorMoved  bool
	MouseEntered bool
	MouseLeft    bool
	LeftDown     bool
	LeftUp       bool
	RightDown    bool
	RightUp      bool
	Scrolled     bool
	Resized      bool
	FocusChanged bool
	CloseRequest bool
	HoverEntered []layout.NodeID // nodes newly under the cursor
	HoverLeft    []layout.NodeID // nodes no longer under the cursor
}

// DiffStates derives the input delta. prev may be nil (first event or
// post-regeneration), in which case everything current counts as new.
func DiffStates(prev, cur *WindowState) InputDelta {
	var d InputDelta
	if prev == nil {
		d.CursorMoved = cur.Mouse.Cursor.State == CursorInWindow
		d.MouseEntered = d.CursorMoved
		d.HoverEntered, d.HoverLeft = diffHover(cur.LastHitTest.Hovered, nil)
		return d
	}

	pc, cc := prev.Mouse.Cursor, cur.Mouse.Cursor
	d.CursorMoved = cc.State == CursorInWindow && (pc.State != CursorInWindow || pc.Pos != cc.Pos)
	d.MouseEntered = cc.State == CursorInWindow && pc.State != CursorInWindow
	d.MouseLeft = cc.State != CursorInWindow && pc.State == CursorInWindow

	d.LeftDown = cur.Mouse.LeftDown && !prev.Mouse.LeftDown
	d.LeftUp = !cur.Mouse.LeftDown && prev.Mouse.LeftDown
	d.RightDown = cur.Mouse.RightDown && !prev.Mouse.RightDown
	d.RightUp = !cur.Mouse.RightDown && prev.Mouse.RightDown

	d.Scrolled = cur.Mouse.WheelX != prev.Mouse.WheelX || cur.Mouse.WheelY != prev.Mouse.WheelY
	d.Resized = cur.Size.LayoutSize() != prev.Size.LayoutSize()
	d.FocusChanged = cur.FocusedNode != prev.FocusedNode
	d.CloseRequest = cur.Flags.CloseRequested && !prev.Flags.CloseRequested

	d.HoverEntered, d.HoverLeft = diffHover(cur.LastHitTest.Hovered, prev.LastHitTest.Hovered)
	return d
}

func diffHover(cur, prev []layout.NodeID) (entered, left []layout.NodeID) {
	in := func(s []layout.NodeID, id layout.NodeID) bool {
		for _, v := range s {
			if v == id {
				return true
			}
		}
		return false
	}
	for _, id := range cur {
		if !in(prev, id) {
			entered = append(entered, id)
		}
	}
	for _, id := range prev {
		if !in(cur, id) {
			left = append(left, id)
		}
	}
	return entered, left
}
