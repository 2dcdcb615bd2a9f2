package platform

import (
	"log"

	"github.com/mawren/thicket/shell/core"
	"github.com/mawren/thicket/shell/layout"
	"github.com/mawren/thicket/shell/render"
	"github.com/mawren/thicket/shell/task"
)

// runEventPasses runs the decision machine over one classified event.
// UpdateHitTesterAndReprocess resubmits the display list, refreshes the
// hit-tester and reprocesses the same logical event; geometry is
// assumed stable after one refresh, the depth guard catches the rest.
func (a *App) runEventPasses(win *Window, data any) []core.DecisionOutcome {
	var outcomes []core.DecisionOutcome
	fallback := core.DoNothing
	for {
		outcome := a.processEvent(win, data, fallback)
		outcomes = append(outcomes, outcome)
		if outcome != core.UpdateHitTesterAndReprocess {
			return outcomes
		}
		if len(outcomes) >= core.MaxReprocessDepth {
			log.Printf("platform: reprocess depth %d exceeded, degrading to re-render", core.MaxReprocessDepth)
			return append(outcomes, core.ReRenderCurrentWindow)
		}
		win.submitList()
		win.refreshHitTester()
		fallback = core.ReRenderCurrentWindow
	}
}

// processEvent is one pass: hit test at the staged cursor, diff the
// snapshots, dispatch callbacks, apply their results, decide.
func (a *App) processEvent(win *Window, data any, fallback core.DecisionOutcome) core.DecisionOutcome {
	ui := win.ui
	cur := ui.Current

	if cur.Mouse.Cursor.State == core.CursorInWindow {
		ht := win.hitTester.Resolve()
		cur.LastHitTest = ht.HitTest(cur.Mouse.Cursor.Pos, cur.FocusedNode)
		if cur.LastHitTest.Cursor != cur.Mouse.CursorIcon {
			cur.Mouse.CursorIcon = cur.LastHitTest.Cursor
			win.surface.SetCursor(cur.LastHitTest.Cursor)
		}
	}

	d := core.DiffStates(ui.Previous, cur)

	// raw resize runs before callbacks; a changed box set makes the
	// hit-tester stale, which the fallback carries into the decision
	if d.Resized {
		if changed := ui.Tree.QuickResize(cur.Size.LayoutSize()); len(changed) > 0 {
			if fallback < core.UpdateHitTesterAndReprocess {
				fallback = core.UpdateHitTesterAndReprocess
			}
		}
	}

	nodes := core.NodesFromDelta(cur, d)
	res := core.DispatchCallbacks(nodes, d, ui.Callbacks, cur, data)

	rep, fallback := a.applyCallbackResults(win, data, res, fallback)

	scrolled := false
	if sr := ui.ProcessSystemScroll(); sr != nil {
		scrolled = true
		win.renderer.SendTransaction(win.doc, &render.Transaction{Scroll: sr.Nodes})
		ui.ResetScrollToZero()
	}

	return core.Decide(ui.Previous, ui.Current, res, rep, scrolled, fallback)
}

// applyCallbackResults applies a result bundle to the window: timer and
// task reconciliation, deferred window creation, state replacement,
// incremental style/layout recomputation, focus writeback with its
// lost/received dispatch.
func (a *App) applyCallbackResults(win *Window, data any, res *core.CallbackResults, fallback core.DecisionOutcome) (*layout.ChangeReport, core.DecisionOutcome) {
	ui := win.ui

	for id, t := range res.TimersAdded {
		ui.Timers[id] = t
	}
	for _, id := range res.TimersRemoved {
		delete(ui.Timers, id)
	}
	var addedTasks []task.TaskID
	for id, t := range res.TasksAdded {
		ui.Tasks[id] = t
		addedTasks = append(addedTasks, id)
		go func(t *core.TaskEntry) {
			if t.Run != nil {
				t.Run()
			}
			close(t.Done)
		}(t)
	}
	for _, id := range res.TasksRemoved {
		delete(ui.Tasks, id)
	}
	if len(res.TimersAdded) > 0 || len(res.TimersRemoved) > 0 ||
		len(addedTasks) > 0 || len(res.TasksRemoved) > 0 {
		win.supervisor.Reconcile(res.TimerPeriods(), res.TimersRemoved, addedTasks, res.TasksRemoved)
	}

	for _, opts := range res.WindowsCreated {
		o := opts
		a.post(message{kind: msgCreateWindow, opts: &o})
	}

	if res.ModifiedState != nil {
		cur := ui.Current
		if res.ModifiedState.Size.LayoutSize() != cur.Size.LayoutSize() {
			if fallback < core.UpdateHitTesterAndReprocess {
				fallback = core.UpdateHitTesterAndReprocess
			}
		} else if fallback < core.ReRenderCurrentWindow {
			fallback = core.ReRenderCurrentWindow
		}
		if res.ModifiedState.Title != cur.Title {
			win.surface.SetTitle(res.ModifiedState.Title)
		}
		ui.Current = res.ModifiedState
	}

	rep := ui.Tree.ApplyChanges(res.CSSChanged, res.WordsChanged, res.FocusRequest, ui.Current.FocusedNode)
	if rep.FocusChange != nil {
		fc := rep.FocusChange
		ui.Current.FocusedNode = fc.New
		ui.Current.LastHitTest.Focused = fc.New
		a.fireFocusHandler(win, data, fc.Old, core.KindFocusLost, res, rep)
		a.fireFocusHandler(win, data, fc.New, core.KindFocusReceived, res, rep)
	}
	return rep, fallback
}

// fireFocusHandler runs a focus-lost/received handler at the focus
// writeback point. Its dirt folds into the current pass; it cannot
// re-target focus.
func (a *App) fireFocusHandler(win *Window, data any, node layout.NodeID, kind core.EventKind, res *core.CallbackResults, rep *layout.ChangeReport) {
	if node == layout.NoNode {
		return
	}
	cb := win.ui.Callbacks[node][kind]
	if cb == nil {
		return
	}
	fres := core.RunCallback(cb, win.ui.Current, node, data)
	res.Update = res.Update.Merge(fres.Update)
	frep := win.ui.Tree.ApplyChanges(fres.CSSChanged, fres.WordsChanged, nil, win.ui.Current.FocusedNode)
	rep.Merge(frep)
}

// processTimer runs one logical timer fire or, for the shared tick
// timer, polls background tasks and runs completion callbacks.
func (a *App) processTimer(win *Window, st *appState, id task.TimerID) core.DecisionOutcome {
	ui := win.ui

	switch id {
	case task.TickTimerID:
		var done []task.TaskID
		for tid, t := range ui.Tasks {
			if t.Finished() {
				done = append(done, tid)
			}
		}
		outcome := core.DoNothing
		for _, tid := range done {
			t := ui.Tasks[tid]
			res := core.RunCallback(t.OnDone, ui.Current, layout.NoNode, st.data)
			res.TasksRemoved = append(res.TasksRemoved, tid)
			rep, fallback := a.applyCallbackResults(win, st.data, res, core.DoNothing)
			o := core.Decide(ui.Previous, ui.Current, res, rep, false, fallback)
			if o > outcome {
				outcome = o
			}
		}
		return outcome

	case hotReloadTimerID:
		return core.RegenerateDomCurrentWindow

	default:
		entry, ok := ui.Timers[id]
		if !ok {
			// stale fire after removal
			return core.DoNothing
		}
		res := core.RunCallback(entry.Fn, ui.Current, layout.NoNode, st.data)
		rep, fallback := a.applyCallbackResults(win, st.data, res, core.DoNothing)
		return core.Decide(ui.Previous, ui.Current, res, rep, false, fallback)
	}
}

// simulatedMouseMove re-fires hover callbacks right after a DOM
// regeneration: every node under the cursor counts as newly entered.
// A dirtying result rebuilds the list once; it never regenerates again
// from this pass.
func (a *App) simulatedMouseMove(win *Window, data any) {
	ui := win.ui
	cur := ui.Current
	if cur.Mouse.Cursor.State != core.CursorInWindow {
		return
	}

	ht := win.hitTester.Resolve()
	cur.LastHitTest = ht.HitTest(cur.Mouse.Cursor.Pos, cur.FocusedNode)

	nodes := core.SimulatedMouseMove(cur)
	d := core.InputDelta{CursorMoved: true, HoverEntered: nodes.HoverEntered}
	res := core.DispatchCallbacks(nodes, d, ui.Callbacks, cur, data)
	rep, fallback := a.applyCallbackResults(win, data, res, core.DoNothing)
	outcome := core.Decide(ui.Previous, ui.Current, res, rep, false, fallback)
	if outcome >= core.UpdateDisplayListCurrentWindow {
		win.submitList()
		win.refreshHitTester()
	}
}
