package core

import "github.com/mawren/thicket/shell/layout"

// DecisionOutcome is the closed set of next actions after one
// event-processing pass, ordered from cheapest to most expensive.
type DecisionOutcome int

const (
	DoNothing DecisionOutcome = iota
	// repaint the already-submitted scene
	ReRenderCurrentWindow
	// rebuild the retained scene, keep the styled tree
	UpdateDisplayListCurrentWindow
	// geometry changed: refresh the hit-tester, then re-run the
	// decision on the same logical event
	UpdateHitTesterAndReprocess
	RegenerateDomCurrentWindow
	RegenerateDomAllWindows
)

func (d DecisionOutcome) String() string {
	switch d {
	case DoNothing:
		return "DoNothing"
	case ReRenderCurrentWindow:
		return "ReRenderCurrentWindow"
	case UpdateDisplayListCurrentWindow:
		return "UpdateDisplayListCurrentWindow"
	case UpdateHitTesterAndReprocess:
		return "UpdateHitTesterAndReprocess"
	case RegenerateDomCurrentWindow:
		return "RegenerateDomCurrentWindow"
	case RegenerateDomAllWindows:
		return "RegenerateDomAllWindows"
	}
	return "Unknown"
}

// MaxReprocessDepth bounds UpdateHitTesterAndReprocess chains per
// logical event. After a hit-tester refresh geometry is assumed stable
// for the pass; exceeding the guard is a defect to log, never a silent
// infinite loop.
const MaxReprocessDepth = 4

// Decide maps the outcome of one event-processing pass to the next
// action. Pure function; first matching rule wins.
//
// fallback is the outcome staged earlier in the pass from raw
// window-state deltas (a modified-state layout-size change stages
// UpdateHitTesterAndReprocess, any other modified state stages
// ReRenderCurrentWindow); it is returned only when no later rule fires.
// scrolled reports whether a system scroll was applied this pass,
// which happens before the redraw-need check, never after.
func Decide(
	prev, cur *WindowState,
	res *CallbackResults,
	rep *layout.ChangeReport,
	scrolled bool,
	fallback DecisionOutcome,
) DecisionOutcome {

	// 1. the layout callback itself changed identity: everything below
	// is stale
	if cur.LayoutCallbackChanged(prev) {
		return RegenerateDomCurrentWindow
	}

	// 2. explicit screen-update directive from the callbacks
	switch res.Update {
	case UpdateRegenerateCurrentWindow:
		return RegenerateDomCurrentWindow
	case UpdateRegenerateAllWindows:
		return RegenerateDomAllWindows
	}

	// 3..5. incremental style/layout recomputation verdict
	if rep.DidResizeNodes() {
		return UpdateHitTesterAndReprocess
	}
	if rep.NeedRegenerateDisplayList() {
		return UpdateDisplayListCurrentWindow
	}
	if scrolled || rep.NeedRedraw() {
		return ReRenderCurrentWindow
	}

	// 6. preserve the earlier, lower-priority request
	return fallback
}
