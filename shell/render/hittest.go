package render

import "github.com/mawren/thicket/shell/layout"

// HitTester is a queryable snapshot mapping points to node ids for one
// display-list generation.
type HitTester struct {
	gen   uint64
	items []hitItem
}

type hitItem struct {
	node       layout.NodeID
	rect       layout.Rect
	cursor     layout.CursorIcon
	scrollable bool
}

// Generation identifies the display-list submission this tester was
// built from. Monotonic per document.
func (h *HitTester) Generation() uint64 { return h.gen }

// HitResult is a full hit test against the current cursor and focus.
type HitResult struct {
	// Hovered lists hit nodes, topmost first.
	Hovered []layout.NodeID
	// ScrollTargets are the hovered nodes that can scroll.
	ScrollTargets []layout.NodeID
	// Cursor is the icon requested by the topmost hit node.
	Cursor  layout.CursorIcon
	Focused layout.NodeID
}

// HitTest queries the snapshot at a logical point. On an empty tester
// (pre-first-display-list) it returns an empty result carrying the
// focus through, it never blocks or fails.
func (h *HitTester) HitTest(p layout.Point, focused layout.NodeID) HitResult {
	res := HitResult{Cursor: layout.CursorDefault, Focused: focused}
	if h == nil {
		return res
	}
	// paint order is back to front; walk in reverse for topmost first
	for i := len(h.items) - 1; i >= 0; i-- {
		it := h.items[i]
		if !it.rect.Contains(p) {
			continue
		}
		res.Hovered = append(res.Hovered, it.node)
		if it.scrollable {
			res.ScrollTargets = append(res.ScrollTargets, it.node)
		}
		if len(res.Hovered) == 1 {
			res.Cursor = it.cursor
		}
	}
	return res
}

// HitTesterRequest is an outstanding asynchronous resolve handle.
type HitTesterRequest struct {
	doc       *document
	targetGen uint64
}

// Resolve blocks until the requested generation's scene has been built
// and returns the queryable tester. It never returns a tester older
// than the most recently submitted display list at request time.
func (r *HitTesterRequest) Resolve() *HitTester {
	d := r.doc
	if d == nil {
		return &HitTester{}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for d.sceneGen < r.targetGen && !d.closed {
		d.cond.Wait()
	}
	return d.scene
}

// AsyncHitTester is the per-window hit-tester cache: either an
// outstanding request or an already-resolved tester. Invalidated by
// re-requesting whenever the display list is resubmitted.
type AsyncHitTester struct {
	req      *HitTesterRequest
	resolved *HitTester
}

func NewAsyncHitTester(req *HitTesterRequest) *AsyncHitTester {
	return &AsyncHitTester{req: req}
}

// Resolve lazily resolves the pending request, caching the result.
func (a *AsyncHitTester) Resolve() *HitTester {
	if a.resolved == nil {
		a.resolved = a.req.Resolve()
	}
	return a.resolved
}

// Refresh replaces the cache with a new pending request.
func (a *AsyncHitTester) Refresh(req *HitTesterRequest) {
	a.req = req
	a.resolved = nil
}
