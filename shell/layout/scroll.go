package layout

// ScrollStates tracks the scroll offset of every scrollable node.
type ScrollStates map[NodeID]Point

// ScrollResult lists the nodes actually scrolled in one pass and their
// new offsets.
type ScrollResult struct {
	Nodes map[NodeID]Point
}

// ApplySystemScroll distributes a wheel delta onto the given scrollable
// nodes. Returns nil when the delta is zero or no node can scroll.
func (s ScrollStates) ApplySystemScroll(dx, dy float32, targets []NodeID) *ScrollResult {
	if (dx == 0 && dy == 0) || len(targets) == 0 {
		return nil
	}
	res := &ScrollResult{Nodes: make(map[NodeID]Point, len(targets))}
	for _, id := range targets {
		cur := s[id]
		next := Point{X: cur.X + dx, Y: cur.Y + dy}
		s[id] = next
		res.Nodes[id] = next
	}
	return res
}
