// Package layout computes styled trees and box geometry over the
// application's UI-tree description. It is the relayout collaborator of
// the platform shell: the shell decides *when* to restyle, relayout or
// resize, this package does the actual work and reports what changed.
package layout

// StyledNode is one node with resolved style and box geometry.
type StyledNode struct {
	Node  *Node
	Style Style
	Rect  Rect
}

// StyledTree is the in-memory result of styling and laying out a Dom
// at a given viewport size.
type StyledTree struct {
	dom      *Dom
	viewport Size
	root     *StyledNode
	nodes    map[NodeID]*StyledNode
	order    []NodeID // depth-first; later entries paint on top
}

// Build styles and lays out dom at the given viewport size.
// A nil dom yields a usable empty tree.
func Build(dom *Dom, viewport Size) *StyledTree {
	t := &StyledTree{
		dom:      dom,
		viewport: viewport,
		nodes:    make(map[NodeID]*StyledNode),
	}
	if dom != nil && dom.Root != nil {
		t.root = t.build(dom.Root)
	}
	t.solve()
	return t
}

func (t *StyledTree) build(n *Node) *StyledNode {
	sn := &StyledNode{Node: n, Style: n.Style}
	t.nodes[n.ID] = sn
	t.order = append(t.order, n.ID)
	for _, c := range n.Children {
		t.build(c)
	}
	return sn
}

func (t *StyledTree) Viewport() Size            { return t.viewport }
func (t *StyledTree) Root() *StyledNode         { return t.root }
func (t *StyledTree) Get(id NodeID) *StyledNode { return t.nodes[id] }
func (t *StyledTree) Len() int                  { return len(t.order) }

// Walk visits every node in paint order (back to front).
func (t *StyledTree) Walk(f func(*StyledNode)) {
	for _, id := range t.order {
		f(t.nodes[id])
	}
}

// ContentSize is the size the root content wants at an unbounded
// viewport, used for size-to-content windows.
func (t *StyledTree) ContentSize() Size {
	if t.root == nil {
		return Size{}
	}
	return t.measure(t.root.Node, Size{})
}

// QuickResize performs a resize-only relayout at the new viewport and
// returns the ids of nodes whose box geometry changed. Styles are kept.
func (t *StyledTree) QuickResize(viewport Size) []NodeID {
	before := t.snapshotRects()
	t.viewport = viewport
	t.solve()
	return t.diffRects(before)
}

// Relayout recomputes all boxes at the current viewport, returning the
// ids of nodes that moved or resized.
func (t *StyledTree) Relayout() []NodeID {
	before := t.snapshotRects()
	t.solve()
	return t.diffRects(before)
}

func (t *StyledTree) snapshotRects() map[NodeID]Rect {
	m := make(map[NodeID]Rect, len(t.nodes))
	for id, sn := range t.nodes {
		m[id] = sn.Rect
	}
	return m
}

func (t *StyledTree) diffRects(before map[NodeID]Rect) []NodeID {
	var changed []NodeID
	for _, id := range t.order {
		if t.nodes[id].Rect != before[id] {
			changed = append(changed, id)
		}
	}
	return changed
}

// ----- box solver -----

func (t *StyledTree) solve() {
	if t.root == nil {
		return
	}
	w, h := t.resolveAxis(t.root, t.viewport)
	t.place(t.root, Rect{Size: Size{W: w, H: h}})
}

// measure returns the content size a node wants within max (zero = unbounded).
func (t *StyledTree) measure(n *Node, max Size) Size {
	s := t.nodes[n.ID].Style
	inner := Size{
		W: maxv(0, resolveConstraint(max.W)-s.Padding.L-s.Padding.R),
		H: maxv(0, resolveConstraint(max.H)-s.Padding.T-s.Padding.B),
	}

	var mainSum, crossMax float32
	for i, c := range n.Children {
		cs := t.measure(c, inner)
		if s.Direction == Horizontal {
			mainSum += cs.W
			crossMax = maxv(crossMax, cs.H)
		} else {
			mainSum += cs.H
			crossMax = maxv(crossMax, cs.W)
		}
		if i > 0 {
			mainSum += s.Gap
		}
	}

	var content Size
	if s.Direction == Horizontal {
		content = Size{W: mainSum, H: crossMax}
	} else {
		content = Size{W: crossMax, H: mainSum}
	}
	content.W += s.Padding.L + s.Padding.R
	content.H += s.Padding.T + s.Padding.B

	w := content.W
	if s.WidthMode == SizeFixed {
		w = s.Width
	}
	h := content.H
	if s.HeightMode == SizeFixed {
		h = s.Height
	}
	return Size{W: w, H: h}
}

func (t *StyledTree) resolveAxis(sn *StyledNode, avail Size) (float32, float32) {
	s := sn.Style
	content := t.measure(sn.Node, avail)
	w := content.W
	h := content.H
	switch s.WidthMode {
	case SizeFixed:
		w = s.Width
	case SizeExpand:
		w = avail.W
	}
	switch s.HeightMode {
	case SizeFixed:
		h = s.Height
	case SizeExpand:
		h = avail.H
	}
	return clamp(w, 0, resolveConstraint(avail.W)), clamp(h, 0, resolveConstraint(avail.H))
}

func (t *StyledTree) place(sn *StyledNode, rect Rect) {
	sn.Rect = rect
	s := sn.Style
	n := sn.Node
	if len(n.Children) == 0 {
		return
	}

	inner := Rect{
		Origin: Point{X: rect.Origin.X + s.Padding.L, Y: rect.Origin.Y + s.Padding.T},
		Size: Size{
			W: maxv(0, rect.Size.W-s.Padding.L-s.Padding.R),
			H: maxv(0, rect.Size.H-s.Padding.T-s.Padding.B),
		},
	}
	mainIsX := s.Direction == Horizontal

	// first pass: measure fixed/fit children, count expanders
	sizes := make([]Size, len(n.Children))
	var fixedMain float32
	expanders := 0
	for i, c := range n.Children {
		cw, ch := t.resolveAxis(t.nodes[c.ID], inner.Size)
		sizes[i] = Size{W: cw, H: ch}
		cs := t.nodes[c.ID].Style
		mode := cs.HeightMode
		if mainIsX {
			mode = cs.WidthMode
		}
		if mode == SizeExpand {
			expanders++
			continue
		}
		if mainIsX {
			fixedMain += cw
		} else {
			fixedMain += ch
		}
	}
	gapTotal := s.Gap * float32(maxv(0, len(n.Children)-1))

	mainAvail := inner.Size.H
	crossAvail := inner.Size.W
	if mainIsX {
		mainAvail, crossAvail = inner.Size.W, inner.Size.H
	}

	// distribute leftover space among expanders
	if expanders > 0 {
		share := maxv(0, mainAvail-fixedMain-gapTotal) / float32(expanders)
		for i, c := range n.Children {
			cs := t.nodes[c.ID].Style
			if mainIsX && cs.WidthMode == SizeExpand {
				sizes[i].W = share
			} else if !mainIsX && cs.HeightMode == SizeExpand {
				sizes[i].H = share
			}
		}
	}

	var usedMain float32
	for i := range sizes {
		if mainIsX {
			usedMain += sizes[i].W
		} else {
			usedMain += sizes[i].H
		}
	}
	usedMain += gapTotal

	cursor := mainStart(s.MainAlign, mainAvail, usedMain)
	for i, c := range n.Children {
		sz := sizes[i]
		cross := sz.H
		if !mainIsX {
			cross = sz.W
		}
		crossPos := crossStart(s.CrossAlign, crossAvail, cross)
		if s.CrossAlign == Stretch {
			if mainIsX {
				sz.H = crossAvail
			} else {
				sz.W = crossAvail
			}
			crossPos = 0
		}

		var childRect Rect
		if mainIsX {
			childRect = Rect{
				Origin: Point{X: inner.Origin.X + cursor, Y: inner.Origin.Y + crossPos},
				Size:   sz,
			}
			cursor += sz.W + s.Gap
		} else {
			childRect = Rect{
				Origin: Point{X: inner.Origin.X + crossPos, Y: inner.Origin.Y + cursor},
				Size:   sz,
			}
			cursor += sz.H + s.Gap
		}
		t.place(t.nodes[c.ID], childRect)
	}
}

func mainStart(a Align, avail, used float32) float32 {
	free := maxv(0, avail-used)
	switch a {
	case Center:
		return free * 0.5
	case End:
		return free
	}
	return 0
}

func crossStart(a Align, avail, size float32) float32 {
	switch a {
	case Center:
		return (avail - size) * 0.5
	case End:
		return avail - size
	}
	return 0
}
