package layout

// FocusRequest asks the shell to move or clear keyboard focus.
type FocusRequest struct {
	Target NodeID
	Clear  bool
}

// FocusChange records a focus transition discovered during incremental
// recomputation. The shell writes New back into the window state.
type FocusChange struct {
	Old, New NodeID
}

// ChangeReport is the result of incremental style/layout recomputation
// restricted to the nodes implicated by one event-processing pass.
type ChangeReport struct {
	Resized     []NodeID // box geometry changed: hit-tester is stale
	RebuildList bool     // retained scene must be rebuilt
	Redraw      bool     // visual-only change, repaint is enough
	FocusChange *FocusChange
}

// Merge folds another report's dirt into this one. Focus changes do
// not merge; the caller resolves those.
func (r *ChangeReport) Merge(o *ChangeReport) {
	if o == nil {
		return
	}
	r.Resized = append(r.Resized, o.Resized...)
	r.RebuildList = r.RebuildList || o.RebuildList
	r.Redraw = r.Redraw || o.Redraw
}

func (r *ChangeReport) DidResizeNodes() bool { return r != nil && len(r.Resized) > 0 }

func (r *ChangeReport) NeedRegenerateDisplayList() bool { return r != nil && r.RebuildList }

func (r *ChangeReport) NeedRedraw() bool { return r != nil && r.Redraw }

// ApplyChanges applies per-node CSS property changes and text changes,
// relayouts what is necessary and reports what the shell must rebuild.
// focusedNode is the currently focused node; req is an optional focus
// change request from a callback.
func (t *StyledTree) ApplyChanges(
	css map[NodeID][]PropertyChange,
	words map[NodeID]string,
	req *FocusRequest,
	focusedNode NodeID,
) *ChangeReport {

	rep := &ChangeReport{}

	needRelayout := false
	for id, changes := range css {
		sn := t.nodes[id]
		if sn == nil {
			continue
		}
		for _, ch := range changes {
			applyProperty(&sn.Style, ch)
			if ch.Prop.AffectsGeometry() {
				needRelayout = true
			} else if ch.Prop.AffectsDisplayList() {
				rep.RebuildList = true
			} else {
				rep.Redraw = true
			}
		}
	}

	for id, text := range words {
		sn := t.nodes[id]
		if sn == nil || sn.Node.Text == text {
			continue
		}
		sn.Node.Text = text
		// text runs feed the display list; box sizes are style-driven
		// here, so no relayout
		rep.RebuildList = true
	}

	if needRelayout {
		rep.Resized = t.Relayout()
		if len(rep.Resized) > 0 {
			rep.RebuildList = true
		}
	}

	if req != nil {
		next := req.Target
		if req.Clear {
			next = NoNode
		}
		if next != focusedNode {
			rep.FocusChange = &FocusChange{Old: focusedNode, New: next}
			rep.Redraw = true
		}
	}

	return rep
}

func applyProperty(s *Style, ch PropertyChange) {
	switch ch.Prop {
	case PropWidth:
		s.WidthMode = SizeFixed
		s.Width = ch.Value
	case PropHeight:
		s.HeightMode = SizeFixed
		s.Height = ch.Value
	case PropPadding:
		s.Padding = Insets{L: ch.Value, T: ch.Value, R: ch.Value, B: ch.Value}
	case PropGap:
		s.Gap = ch.Value
	case PropOpacity:
		s.Opacity = ch.Value
	case PropBackground:
		// value is a packed grayscale intensity; full colors are set
		// through the style when the tree is rebuilt
		s.Background = [4]float32{ch.Value, ch.Value, ch.Value, 1}
	case PropCursor:
		s.Cursor = CursorIcon(ch.Value)
	case PropTransform:
		// applied GPU-side, nothing to do here
	}
}
