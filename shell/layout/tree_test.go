package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func demoDom() *Dom {
	return &Dom{Root: NewNode(1, Style{
		WidthMode:  SizeExpand,
		HeightMode: SizeExpand,
		Direction:  Vertical,
		Gap:        10,
		Padding:    Insets{L: 10, T: 10, R: 10, B: 10},
	},
		NewNode(2, Style{WidthMode: SizeFixed, HeightMode: SizeFixed, Width: 100, Height: 40}),
		NewNode(3, Style{WidthMode: SizeExpand, HeightMode: SizeExpand}),
	)}
}

func TestBuildPlacesChildren(t *testing.T) {
	assert := assert.New(t)

	tr := Build(demoDom(), Size{W: 800, H: 600})

	root := tr.Get(1)
	assert.Equal(Size{W: 800, H: 600}, root.Rect.Size)

	fixed := tr.Get(2)
	assert.Equal(Point{X: 10, Y: 10}, fixed.Rect.Origin)
	assert.Equal(Size{W: 100, H: 40}, fixed.Rect.Size)

	// expander takes the leftover height: 600 - 2*10 padding - 40 - 10 gap
	exp := tr.Get(3)
	assert.InDelta(530, float64(exp.Rect.Size.H), 0.001)
	assert.InDelta(60, float64(exp.Rect.Origin.Y), 0.001)
}

func TestQuickResizeReportsChangedNodes(t *testing.T) {
	assert := assert.New(t)

	tr := Build(demoDom(), Size{W: 800, H: 600})
	changed := tr.QuickResize(Size{W: 1024, H: 600})

	// root and the expanding child change, the fixed child does not
	assert.Contains(changed, NodeID(1))
	assert.Contains(changed, NodeID(3))
	assert.NotContains(changed, NodeID(2))
}

func TestQuickResizeSameSizeIsNoop(t *testing.T) {
	tr := Build(demoDom(), Size{W: 800, H: 600})
	if changed := tr.QuickResize(Size{W: 800, H: 600}); len(changed) != 0 {
		t.Fatalf("expected no geometry changes, got %v", changed)
	}
}

func TestEmptyDom(t *testing.T) {
	tr := Build(nil, Size{W: 100, H: 100})
	if tr.Len() != 0 {
		t.Fatalf("empty dom should have no nodes")
	}
	if changed := tr.QuickResize(Size{W: 50, H: 50}); changed != nil {
		t.Fatalf("resize on empty tree should change nothing")
	}
}

func TestApplyChangesPaintOnly(t *testing.T) {
	assert := assert.New(t)

	tr := Build(demoDom(), Size{W: 800, H: 600})
	rep := tr.ApplyChanges(map[NodeID][]PropertyChange{
		2: {{Prop: PropOpacity, Value: 0.5}},
	}, nil, nil, NoNode)

	assert.False(rep.DidResizeNodes())
	assert.False(rep.NeedRegenerateDisplayList())
	assert.True(rep.NeedRedraw())
}

func TestApplyChangesGeometry(t *testing.T) {
	assert := assert.New(t)

	tr := Build(demoDom(), Size{W: 800, H: 600})
	rep := tr.ApplyChanges(map[NodeID][]PropertyChange{
		2: {{Prop: PropHeight, Value: 80}},
	}, nil, nil, NoNode)

	assert.True(rep.DidResizeNodes())
	assert.True(rep.NeedRegenerateDisplayList())
}

func TestApplyChangesTextRebuildsList(t *testing.T) {
	assert := assert.New(t)

	tr := Build(demoDom(), Size{W: 800, H: 600})
	rep := tr.ApplyChanges(nil, map[NodeID]string{2: "hello"}, nil, NoNode)

	assert.False(rep.DidResizeNodes())
	assert.True(rep.NeedRegenerateDisplayList())
}

func TestApplyChangesFocus(t *testing.T) {
	assert := assert.New(t)

	tr := Build(demoDom(), Size{W: 800, H: 600})
	rep := tr.ApplyChanges(nil, nil, &FocusRequest{Target: 3}, NoNode)

	assert.NotNil(rep.FocusChange)
	assert.Equal(NodeID(3), rep.FocusChange.New)

	// re-requesting the current focus is not a change
	rep = tr.ApplyChanges(nil, nil, &FocusRequest{Target: 3}, 3)
	assert.Nil(rep.FocusChange)
}

func TestSystemScroll(t *testing.T) {
	assert := assert.New(t)

	s := ScrollStates{}
	assert.Nil(s.ApplySystemScroll(0, 0, []NodeID{5}))
	assert.Nil(s.ApplySystemScroll(0, -30, nil))

	res := s.ApplySystemScroll(0, -30, []NodeID{5})
	assert.NotNil(res)
	assert.Equal(Point{X: 0, Y: -30}, s[5])

	res = s.ApplySystemScroll(0, -30, []NodeID{5})
	assert.Equal(Point{X: 0, Y: -60}, res.Nodes[5])
}
