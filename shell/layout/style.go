package layout

// NodeID identifies one node of the UI tree. Zero means "no node".
type NodeID uint64

const NoNode NodeID = 0

type Axis int

const (
	Horizontal Axis = iota
	Vertical
)

type Align int

const (
	Start Align = iota
	Center
	End
	Stretch
)

type SizeMode int

const (
	SizeFit SizeMode = iota
	SizeFixed
	SizeExpand
)

// CursorIcon is the cursor shape requested by a node's style.
type CursorIcon int

const (
	CursorDefault CursorIcon = iota
	CursorPointer
	CursorText
	CursorCrosshair
	CursorResizeEW
	CursorResizeNS
	CursorNotAllowed
)

// Property names one styleable attribute. Changing a geometry property
// forces relayout; changing a paint property only needs a new display
// list or a repaint.
type Property int

const (
	PropWidth Property = iota
	PropHeight
	PropPadding
	PropGap
	PropBackground
	PropOpacity
	PropCursor
	PropTransform
)

// AffectsGeometry reports whether changing the property can move or
// resize boxes.
func (p Property) AffectsGeometry() bool {
	switch p {
	case PropWidth, PropHeight, PropPadding, PropGap:
		return true
	}
	return false
}

// AffectsDisplayList reports whether the retained scene must be rebuilt
// when the property changes. Transform and opacity changes are applied
// on the already-submitted scene, so they only need a repaint.
func (p Property) AffectsDisplayList() bool {
	switch p {
	case PropBackground, PropCursor:
		return true
	}
	return p.AffectsGeometry()
}

type PropertyChange struct {
	Prop  Property
	Value float32 // geometry/opacity values; paint colors live in Style
}

type Insets struct {
	L, T, R, B float32
}

type Style struct {
	WidthMode  SizeMode
	HeightMode SizeMode
	Width      float32 // for SizeFixed
	Height     float32 // for SizeFixed
	Padding    Insets
	Gap        float32
	Direction  Axis
	MainAlign  Align
	CrossAlign Align
	Background [4]float32 // RGBA, 0..1; alpha 0 = no background
	Opacity    float32
	Cursor     CursorIcon
	Scrollable bool
}
