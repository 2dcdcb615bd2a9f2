package render

import (
	"github.com/mawren/thicket/shell/buffer"
	"github.com/mawren/thicket/shell/layout"
)

// DocumentID identifies one logical document inside the renderer.
type DocumentID uint64

// Epoch tags GPU-side resources for reclamation. Strictly monotonic
// per document: once the frame for epoch N has been composited,
// resources tagged with earlier epochs are safe to free.
type Epoch uint64

// DisplayItem is one retained drawing/hit-testing command.
type DisplayItem struct {
	Node       layout.NodeID
	Rect       layout.Rect // logical units
	Color      [4]float32  // alpha 0 = hit-test only, nothing drawn
	Opacity    float32
	Cursor     layout.CursorIcon
	Scrollable bool
	Text       string
}

// DisplayList is the retained description of what to draw, rebuilt
// whenever styles or geometry change and submitted as part of a
// transaction.
type DisplayList struct {
	Epoch    Epoch // stamped by the renderer on submission
	ViewSize layout.Size
	Items    *buffer.Buffer[DisplayItem]
}

// FromTree encodes a styled tree into a display list in paint order.
func FromTree(tree *layout.StyledTree) *DisplayList {
	list := &DisplayList{
		ViewSize: tree.Viewport(),
		Items:    buffer.WithCapacity[DisplayItem](tree.Len()),
	}
	tree.Walk(func(sn *layout.StyledNode) {
		opacity := sn.Style.Opacity
		if opacity == 0 {
			opacity = 1
		}
		list.Items.Append(DisplayItem{
			Node:       sn.Node.ID,
			Rect:       sn.Rect,
			Color:      sn.Style.Background,
			Opacity:    opacity,
			Cursor:     sn.Style.Cursor,
			Scrollable: sn.Style.Scrollable,
			Text:       sn.Node.Text,
		})
	})
	return list
}

func (l *DisplayList) release() {
	if l != nil {
		l.Items.Release()
	}
}
