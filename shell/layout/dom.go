package layout

// Dom is the application's UI-tree description: pure data, produced by
// the app's layout callback and consumed by the styler. Event handlers
// are registered separately by node id, the tree never carries code.
type Dom struct {
	Root *Node
}

type Node struct {
	ID       NodeID
	Style    Style
	Text     string
	Children []*Node
}

// NewNode is a convenience constructor used by builder-style app code.
func NewNode(id NodeID, style Style, children ...*Node) *Node {
	return &Node{ID: id, Style: style, Children: children}
}

func (d *Dom) walk(f func(*Node)) {
	if d == nil || d.Root == nil {
		return
	}
	var rec func(*Node)
	rec = func(n *Node) {
		f(n)
		for _, c := range n.Children {
			rec(c)
		}
	}
	rec(d.Root)
}

// CountNodes returns the number of nodes in the tree.
func (d *Dom) CountNodes() int {
	n := 0
	d.walk(func(*Node) { n++ })
	return n
}
