// Package taxtree builds rooted labeled trees from a reconciled taxonomy.
// Sequences become leaves, their lineage prefixes become internal nodes,
// and shared ancestors are created exactly once per build.
package taxtree

// Node is one vertex of a taxonomy tree. Internal nodes carry the lineage
// key of the clade they represent; leaves carry a sequence identifier. The
// synthetic root is tagged rather than labeled so it can never collide
// with a real rank name.
type Node struct {
	Label    string
	Root     bool
	Children []*Node
}

// NewRoot returns the synthetic root of a new tree.
func NewRoot() *Node {
	return &Node{Root: true}
}

// AddChild appends a new child with the given label and returns it.
func (n *Node) AddChild(label string) *Node {
	child := &Node{Label: label}
	n.Children = append(n.Children, child)
	return child
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Walk visits the node and its descendants in preorder.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Leaves returns the leaf nodes in preorder.
func (n *Node) Leaves() []*Node {
	var leaves []*Node
	n.Walk(func(v *Node) {
		if v.IsLeaf() {
			leaves = append(leaves, v)
		}
	})
	return leaves
}

// Size returns the number of nodes in the subtree, including n itself.
func (n *Node) Size() int {
	size := 0
	n.Walk(func(*Node) { size++ })
	return size
}

// Depth returns the number of edges on the longest path from n to a leaf.
func (n *Node) Depth() int {
	deepest := 0
	for _, c := range n.Children {
		if d := c.Depth(); d > deepest {
			deepest = d
		}
	}
	if len(n.Children) == 0 {
		return 0
	}
	return deepest + 1
}

// CollapseUnary splices every internal node that has exactly one child out
// of the tree, attaching the child in its place. Chains collapse fully in
// a single call. The root is kept even when a single child remains, so
// the result is always rooted at the same node.
func CollapseUnary(root *Node) {
	collapseUnder(root)
}

func collapseUnder(n *Node) {
	for i, c := range n.Children {
		for len(c.Children) == 1 {
			c = c.Children[0]
		}
		n.Children[i] = c
		collapseUnder(c)
	}
}
