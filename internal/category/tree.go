package category

// Tree is an immutable category forest loaded once per session.
type Tree struct {
	roots []Node
}

// NewTree wraps a forest. The slice is deep-copied so later changes by the
// caller cannot leak into the tree.
func NewTree(roots []Node) *Tree {
	return &Tree{roots: cloneNodes(roots)}
}

// Roots returns the level-1 options.
func (t *Tree) Roots() []Node {
	return cloneNodes(t.roots)
}

// Name resolves a single id. See ResolveName.
func (t *Tree) Name(id string) string {
	return ResolveName(t.roots, id)
}

// Path resolves a selection to its display path. See ResolvePath.
func (t *Tree) Path(sel Selection) string {
	return ResolvePath(t.roots, sel)
}

// Level2 returns the children of the root whose id is level1.
// An empty or unknown level1 has no options.
func (t *Tree) Level2(level1 string) []Node {
	if level1 == "" {
		return nil
	}
	for _, n := range t.roots {
		if n.ID == level1 {
			return cloneNodes(n.Children)
		}
	}
	return nil
}

// Level3 returns the children of level2, looked up among the options of level1.
func (t *Tree) Level3(level1, level2 string) []Node {
	if level2 == "" {
		return nil
	}
	for _, n := range t.Level2(level1) {
		if n.ID == level2 {
			return n.Children
		}
	}
	return nil
}

// Walk visits every node in pre-order. Depth starts at 1 for roots.
// Returning false from fn stops the walk.
func (t *Tree) Walk(fn func(depth int, n Node) bool) {
	walk(t.roots, 1, fn)
}

func walk(nodes []Node, depth int, fn func(int, Node) bool) bool {
	for _, n := range nodes {
		if !fn(depth, n) {
			return false
		}
		if !walk(n.Children, depth+1, fn) {
			return false
		}
	}
	return true
}

// DuplicateIDs lists ids that occur more than once, in first-seen order.
// Lookups still resolve to the first occurrence in pre-order.
func (t *Tree) DuplicateIDs() []string {
	seen := make(map[string]int)
	var dups []string
	t.Walk(func(_ int, n Node) bool {
		seen[n.ID]++
		if seen[n.ID] == 2 {
			dups = append(dups, n.ID)
		}
		return true
	})
	return dups
}

func cloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = Node{ID: n.ID, Name: n.Name, Children: cloneNodes(n.Children)}
	}
	return out
}
