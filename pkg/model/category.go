// Package model defines the core data types shared across tulipaviz:
// category metadata, the category forest, and per-panel chart configuration.
package model

// RootLevel is the level value marking a top-level category row.
// Rows at this level name a whole dimension ("location", "technology")
// rather than a selectable entry inside one.
const RootLevel = -1

// CategoryRow is one row of the category metadata table as stored in a
// result database. Rows are flat; hierarchy is expressed through ParentID.
type CategoryRow struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	ParentID int    `json:"parent_id"`
	Level    int    `json:"level"`
}

// IsRoot reports whether the row declares itself a top-level category.
func (r CategoryRow) IsRoot() bool {
	return r.Level == RootLevel
}

// CategoryNode is one node of the built category forest. Nodes are
// immutable after Build: selection state lives outside the forest, so a
// single forest instance can be shared by every panel pointed at the
// same database.
type CategoryNode struct {
	Key      int
	Label    string
	Children []*CategoryNode
}

// IsLeaf reports whether the node has no children.
func (n *CategoryNode) IsLeaf() bool {
	return len(n.Children) == 0
}

// Walk visits the node and its whole subtree depth-first in child order.
// Returning false from fn stops the walk early.
func (n *CategoryNode) Walk(fn func(*CategoryNode) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, child := range n.Children {
		if !child.Walk(fn) {
			return false
		}
	}
	return true
}

// Leaves returns the keys of all leaf nodes reachable from the node,
// including the node itself when it is a leaf.
func (n *CategoryNode) Leaves() []int {
	var leaves []int
	n.Walk(func(node *CategoryNode) bool {
		if node.IsLeaf() {
			leaves = append(leaves, node.Key)
		}
		return true
	})
	return leaves
}

// Forest is the built category hierarchy for one database: one tree per
// top-level category name, plus flat lookups for key resolution. Every
// key is unique across the whole forest.
type Forest struct {
	// Roots maps the top-level category name to its tree.
	Roots map[string]*CategoryNode
	// RootNames preserves the order in which roots appeared in the
	// source rows; map iteration order would reshuffle the UI.
	RootNames []string
	// Nodes maps every key in the forest to its node.
	Nodes map[int]*CategoryNode

	rootOf map[int]string
}

// NewForest returns an empty forest ready for the builder to populate.
func NewForest() *Forest {
	return &Forest{
		Roots:  make(map[string]*CategoryNode),
		Nodes:  make(map[int]*CategoryNode),
		rootOf: make(map[int]string),
	}
}

// Empty reports whether the forest has no roots. An empty forest is the
// legitimate "database has no category metadata" state, not an error.
func (f *Forest) Empty() bool {
	return f == nil || len(f.Roots) == 0
}

// Node returns the node for a key, or nil if the key is unknown.
// Callers must treat unknown keys as stale widget state, never as a bug
// in the forest.
func (f *Forest) Node(key int) *CategoryNode {
	if f == nil {
		return nil
	}
	return f.Nodes[key]
}

// AddRoot installs a tree under the given top-level name and records
// root membership for every node in it. Used only by the builder.
func (f *Forest) AddRoot(name string, root *CategoryNode) {
	if _, exists := f.Roots[name]; !exists {
		f.RootNames = append(f.RootNames, name)
	}
	f.Roots[name] = root
	root.Walk(func(n *CategoryNode) bool {
		f.Nodes[n.Key] = n
		f.rootOf[n.Key] = name
		return true
	})
}

// Index records a node in the flat lookup without installing it as a
// root. Used only by the builder during pass one.
func (f *Forest) Index(n *CategoryNode) {
	f.Nodes[n.Key] = n
}

// AssignRoot records which top-level name a key belongs to. Used only by
// the builder after linking.
func (f *Forest) AssignRoot(key int, name string) {
	f.rootOf[key] = name
}

// RootNameOf returns the top-level category name a key belongs to, and
// whether the key is known.
func (f *Forest) RootNameOf(key int) (string, bool) {
	if f == nil {
		return "", false
	}
	name, ok := f.rootOf[key]
	return name, ok
}

// IsRootNode reports whether the key identifies one of the forest roots.
func (f *Forest) IsRootNode(key int) bool {
	if f == nil {
		return false
	}
	name, ok := f.rootOf[key]
	if !ok {
		return false
	}
	return f.Roots[name] != nil && f.Roots[name].Key == key
}

// Root returns the root node for a top-level category name, or nil.
func (f *Forest) Root(name string) *CategoryNode {
	if f == nil {
		return nil
	}
	return f.Roots[name]
}
