// Package indexkey implements the regex-to-IndexKey derivation spec.md
// treats as an external, abstract service: given a regex, produce a tree
// of alphabet sub-ranges approximating the set of byte prefixes a match
// may start with. Walking the tree down d levels enumerates the set of
// d-byte prefixes a match can begin with.
package indexkey

// Key is one node of the byte-range trie a filtered suffix-array walk
// descends (spec.md §3, §4.3). A nil Key means "unfiltered": every
// offset in range is a candidate.
type Key interface {
	// Empty reports whether this node has no edges — the walk stops
	// here with no further filtering contribution at this depth.
	Empty() bool
	// Edges returns the node's {[lo,hi] -> child} edges, sorted by Lo
	// and guaranteed non-overlapping.
	Edges() []Edge
}

// Edge is one [Lo,Hi] (inclusive) byte sub-range edge of a Key node.
type Edge struct {
	Lo, Hi byte
	Child  Key
}

// node is the concrete Key implementation Derive builds.
type node struct {
	edges []Edge
}

func (n *node) Empty() bool {
	return n == nil || len(n.edges) == 0
}

func (n *node) Edges() []Edge {
	if n == nil {
		return nil
	}
	return n.edges
}
