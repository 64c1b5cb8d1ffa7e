package indexkey

import (
	"regexp/syntax"
	"sort"
)

// DefaultMaxDepth bounds how many bytes of required-prefix structure
// Derive will build before giving up and leaving the rest of the regex
// unfiltered.
const DefaultMaxDepth = 4

// Derive attempts to build an IndexKey approximating the set of byte
// prefixes a match of pattern can start with, to a depth of at most
// maxDepth (DefaultMaxDepth if <= 0). It returns a nil Key — meaning
// "fall back to an unfiltered scan" — whenever it cannot prove a safe
// restriction: Derive must never produce a key that would cause a real
// match to be skipped. A nil error with a nil Key is the normal
// "nothing to filter on" outcome, not a failure; a non-nil error means
// pattern itself failed to compile (spec.md §7's BadInput).
func Derive(pattern string, maxDepth int) (Key, error) {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return nil, err
	}
	re = re.Simplify()
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	n := deriveSeq([]*syntax.Regexp{re}, maxDepth)
	if n.Empty() {
		return nil, nil
	}
	return n, nil
}

// deriveSeq derives the Key for the concatenation subs[0], subs[1], ...,
// consuming up to depth bytes of guaranteed prefix. Each case either
// recognizes a construct that cannot start matching with an empty
// width and descends safely, or gives up and returns an empty node
// (equivalent to "unfiltered from here"), which is always a safe
// (if unhelpful) answer.
func deriveSeq(subs []*syntax.Regexp, depth int) *node {
	if depth <= 0 || len(subs) == 0 {
		return &node{}
	}
	head, rest := subs[0], subs[1:]
	switch head.Op {
	case syntax.OpConcat:
		combined := append(append([]*syntax.Regexp{}, head.Sub...), rest...)
		return deriveSeq(combined, depth)
	case syntax.OpCapture:
		if len(head.Sub) == 1 {
			return deriveSeq(append([]*syntax.Regexp{head.Sub[0]}, rest...), depth)
		}
	case syntax.OpLiteral:
		return deriveLiteralSeq(head.Rune, 0, rest, depth, head.Flags&syntax.FoldCase != 0)
	case syntax.OpCharClass:
		return deriveCharClassThen(head, rest, depth)
	case syntax.OpAlternate:
		return deriveAlternateThen(head.Sub, rest, depth)
	case syntax.OpEmptyMatch, syntax.OpBeginLine, syntax.OpBeginText, syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		return deriveSeq(rest, depth)
	}
	return &node{}
}

// deriveLiteralSeq builds a single-byte-per-level chain for runes[idx:]
// (ASCII only — a non-ASCII rune stops the chain safely, since this
// package does not attempt multi-byte UTF-8 prefix reasoning), then
// continues into rest once the literal is exhausted.
func deriveLiteralSeq(runes []rune, idx int, rest []*syntax.Regexp, depth int, foldCase bool) *node {
	if depth <= 0 {
		return &node{}
	}
	if idx >= len(runes) {
		return deriveSeq(rest, depth)
	}
	r := runes[idx]
	if r > 127 {
		return &node{}
	}
	b := byte(r)
	child := deriveLiteralSeq(runes, idx+1, rest, depth-1, foldCase)
	edges := []Edge{{Lo: b, Hi: b, Child: child}}
	if foldCase {
		if alt, ok := asciiCaseFold(b); ok {
			edges = append(edges, Edge{Lo: alt, Hi: alt, Child: child})
		}
	}
	sortEdges(edges)
	return &node{edges: edges}
}

func asciiCaseFold(b byte) (byte, bool) {
	switch {
	case b >= 'a' && b <= 'z':
		return b - 32, true
	case b >= 'A' && b <= 'Z':
		return b + 32, true
	}
	return 0, false
}

// deriveCharClassThen builds one edge per range of head (which must be
// entirely within the ASCII byte range to be safe), all sharing the same
// continuation derived from rest.
func deriveCharClassThen(head *syntax.Regexp, rest []*syntax.Regexp, depth int) *node {
	if depth <= 0 {
		return &node{}
	}
	for i := 0; i+1 < len(head.Rune); i += 2 {
		if head.Rune[i+1] > 127 {
			return &node{}
		}
	}
	child := deriveSeq(rest, depth-1)
	var edges []Edge
	for i := 0; i+1 < len(head.Rune); i += 2 {
		edges = append(edges, Edge{Lo: byte(head.Rune[i]), Hi: byte(head.Rune[i+1]), Child: child})
	}
	sortEdges(edges)
	return &node{edges: edges}
}

// deriveAlternateThen merges the derived edges of every branch of an
// alternation, each continuing into rest. If any branch cannot produce
// a restriction (its own derivation is empty) — or if branches would
// produce overlapping byte ranges — the whole alternation is left
// unfiltered, since a partial restriction would silently exclude valid
// match positions the un-restricted branch could still match.
func deriveAlternateThen(branches []*syntax.Regexp, rest []*syntax.Regexp, depth int) *node {
	if depth <= 0 {
		return &node{}
	}
	var all []Edge
	for _, s := range branches {
		n := deriveSeq(append([]*syntax.Regexp{s}, rest...), depth)
		if n.Empty() {
			return &node{}
		}
		all = append(all, n.Edges()...)
	}
	sortEdges(all)
	for i := 1; i < len(all); i++ {
		if all[i].Lo <= all[i-1].Hi {
			return &node{}
		}
	}
	return &node{edges: all}
}

func sortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool { return edges[i].Lo < edges[j].Lo })
}
