package indexkey

import "testing"

func walk(t *testing.T, k Key, b byte) Key {
	t.Helper()
	if k == nil || k.Empty() {
		t.Fatalf("expected an edge for byte %q, key is empty", b)
	}
	for _, e := range k.Edges() {
		if b >= e.Lo && b <= e.Hi {
			return e.Child
		}
	}
	t.Fatalf("no edge covers byte %q", b)
	return nil
}

func TestDeriveLiteral(t *testing.T) {
	k, err := Derive("foo", DefaultMaxDepth)
	if err != nil {
		t.Fatal(err)
	}
	k = walk(t, k, 'f')
	k = walk(t, k, 'o')
	k = walk(t, k, 'o')
	if k != nil && !k.Empty() {
		t.Fatalf("expected no further edges past the literal's end, got %v", k.Edges())
	}
}

func TestDeriveLiteralCaseFold(t *testing.T) {
	k, err := Derive("(?i)Foo", DefaultMaxDepth)
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range []byte{'f', 'F'} {
		if _, _, ok := findEdge(k, b); !ok {
			t.Fatalf("expected case-folded edge for %q", b)
		}
	}
}

func findEdge(k Key, b byte) (Key, Edge, bool) {
	if k == nil {
		return nil, Edge{}, false
	}
	for _, e := range k.Edges() {
		if b >= e.Lo && b <= e.Hi {
			return e.Child, e, true
		}
	}
	return nil, Edge{}, false
}

func TestDeriveCharClass(t *testing.T) {
	k, err := Derive("[a-c]x", DefaultMaxDepth)
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range []byte{'a', 'b', 'c'} {
		child, _, ok := findEdge(k, b)
		if !ok {
			t.Fatalf("expected edge for %q", b)
		}
		if _, _, ok := findEdge(child, 'x'); !ok {
			t.Fatalf("expected edge for 'x' after %q", b)
		}
	}
	if _, _, ok := findEdge(k, 'd'); ok {
		t.Fatalf("did not expect an edge for 'd'")
	}
}

func TestDeriveAlternationDisjoint(t *testing.T) {
	k, err := Derive("foo|bar", DefaultMaxDepth)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, ok := findEdge(k, 'f'); !ok {
		t.Fatalf("expected edge for 'f'")
	}
	if _, _, ok := findEdge(k, 'b'); !ok {
		t.Fatalf("expected edge for 'b'")
	}
}

func TestDeriveAlternationUnrestrictedBranchFallsBackToUnfiltered(t *testing.T) {
	k, err := Derive("foo|.*", DefaultMaxDepth)
	if err != nil {
		t.Fatal(err)
	}
	if k != nil {
		t.Fatalf("expected an unfiltered (nil) key when one alternation branch is unrestricted, got %v", k)
	}
}

func TestDeriveUnanchoredWildcardIsUnfiltered(t *testing.T) {
	k, err := Derive(".*foo", DefaultMaxDepth)
	if err != nil {
		t.Fatal(err)
	}
	if k != nil {
		t.Fatalf("expected unfiltered key for a leading wildcard, got %v", k)
	}
}

func TestDeriveNonASCIIFallsBackToUnfiltered(t *testing.T) {
	k, err := Derive("héllo", DefaultMaxDepth)
	if err != nil {
		t.Fatal(err)
	}
	// 'h' is ASCII and should still produce a restriction for the first
	// byte; the point of this test is simply that Derive does not error
	// or panic on non-ASCII content.
	if _, _, ok := findEdge(k, 'h'); !ok {
		t.Fatalf("expected edge for leading ASCII byte 'h'")
	}
}

func TestDeriveInvalidPatternErrors(t *testing.T) {
	if _, err := Derive("(unclosed", DefaultMaxDepth); err == nil {
		t.Fatalf("expected an error for an invalid pattern")
	}
}

func TestDeriveDepthZeroUsesDefault(t *testing.T) {
	k1, err := Derive("foo", 0)
	if err != nil {
		t.Fatal(err)
	}
	k2, err := Derive("foo", DefaultMaxDepth)
	if err != nil {
		t.Fatal(err)
	}
	if (k1 == nil) != (k2 == nil) {
		t.Fatalf("depth 0 should behave like DefaultMaxDepth")
	}
}
