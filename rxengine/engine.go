package rxengine

import (
	"fmt"
	"regexp/syntax"
)

// maxProgramSize bounds the number of instructions a compiled program
// may contain, restoring the original engine's rejection of
// pathologically expensive patterns (RE2's max_mem ceiling) that spec.md
// leaves to the (abstract) regex engine to enforce.
const maxProgramSize = 100000

// Regexp is a compiled, ready-to-match pattern.
type Regexp struct {
	expr string
	m    matcher
}

// String returns the original pattern text.
func (r *Regexp) String() string { return r.expr }

// Compile parses and compiles pattern (Perl syntax, per spec.md's regex
// dialect) into a Regexp ready for windowed matching. The compiled
// program is implicitly unanchored: Match finds a match starting
// anywhere in the given window, not only at offset 0. Use
// CompileAnchored to additionally pin down where a previously-detected
// match begins (see search/scan.go).
func Compile(pattern string) (*Regexp, error) {
	return compile(pattern, true)
}

// CompileAnchored compiles pattern without the unanchored search prefix:
// Match only succeeds for a match starting at offset 0 of the given
// slice. Pairing an unanchored Regexp (to find where a match ends) with
// its CompileAnchored twin (to pin down where it starts, by sliding the
// anchor forward one byte at a time) is how this package recovers a
// match's start offset despite the DFA only tracking ends natively.
func CompileAnchored(pattern string) (*Regexp, error) {
	return compile(pattern, false)
}

func compile(pattern string, unanchored bool) (*Regexp, error) {
	parsed, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return nil, fmt.Errorf("rxengine: %w", err)
	}
	parsed = parsed.Simplify()

	c := &compiler{}
	// Reserve pc 0 for opFail so that a zero-value patch (the default
	// uint32) never accidentally aliases a real, useful instruction.
	c.emit(inst{op: opFail})

	body := c.compileRegexp(parsed)
	matchPC := c.emit(inst{op: opMatch})
	c.patch(body.out, matchPC)

	if unanchored {
		// Prepend an unanchored ".*?" search prefix: try the pattern
		// now, or consume one byte and loop back and try again.
		loopPC := c.emit(inst{op: opAlt, out: body.start})
		consumePC := c.emit(inst{op: opByteRange, lo: 0x00, hi: 0xFF, out: loopPC})
		c.p.inst[loopPC].arg = consumePC
		c.p.start = loopPC
	} else {
		c.p.start = body.start
	}

	if len(c.p.inst) > maxProgramSize {
		return nil, fmt.Errorf("rxengine: compiled program too large (%d instructions)", len(c.p.inst))
	}

	r := &Regexp{expr: pattern}
	r.m.init(&c.p)
	return r, nil
}

// Match reports the offset one past the end of the leftmost match of r
// within b, or -1 if none exists. beginText should be true only when b's
// first byte is truly the beginning of the enclosing text (so ^ and \A
// anchor correctly); endText should be true only when b's last byte is
// truly the end of the enclosing text (so $ and \z anchor correctly).
// r.Match is safe for concurrent use by multiple goroutines only if no
// call is concurrent with another — callers running searches in
// parallel must give each goroutine its own Regexp (see
// search.Searcher.Search's per-chunk compile).
func (r *Regexp) Match(b []byte, beginText, endText bool) int {
	return r.m.match(b, beginText, endText)
}
