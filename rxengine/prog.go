// Package rxengine is the regex engine the search core treats as an
// external collaborator (spec.md §9): given a pattern, it compiles a
// byte-level program and can then test whether that program matches
// anywhere within an arbitrary byte window, reporting only the end
// offset of the leftmost match (no submatch capture — the core only
// ever needs to know that a window matches, and where it ends, per
// spec.md §4.6).
package rxengine

import "regexp/syntax"

type opcode uint8

const (
	opFail opcode = iota
	opMatch
	opByteRange
	opAlt
	opNop
	opEmptyWidth
)

// inst is one instruction of a compiled program. Unlike regexp/syntax's
// Inst, byte ranges are explicit fields rather than packed into Arg:
// nothing here needs the compactness that packing bought the standard
// library, and explicit fields read better.
type inst struct {
	op     opcode
	out    uint32
	arg    uint32 // second branch for opAlt; syntax.EmptyOp bits for opEmptyWidth
	lo, hi byte
	fold   bool // lo,hi is an ASCII range; also match its opposite case
}

// prog is a compiled byte-level program: a Thompson-construction NFA.
// Compile gives it an explicit ".*?" unanchored prefix, so that running
// it from a single start state finds a match anywhere in the input, not
// only at offset 0 (spec.md §4.6 scans a window looking for a match
// starting anywhere within it); CompileAnchored leaves the prefix out.
type prog struct {
	inst  []inst
	start uint32
}

// patch is a dangling output of a not-yet-connected instruction: either
// its out or arg field, depending on second.
type patch struct {
	pc     uint32
	second bool
}

// frag is a compiled fragment: its entry point and the list of dangling
// outputs still needing to be patched to whatever follows.
type frag struct {
	start uint32
	out   []patch
}

type compiler struct {
	p prog
}

func (c *compiler) emit(i inst) uint32 {
	c.p.inst = append(c.p.inst, i)
	return uint32(len(c.p.inst) - 1)
}

func (c *compiler) patch(ps []patch, target uint32) {
	for _, p := range ps {
		if p.second {
			c.p.inst[p.pc].arg = target
		} else {
			c.p.inst[p.pc].out = target
		}
	}
}

// nop compiles an empty-width, always-succeeding fragment: useful for
// OpEmptyMatch and as the zero case of alternation/concat chains.
func (c *compiler) nop() frag {
	pc := c.emit(inst{op: opNop})
	return frag{start: pc, out: []patch{{pc: pc}}}
}

// fail compiles a fragment that can never match (OpNoMatch).
func (c *compiler) fail() frag {
	pc := c.emit(inst{op: opFail})
	return frag{start: pc}
}

// byteRange compiles a single byte-consuming fragment over [lo,hi].
func (c *compiler) byteRange(lo, hi byte, fold bool) frag {
	pc := c.emit(inst{op: opByteRange, lo: lo, hi: hi, fold: fold})
	return frag{start: pc, out: []patch{{pc: pc}}}
}

// emptyWidth compiles a zero-width assertion fragment.
func (c *compiler) emptyWidth(op syntax.EmptyOp) frag {
	pc := c.emit(inst{op: opEmptyWidth, arg: uint32(op)})
	return frag{start: pc, out: []patch{{pc: pc}}}
}

// cat concatenates a then b: a's outputs feed into b's start.
func (c *compiler) cat(a, b frag) frag {
	if len(a.out) == 0 {
		return a
	}
	c.patch(a.out, b.start)
	return frag{start: a.start, out: b.out}
}

// alt compiles a fragment matching a or b, trying a first (priority
// only matters for which DFA state wins a tie; existence of a match is
// unaffected).
func (c *compiler) alt(a, b frag) frag {
	pc := c.emit(inst{op: opAlt, out: a.start, arg: b.start})
	return frag{start: pc, out: append(append([]patch{}, a.out...), b.out...)}
}

// star compiles e* (greedy): loop back into e after each iteration, or
// skip past it entirely.
func (c *compiler) star(e frag) frag {
	pc := c.emit(inst{op: opAlt, out: e.start})
	c.patch(e.out, pc)
	return frag{start: pc, out: []patch{{pc: pc, second: true}}}
}

// quest compiles e? (greedy).
func (c *compiler) quest(e frag) frag {
	pc := c.emit(inst{op: opAlt, out: e.start})
	return frag{start: pc, out: append(append([]patch{}, e.out...), patch{pc: pc, second: true})}
}
