package rxengine

import "regexp/syntax"

// compileRegexp compiles the parsed, simplified AST re into c.p,
// returning the fragment whose dangling outputs still need to be
// patched to an opMatch instruction by the caller.
func (c *compiler) compileRegexp(re *syntax.Regexp) frag {
	switch re.Op {
	case syntax.OpNoMatch:
		return c.fail()
	case syntax.OpEmptyMatch:
		return c.nop()
	case syntax.OpLiteral:
		return c.literal(re.Rune, re.Flags&syntax.FoldCase != 0)
	case syntax.OpCharClass:
		return c.charClass(re.Rune)
	case syntax.OpAnyCharNotNL:
		return c.alt(c.byteRange(0x00, '\n'-1, false), c.byteRange('\n'+1, 0xFF, false))
	case syntax.OpAnyChar:
		return c.byteRange(0x00, 0xFF, false)
	case syntax.OpBeginLine:
		return c.emptyWidth(syntax.EmptyBeginLine)
	case syntax.OpEndLine:
		return c.emptyWidth(syntax.EmptyEndLine)
	case syntax.OpBeginText:
		return c.emptyWidth(syntax.EmptyBeginText)
	case syntax.OpEndText:
		return c.emptyWidth(syntax.EmptyEndText)
	case syntax.OpWordBoundary:
		return c.emptyWidth(syntax.EmptyWordBoundary)
	case syntax.OpNoWordBoundary:
		return c.emptyWidth(syntax.EmptyNoWordBoundary)
	case syntax.OpCapture:
		return c.compileRegexp(re.Sub[0])
	case syntax.OpStar:
		return c.star(c.compileRegexp(re.Sub[0]))
	case syntax.OpPlus:
		sub := c.compileRegexp(re.Sub[0])
		return c.cat(sub, c.star(c.compileRegexp(re.Sub[0])))
	case syntax.OpQuest:
		return c.quest(c.compileRegexp(re.Sub[0]))
	case syntax.OpRepeat:
		return c.repeat(re.Sub[0], re.Min, re.Max)
	case syntax.OpConcat:
		return c.concat(re.Sub)
	case syntax.OpAlternate:
		return c.alternate(re.Sub)
	default:
		// Unknown/unsupported op: compile as a dead end rather than
		// risk silently under-matching. Derive (indexkey) already
		// governs which patterns get filtered; here a fail-fast
		// unmatched fragment just means this particular construct
		// never participates in a match, which Compile's caller can
		// treat as an error by checking the overall program never
		// reaches opMatch — simpler to just let it behave as
		// OpNoMatch.
		return c.fail()
	}
}

func (c *compiler) concat(subs []*syntax.Regexp) frag {
	if len(subs) == 0 {
		return c.nop()
	}
	f := c.compileRegexp(subs[0])
	for _, s := range subs[1:] {
		f = c.cat(f, c.compileRegexp(s))
	}
	return f
}

func (c *compiler) alternate(subs []*syntax.Regexp) frag {
	if len(subs) == 0 {
		return c.fail()
	}
	f := c.compileRegexp(subs[0])
	for _, s := range subs[1:] {
		f = c.alt(f, c.compileRegexp(s))
	}
	return f
}

// repeat expands {min,max} by literal unrolling: min mandatory copies,
// followed by (max-min) optional copies, or a trailing star when max is
// unbounded. Compile's program-size ceiling guards against this
// blowing up on pathological bounds.
func (c *compiler) repeat(sub *syntax.Regexp, min, max int) frag {
	if min == 0 && max == -1 {
		return c.star(c.compileRegexp(sub))
	}
	var f frag
	have := false
	for i := 0; i < min; i++ {
		next := c.compileRegexp(sub)
		if !have {
			f, have = next, true
		} else {
			f = c.cat(f, next)
		}
	}
	if max == -1 {
		tail := c.star(c.compileRegexp(sub))
		if !have {
			return tail
		}
		return c.cat(f, tail)
	}
	for i := min; i < max; i++ {
		next := c.quest(c.compileRegexp(sub))
		if !have {
			f, have = next, true
		} else {
			f = c.cat(f, next)
		}
	}
	if !have {
		return c.nop()
	}
	return f
}

func (c *compiler) literal(runes []rune, fold bool) frag {
	if len(runes) == 0 {
		return c.nop()
	}
	f := c.literalRune(runes[0], fold)
	for _, r := range runes[1:] {
		f = c.cat(f, c.literalRune(r, fold))
	}
	return f
}

func (c *compiler) literalRune(r rune, fold bool) frag {
	if r <= max1 {
		b := byte(r)
		return c.byteRange(b, b, fold)
	}
	return c.runeSequence(r, r)
}

func (c *compiler) charClass(pairs []rune) frag {
	var f frag
	have := false
	for i := 0; i+1 < len(pairs); i += 2 {
		lo, hi := pairs[i], pairs[i+1]
		next := c.runeRange(lo, hi)
		if !have {
			f, have = next, true
		} else {
			f = c.alt(f, next)
		}
	}
	if !have {
		return c.fail()
	}
	return f
}

// runeRange compiles the inclusive rune range [lo,hi], splitting at the
// ASCII boundary since ASCII bytes step one-for-one with runes while
// anything beyond it needs UTF-8 sequence expansion.
func (c *compiler) runeRange(lo, hi rune) frag {
	var f frag
	have := false
	if lo <= max1 {
		asciiHi := hi
		if asciiHi > max1 {
			asciiHi = max1
		}
		next := c.byteRange(byte(lo), byte(asciiHi), false)
		f, have = next, true
		lo = max1 + 1
	}
	if lo <= hi {
		next := c.runeSequence(lo, hi)
		if !have {
			f, have = next, true
		} else {
			f = c.alt(f, next)
		}
	}
	if !have {
		return c.fail()
	}
	return f
}

// runeSequence compiles a non-ASCII rune range via UTF-8 byte sequence
// expansion: an alternation of byte-range chains, one per utf8Sequence.
func (c *compiler) runeSequence(lo, hi rune) frag {
	seqs := utf8Ranges(lo, hi)
	var f frag
	have := false
	for _, seq := range seqs {
		next := c.byteSequence(seq)
		if !have {
			f, have = next, true
		} else {
			f = c.alt(f, next)
		}
	}
	if !have {
		return c.fail()
	}
	return f
}

func (c *compiler) byteSequence(seq utf8Sequence) frag {
	f := c.byteRange(seq[0].lo, seq[0].hi, false)
	for _, br := range seq[1:] {
		f = c.cat(f, c.byteRange(br.lo, br.hi, false))
	}
	return f
}
