package rxengine

import (
	"encoding/binary"
	"regexp/syntax"
	"sort"

	"github.com/google/codesearch/sparse"
)

// matcher runs a compiled prog as a byte-at-a-time DFA, caching each
// state's per-byte transitions the first time they are needed. Adapted
// from the classic Thompson-NFA-to-lazy-DFA construction (Russ Cox,
// "Regular Expression Matching: the Virtual Machine Approach"): an
// nstate is a set of live NFA threads plus the flags describing the
// text position between bytes; a dstate is its cached, byte-indexed
// transition table.
type matcher struct {
	prog      *prog
	dstate    map[string]*dstate
	start     *dstate
	startLine *dstate
	z1, z2    nstate
}

type nstate struct {
	q       sparse.Set
	partial rune
	flag    flags
}

type flags uint32

const (
	flagBOL flags = 1 << iota
	flagEOL
	flagBOT
	flagEOT
	flagWord
)

type dstate struct {
	next     [256]*dstate
	enc      string
	matchNL  bool
	matchEOT bool
}

func (z *nstate) enc() string {
	var buf []byte
	var v [10]byte
	last := ^uint32(0)
	n := binary.PutUvarint(v[:], uint64(z.partial))
	buf = append(buf, v[:n]...)
	n = binary.PutUvarint(v[:], uint64(z.flag))
	buf = append(buf, v[:n]...)
	dense := z.q.Dense()
	ids := make([]int, 0, len(dense))
	for _, id := range dense {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	for _, id := range ids {
		n := binary.PutUvarint(v[:], uint64(uint32(id)-last))
		buf = append(buf, v[:n]...)
		last = uint32(id)
	}
	return string(buf)
}

func (z *nstate) dec(s string) {
	b := []byte(s)
	i, n := binary.Uvarint(b)
	if n <= 0 {
		panic("rxengine: corrupt nstate encoding")
	}
	b = b[n:]
	z.partial = rune(i)
	i, n = binary.Uvarint(b)
	if n <= 0 {
		panic("rxengine: corrupt nstate encoding")
	}
	b = b[n:]
	z.flag = flags(i)
	z.q.Reset()
	last := ^uint32(0)
	for len(b) > 0 {
		i, n = binary.Uvarint(b)
		if n <= 0 {
			panic("rxengine: corrupt nstate encoding")
		}
		b = b[n:]
		last += uint32(i)
		z.q.Add(last)
	}
}

var dmatch = dstate{matchNL: true, matchEOT: true}

func init() {
	var z nstate
	dmatch.enc = z.enc()
	for i := range dmatch.next {
		if i != '\n' {
			dmatch.next[i] = &dmatch
		}
	}
}

func (m *matcher) init(p *prog) {
	m.prog = p
	m.dstate = make(map[string]*dstate)

	m.z1.q.Init(uint32(len(p.inst)))
	m.z2.q.Init(uint32(len(p.inst)))

	m.addq(&m.z1.q, p.start, syntax.EmptyBeginLine|syntax.EmptyBeginText)
	m.z1.flag = flagBOL | flagBOT
	m.start = m.cache(&m.z1)

	m.z1.q.Reset()
	m.addq(&m.z1.q, p.start, syntax.EmptyBeginLine)
	m.z1.flag = flagBOL
	m.startLine = m.cache(&m.z1)
}

func (m *matcher) stepEmpty(runq, nextq *sparse.Set, flag syntax.EmptyOp) {
	nextq.Reset()
	for _, id := range runq.Dense() {
		m.addq(nextq, id, flag)
	}
}

func (m *matcher) stepByte(runq, nextq *sparse.Set, c int, flag syntax.EmptyOp) (match bool) {
	nextq.Reset()
	for _, id := range runq.Dense() {
		i := &m.prog.inst[id]
		switch i.op {
		case opMatch:
			match = true
		case opByteRange:
			if c == endText {
				continue
			}
			lo, hi := int(i.lo), int(i.hi)
			matched := lo <= c && c <= hi
			if !matched && i.fold {
				if alt, ok := asciiCaseFold(byte(c)); ok {
					matched = lo <= int(alt) && int(alt) <= hi
				}
			}
			if matched {
				m.addq(nextq, i.out, flag)
			}
		}
	}
	return
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

func (m *matcher) addq(q *sparse.Set, id uint32, flag syntax.EmptyOp) {
	if q.Has(id) {
		return
	}
	q.Add(id)
	i := &m.prog.inst[id]
	switch i.op {
	case opNop:
		m.addq(q, i.out, flag)
	case opAlt:
		m.addq(q, i.out, flag)
		m.addq(q, i.arg, flag)
	case opEmptyWidth:
		if syntax.EmptyOp(i.arg)&^flag == 0 {
			m.addq(q, i.out, flag)
		}
	}
}

const endText = -1

func (m *matcher) computeNext(d *dstate, c int) *dstate {
	this, next := &m.z1, &m.z2
	this.dec(d.enc)

	flag := syntax.EmptyOp(0)
	if this.flag&flagBOL != 0 {
		flag |= syntax.EmptyBeginLine
	}
	if this.flag&flagBOT != 0 {
		flag |= syntax.EmptyBeginText
	}
	if this.flag&flagWord != 0 {
		if !isWordByte(c) {
			flag |= syntax.EmptyWordBoundary
		} else {
			flag |= syntax.EmptyNoWordBoundary
		}
	} else {
		if isWordByte(c) {
			flag |= syntax.EmptyWordBoundary
		} else {
			flag |= syntax.EmptyNoWordBoundary
		}
	}
	if c == '\n' {
		flag |= syntax.EmptyEndLine
	}
	if c == endText {
		flag |= syntax.EmptyEndLine | syntax.EmptyEndText
	}

	m.stepEmpty(&this.q, &next.q, flag)
	this, next = next, this

	flag = 0
	next.flag = 0
	if c == '\n' {
		flag |= syntax.EmptyBeginLine
		next.flag |= flagBOL
	}
	if isWordByte(c) {
		next.flag |= flagWord
	}

	if m.stepByte(&this.q, &next.q, c, flag) {
		return &dmatch
	}
	return m.cache(next)
}

func (m *matcher) cache(z *nstate) *dstate {
	enc := z.enc()
	if d := m.dstate[enc]; d != nil {
		return d
	}
	d := &dstate{enc: enc}
	m.dstate[enc] = d
	d.matchNL = m.computeNext(d, '\n') == &dmatch
	d.matchEOT = m.computeNext(d, endText) == &dmatch
	return d
}

// match scans b for the leftmost match of the program (already compiled
// with the unanchored ".*?" prefix), returning the offset one past the
// match's last byte, or -1 if none is found. beginText and endText tell
// the matcher whether b's first/last byte are the true start/end of the
// enclosing text, for ^/$/\A/\z anchors.
func (m *matcher) match(b []byte, beginText, endText bool) int {
	d := m.startLine
	if beginText {
		d = m.start
	}
	for i, c := range b {
		d1 := d.next[c]
		if d1 == nil {
			if c == '\n' {
				if d.matchNL {
					return i
				}
				d1 = m.startLine
			} else {
				d1 = m.computeNext(d, int(c))
			}
			d.next[c] = d1
		}
		if d1 == &dmatch {
			// The program matched before byte i was consumed.
			return i
		}
		d = d1
	}
	if d.matchNL || endText && d.matchEOT {
		return len(b)
	}
	return -1
}

func isWordByte(c int) bool {
	return 'A' <= c && c <= 'Z' ||
		'a' <= c && c <= 'z' ||
		'0' <= c && c <= '9' ||
		c == '_'
}
