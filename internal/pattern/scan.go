package pattern

import (
	"fmt"

	"github.com/dcrodman/rupeepatch/internal/il"
)

// Captures maps capture names to local slot indices.
type Captures map[string]int

func (c Captures) clone() Captures {
	out := make(Captures, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Match is a successful scan: the window [Start, End) and the slots bound while
// matching it.
type Match struct {
	Start    int
	End      int
	Captures Captures

	function string
}

// Var returns the slot bound to name.
func (m *Match) Var(name string) (int, error) {
	slot, ok := m.Captures[name]
	if !ok {
		return 0, &VariableNotFound{Function: m.function, Name: name}
	}
	return slot, nil
}

type scanner struct {
	body   *il.MethodBody
	checks List
	// deepest is the highest check index any attempt failed on.
	deepest int
}

// Scan returns the leftmost match of checks at or after start. Each candidate
// start gets a fresh capture context.
func Scan(body *il.MethodBody, start int, checks List) (*Match, error) {
	if start < 0 {
		start = 0
	}
	s := &scanner{body: body, checks: checks}
	for cand := start; cand <= body.Len(); cand++ {
		if end, vars, ok := s.attempt(cand); ok {
			return &Match{Start: cand, End: end, Captures: vars, function: body.Name}, nil
		}
	}
	return nil, &PatternNotFound{Function: body.Name, CheckIndex: s.deepest}
}

// ScanNth returns the n-th match counted from the start of the body. Each
// further search begins one past the previous match's start, so matches may
// overlap. ScanNth(body, 1, checks) is Scan(body, 0, checks).
func ScanNth(body *il.MethodBody, n int, checks List) (*Match, error) {
	return ScanNthFrom(body, 0, n, checks)
}

// ScanNthFrom is ScanNth counting from position start.
func ScanNthFrom(body *il.MethodBody, start, n int, checks List) (*Match, error) {
	if n < 1 {
		panic(fmt.Sprintf("pattern: occurrence %d", n))
	}
	from := start
	for i := 1; ; i++ {
		m, err := Scan(body, from, checks)
		if err != nil {
			return nil, err
		}
		if i == n {
			return m, nil
		}
		from = m.Start + 1
	}
}

// ScanLast returns the match with the greatest start position at or after start.
func ScanLast(body *il.MethodBody, start int, checks List) (*Match, error) {
	last, err := Scan(body, start, checks)
	if err != nil {
		return nil, err
	}
	for {
		m, err := Scan(body, last.Start+1, checks)
		if err != nil {
			return last, nil
		}
		last = m
	}
}

func (s *scanner) fail(index int) {
	if index > s.deepest {
		s.deepest = index
	}
}

// attempt matches the whole list anchored at pos.
func (s *scanner) attempt(pos int) (int, Captures, bool) {
	vars := Captures{}
	for ci := 0; ci < len(s.checks); ci++ {
		c := s.checks[ci]
		if c.kind != kindSkip {
			n, ok := s.apply(c, pos, vars)
			if !ok {
				s.fail(ci)
				return 0, nil, false
			}
			pos += n
			continue
		}

		next := ci + 1
		for next < len(s.checks) && s.checks[next].kind == kindSkip {
			next++
		}
		if next == len(s.checks) {
			// A trailing skip consumes nothing.
			break
		}
		found := -1
		for p := pos; p < s.body.Len(); p++ {
			if _, ok := s.apply(s.checks[next], p, vars.clone()); ok {
				found = p
				break
			}
		}
		if found < 0 {
			s.fail(next)
			return 0, nil, false
		}
		pos = found
		ci = next - 1
	}
	return pos, vars, true
}

// apply evaluates one check at pos and returns how many instructions it consumed.
func (s *scanner) apply(c Check, pos int, vars Captures) (int, bool) {
	if c.kind == kindRepeat {
		p := pos
		for i := 0; i < c.count; i++ {
			n, ok := s.apply(*c.inner, p, vars)
			if !ok {
				return 0, false
			}
			p += n
		}
		return p - pos, true
	}
	if pos >= s.body.Len() {
		return 0, false
	}
	if !c.test(s.body.At(pos), vars) {
		return 0, false
	}
	return 1, true
}
