package patcher

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/dcrodman/rupeepatch/internal/il"
	"github.com/dcrodman/rupeepatch/internal/image"
	"github.com/dcrodman/rupeepatch/internal/pattern"
)

// Anchor selects which edge of a match a Locator resolves to.
type Anchor int

const (
	AtStart Anchor = iota
	AtEnd
)

// Locator finds a position in a method body by scanning for a signature.
// Build one with StartOf or EndOf.
type Locator struct {
	checks     pattern.List
	modded     pattern.List
	occurrence int
	last       bool
	anchor     Anchor
	offset     int
}

// StartOf locates the first instruction of the first match.
func StartOf(checks ...pattern.Check) Locator {
	return Locator{checks: checks, occurrence: 1, anchor: AtStart}
}

// EndOf locates the position just past the first match.
func EndOf(checks ...pattern.Check) Locator {
	return Locator{checks: checks, occurrence: 1, anchor: AtEnd}
}

// Nth uses the n-th match instead of the first. Matches may overlap.
func (l Locator) Nth(n int) Locator {
	l.occurrence = n
	return l
}

// Last uses the last match.
func (l Locator) Last() Locator {
	l.last = true
	return l
}

// Plus shifts the located position by n instructions.
func (l Locator) Plus(n int) Locator {
	l.offset = n
	return l
}

// OnModLoader replaces the signature when patching the mod-loader build.
func (l Locator) OnModLoader(checks ...pattern.Check) Locator {
	l.modded = checks
	return l
}

// Checks returns the signature used for variant v.
func (l Locator) Checks(v Variant) pattern.List {
	if v == ModLoader && l.modded != nil {
		return l.modded
	}
	return l.checks
}

func (l Locator) find(body *il.MethodBody, from int, v Variant) (int, *pattern.Match, error) {
	checks := l.Checks(v)
	var (
		m   *pattern.Match
		err error
	)
	switch {
	case l.last:
		m, err = pattern.ScanLast(body, from, checks)
	case l.occurrence > 1:
		m, err = pattern.ScanNthFrom(body, from, l.occurrence, checks)
	default:
		m, err = pattern.Scan(body, from, checks)
	}
	if err != nil {
		return 0, nil, err
	}
	pos := m.Start
	if l.anchor == AtEnd {
		pos = m.End
	}
	return pos + l.offset, m, nil
}

type stepKind int

const (
	stepReplaceRange stepKind = iota
	stepReplaceBody
	stepInsert
	stepCapture
)

// Step is one edit of a method body.
type Step struct {
	kind stepKind
	from Locator
	to   Locator
	emit []Emit
}

// Replace removes everything between from and to, where to is searched for
// starting at from, and emits the template in its place.
func Replace(from, to Locator, emit ...Emit) Step {
	return Step{kind: stepReplaceRange, from: from, to: to, emit: emit}
}

// ReplaceBody discards the whole body and emits the template.
func ReplaceBody(emit ...Emit) Step {
	return Step{kind: stepReplaceBody, emit: emit}
}

// InsertAt emits the template before the located position.
func InsertAt(at Locator, emit ...Emit) Step {
	return Step{kind: stepInsert, from: at, emit: emit}
}

// Capture binds the variables of the located match without editing the body.
// Later steps still search from where the previous edit left off.
func Capture(at Locator) Step {
	return Step{kind: stepCapture, from: at}
}

// Descriptor is the declarative patch of one target method.
type Descriptor struct {
	// Name identifies the patch in logs, e.g. "Main.DrawInventory".
	Name   string
	Type   string
	Method string
	// Hook is the replacement function CallHook emits.
	Hook  string
	Steps []Step
}

// Apply runs the descriptor's steps in order against m. Each step searches
// from where the previous one left off and captures accumulate across steps.
func (d Descriptor) Apply(m *image.Module, v Variant, reg *Registry, log *zap.SugaredLogger) error {
	method, err := m.ResolveMethod(d.Type, d.Method)
	if err != nil {
		return errors.Wrapf(err, "patching %s", d.Name)
	}
	body := method.Body
	if body == nil {
		return errors.Wrapf(image.ErrMethodNotFound, "patching %s: %s has no body", d.Name, method.Ref())
	}

	ctx := &emitContext{
		function: body.Name,
		hook:     d.Hook,
		vars:     pattern.Captures{},
		module:   m,
		registry: reg,
	}
	cursor := 0
	for i, step := range d.Steps {
		var start, end int
		switch step.kind {
		case stepCapture:
			_, match, err := step.from.find(body, cursor, v)
			if err != nil {
				return err
			}
			ctx.merge(match)
			log.Debugw("captured variables",
				"descriptor", d.Name,
				"step", i,
				"start", match.Start,
				"captures", match.Captures,
			)
			continue
		case stepReplaceBody:
			start, end = 0, body.Len()
		case stepReplaceRange:
			pos, match, err := step.from.find(body, cursor, v)
			if err != nil {
				return err
			}
			ctx.merge(match)
			start = pos
			if end, match, err = step.to.find(body, start, v); err != nil {
				return err
			}
			ctx.merge(match)
		case stepInsert:
			pos, match, err := step.from.find(body, cursor, v)
			if err != nil {
				return err
			}
			ctx.merge(match)
			start, end = pos, pos
		}

		ins, err := ctx.resolve(step.emit)
		if err != nil {
			return err
		}
		log.Debugw("rewriting method body",
			"descriptor", d.Name,
			"step", i,
			"start", start,
			"end", end,
			"emitted", len(ins),
		)
		if cursor, err = body.ReplaceRange(start, end, ins); err != nil {
			return errors.Wrapf(err, "patching %s", d.Name)
		}
	}
	return nil
}

func (c *emitContext) merge(m *pattern.Match) {
	for k, v := range m.Captures {
		c.vars[k] = v
	}
}
