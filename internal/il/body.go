package il

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	// ErrRange is returned when a rewrite is given bounds outside the body.
	ErrRange = errors.New("instruction range out of bounds")
	// ErrEmptyBody is returned when a rewrite would leave a method with no instructions.
	ErrEmptyBody = errors.New("rewrite leaves an empty method body")
	// ErrDanglingBranch is returned when a rewrite removes the tail of a body
	// that a remaining branch still jumps into.
	ErrDanglingBranch = errors.New("rewrite leaves a branch past the end of the body")
)

// Local is a declared local variable slot. Type is informational only.
type Local struct {
	Slot int
	Type string
}

// MethodBody is the ordered, mutable instruction list of one method.
type MethodBody struct {
	// Name identifies the method in diagnostics, e.g. "Terraria.Main.DrawInventory".
	Name   string
	Locals []Local

	ins []*Instruction
}

func NewBody(name string, locals []Local, ins ...*Instruction) *MethodBody {
	return &MethodBody{Name: name, Locals: locals, ins: append([]*Instruction(nil), ins...)}
}

// Len returns the number of instructions in the body.
func (b *MethodBody) Len() int { return len(b.ins) }

// At returns the instruction at index i.
func (b *MethodBody) At(i int) *Instruction { return b.ins[i] }

// Instructions returns a copy of the instruction list.
func (b *MethodBody) Instructions() []*Instruction {
	return append([]*Instruction(nil), b.ins...)
}

// IndexOf returns the position of ins in the body, or -1.
func (b *MethodBody) IndexOf(ins *Instruction) int {
	for i, in := range b.ins {
		if in == ins {
			return i
		}
	}
	return -1
}

// Append adds instructions to the end of the body.
func (b *MethodBody) Append(ins ...*Instruction) { b.ins = append(b.ins, ins...) }

// ReplaceRange removes the instructions in [start, end) and inserts ins in
// their place, returning the index just past the inserted run. An end past the
// last instruction is clamped. Branches that pointed into the removed range are
// retargeted to the first inserted instruction, or to whatever now follows the
// range when nothing is inserted. Removing the tail without a replacement fails
// with ErrDanglingBranch if any remaining branch points into it.
func (b *MethodBody) ReplaceRange(start, end int, ins []*Instruction) (int, error) {
	if end > len(b.ins) {
		end = len(b.ins)
	}
	if start < 0 || start > end {
		return 0, errors.Wrapf(ErrRange, "%s: replace [%d, %d) of %d instructions", b.Name, start, end, len(b.ins))
	}
	if len(b.ins)-(end-start)+len(ins) == 0 {
		return 0, errors.Wrapf(ErrEmptyBody, "%s", b.Name)
	}

	removed := make(map[*Instruction]struct{}, end-start)
	for _, in := range b.ins[start:end] {
		removed[in] = struct{}{}
	}
	if len(ins) == 0 && end == len(b.ins) && len(removed) > 0 {
		for i, in := range b.ins[:start] {
			if in.Operand.Kind != OperandBranch {
				continue
			}
			if _, ok := removed[in.Operand.Target]; ok {
				return 0, errors.Wrapf(ErrDanglingBranch, "%s: instruction %d jumps into removed [%d, %d)", b.Name, i, start, end)
			}
		}
	}

	out := make([]*Instruction, 0, len(b.ins)-(end-start)+len(ins))
	out = append(out, b.ins[:start]...)
	out = append(out, ins...)
	out = append(out, b.ins[end:]...)
	b.ins = out

	if len(removed) > 0 && start < len(out) {
		to := out[start]
		for _, in := range out {
			if in.Operand.Kind != OperandBranch {
				continue
			}
			if _, ok := removed[in.Operand.Target]; ok {
				in.Operand.Target = to
			}
		}
	}
	return start + len(ins), nil
}

// Insert places ins before position at, returning the index just past them.
func (b *MethodBody) Insert(at int, ins []*Instruction) (int, error) {
	if at < 0 || at > len(b.ins) {
		return 0, errors.Wrapf(ErrRange, "%s: insert at %d of %d instructions", b.Name, at, len(b.ins))
	}
	return b.ReplaceRange(at, at, ins)
}

// Listing renders the body one instruction per line with branch targets
// resolved to indices.
func (b *MethodBody) Listing() string {
	var sb strings.Builder
	for i, in := range b.ins {
		fmt.Fprintf(&sb, "IL_%04d: %s", i, in.Op)
		switch in.Operand.Kind {
		case OperandNone:
		case OperandBranch:
			fmt.Fprintf(&sb, " IL_%04d", b.IndexOf(in.Operand.Target))
		default:
			fmt.Fprintf(&sb, " %s", in.Operand)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
