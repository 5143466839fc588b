// Package pattern locates structural signatures inside method bodies.
//
// A signature is an ordered List of Checks. Most checks consume exactly one
// instruction; SkipIndefinite consumes zero or more and Repeat consumes a fixed
// run. CaptureVar binds the local slot an instruction refers to under a name so
// later checks (VarEquals) and the rewrite that follows can refer to it.
package pattern

import (
	"fmt"
	"strings"

	"github.com/dcrodman/rupeepatch/internal/il"
)

type kind uint8

const (
	kindLiteral kind = iota
	kindOpCode
	kindAny
	kindField
	kindMethod
	kindCapture
	kindVarEquals
	kindSkip
	kindRepeat
)

// Check is a single predicate over an instruction. The zero value is not useful;
// build checks with the constructors in this package.
type Check struct {
	kind  kind
	op    il.OpCode
	hasOp bool
	want  il.Instruction
	owner string
	name  string
	inner *Check
	count int
}

// List is an ordered signature.
type List []Check

// Literal matches an instruction with exactly the given opcode and operand.
func Literal(ins *il.Instruction) Check {
	return Check{kind: kindLiteral, want: *ins}
}

// Op matches any instruction of the given opcode class regardless of operand.
func Op(op il.OpCode) Check {
	return Check{kind: kindOpCode, op: op, hasOp: true}
}

// Any matches every instruction.
func Any() Check { return Check{kind: kindAny} }

// FieldRef matches an instruction whose operand is the named field. owner may
// be a full or namespace-less type name.
func FieldRef(owner, name string) Check {
	return Check{kind: kindField, owner: owner, name: name}
}

// MethodRef matches an instruction whose operand is the named method.
func MethodRef(owner, name string) Check {
	return Check{kind: kindMethod, owner: owner, name: name}
}

// CaptureVar matches any instruction with a local-slot operand and binds that
// slot to name, overwriting a previous binding.
func CaptureVar(name string) Check {
	return Check{kind: kindCapture, name: name}
}

// VarEquals matches an instruction whose local slot equals the slot already
// bound to name. It fails when name is unbound.
func VarEquals(name string) Check {
	return Check{kind: kindVarEquals, name: name}
}

// SkipIndefinite consumes the fewest instructions (possibly none) that let the
// next check match. The scanner never revisits that choice.
func SkipIndefinite() Check { return Check{kind: kindSkip} }

// Repeat matches c exactly n times in a row.
func Repeat(c Check, n int) Check {
	if c.kind == kindSkip {
		panic("pattern: Repeat of SkipIndefinite")
	}
	if n < 0 {
		panic(fmt.Sprintf("pattern: Repeat count %d", n))
	}
	return Check{kind: kindRepeat, inner: &c, count: n}
}

// On restricts a FieldRef, MethodRef, CaptureVar or VarEquals check to
// instructions of opcode op.
func (c Check) On(op il.OpCode) Check {
	switch c.kind {
	case kindField, kindMethod, kindCapture, kindVarEquals:
	default:
		panic(fmt.Sprintf("pattern: On(%s) applied to %s", op, c))
	}
	c.op, c.hasOp = op, true
	return c
}

func (c Check) opMatches(ins *il.Instruction) bool {
	return !c.hasOp || ins.Op == c.op
}

// test evaluates a single-instruction check, binding captures on success.
func (c Check) test(ins *il.Instruction, vars Captures) bool {
	switch c.kind {
	case kindLiteral:
		return ins.Equal(&c.want)
	case kindOpCode:
		return ins.Op == c.op
	case kindAny:
		return true
	case kindField:
		return c.opMatches(ins) && ins.Operand.Kind == il.OperandField &&
			ins.Operand.Member.Name == c.name && ins.Operand.Member.OwnedBy(c.owner)
	case kindMethod:
		return c.opMatches(ins) && ins.Operand.Kind == il.OperandMethod &&
			ins.Operand.Member.Name == c.name && ins.Operand.Member.OwnedBy(c.owner)
	case kindCapture:
		if !c.opMatches(ins) || ins.Operand.Kind != il.OperandLocal {
			return false
		}
		vars[c.name] = ins.Operand.Index
		return true
	case kindVarEquals:
		if !c.opMatches(ins) || ins.Operand.Kind != il.OperandLocal {
			return false
		}
		slot, ok := vars[c.name]
		return ok && slot == ins.Operand.Index
	}
	return false
}

func (c Check) String() string {
	var s string
	switch c.kind {
	case kindLiteral:
		s = "Literal(" + c.want.String() + ")"
	case kindOpCode:
		return "Op(" + c.op.String() + ")"
	case kindAny:
		return "Any"
	case kindField:
		s = "FieldRef(" + c.owner + "::" + c.name + ")"
	case kindMethod:
		s = "MethodRef(" + c.owner + "::" + c.name + ")"
	case kindCapture:
		s = "CaptureVar(" + c.name + ")"
	case kindVarEquals:
		s = "VarEquals(" + c.name + ")"
	case kindSkip:
		return "SkipIndefinite"
	case kindRepeat:
		return fmt.Sprintf("Repeat(%s, %d)", c.inner, c.count)
	}
	if c.hasOp && c.kind != kindLiteral {
		s += ".On(" + c.op.String() + ")"
	}
	return s
}

func (l List) String() string {
	parts := make([]string, len(l))
	for i, c := range l {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
