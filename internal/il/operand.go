package il

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// OperandKind tags which field of an Operand is meaningful.
type OperandKind uint8

const (
	OperandNone OperandKind = iota
	OperandInt
	OperandReal
	OperandString
	OperandField
	OperandMethod
	OperandLocal
	OperandArg
	OperandBranch
)

var operandKindNames = [...]string{
	OperandNone:   "none",
	OperandInt:    "int",
	OperandReal:   "real",
	OperandString: "string",
	OperandField:  "field",
	OperandMethod: "method",
	OperandLocal:  "local",
	OperandArg:    "arg",
	OperandBranch: "branch",
}

func (k OperandKind) String() string {
	if int(k) < len(operandKindNames) {
		return operandKindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// MemberRef names a field or method by the full name of its owning type and
// the member name, as resolved from the subject binary's own metadata.
type MemberRef struct {
	Owner string
	Name  string
}

// OwnedBy reports whether the reference belongs to typeName, which may be
// either the full type name or the name without its namespace.
func (r MemberRef) OwnedBy(typeName string) bool {
	return r.Owner == typeName || strings.HasSuffix(r.Owner, "."+typeName)
}

func (r MemberRef) String() string { return r.Owner + "::" + r.Name }

// Operand is the tagged union carried by an instruction. Only the field
// selected by Kind is meaningful.
type Operand struct {
	Kind   OperandKind
	Int    int64
	Real   float64
	Str    string
	Member MemberRef
	// Index is the local slot for OperandLocal and the argument index for OperandArg.
	Index int
	// Target is the instruction a branch jumps to.
	Target *Instruction
}

// NoOperand is the operand of instructions that take none.
var NoOperand = Operand{}

func Int(v int64) Operand     { return Operand{Kind: OperandInt, Int: v} }
func Real(v float64) Operand  { return Operand{Kind: OperandReal, Real: v} }
func String(s string) Operand { return Operand{Kind: OperandString, Str: s} }
func Field(owner, name string) Operand {
	return Operand{Kind: OperandField, Member: MemberRef{owner, name}}
}
func Method(owner, name string) Operand {
	return Operand{Kind: OperandMethod, Member: MemberRef{owner, name}}
}
func Var(slot int) Operand                                { return Operand{Kind: OperandLocal, Index: slot} }
func Arg(n int) Operand                                   { return Operand{Kind: OperandArg, Index: n} }
func Target(ins *Instruction) Operand                     { return Operand{Kind: OperandBranch, Target: ins} }
func MemberOperand(kind OperandKind, r MemberRef) Operand { return Operand{Kind: kind, Member: r} }

// Equal reports structural equality. Reals compare by bit pattern and branch
// targets by instruction identity.
func (o Operand) Equal(other Operand) bool {
	if o.Kind != other.Kind {
		return false
	}
	switch o.Kind {
	case OperandNone:
		return true
	case OperandInt:
		return o.Int == other.Int
	case OperandReal:
		return math.Float64bits(o.Real) == math.Float64bits(other.Real)
	case OperandString:
		return o.Str == other.Str
	case OperandField, OperandMethod:
		return o.Member == other.Member
	case OperandLocal, OperandArg:
		return o.Index == other.Index
	case OperandBranch:
		return o.Target == other.Target
	}
	return false
}

func (o Operand) String() string {
	switch o.Kind {
	case OperandInt:
		return strconv.FormatInt(o.Int, 10)
	case OperandReal:
		return strconv.FormatFloat(o.Real, 'g', -1, 64)
	case OperandString:
		return strconv.Quote(o.Str)
	case OperandField, OperandMethod:
		return o.Member.String()
	case OperandLocal:
		return fmt.Sprintf("V_%d", o.Index)
	case OperandArg:
		return fmt.Sprintf("A_%d", o.Index)
	case OperandBranch:
		if o.Target == nil {
			return "<nil>"
		}
		return "-> " + o.Target.Op.String()
	}
	return ""
}
