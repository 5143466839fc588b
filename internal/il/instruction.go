package il

import "fmt"

// Instruction is a single opcode plus its operand. Opcode and operand are fixed
// once created; the only field a body ever updates in place is a branch target,
// when the instruction it pointed at is removed by a rewrite.
type Instruction struct {
	Op      OpCode
	Operand Operand
}

// New creates an instruction. At most one operand may be given.
func New(op OpCode, operand ...Operand) *Instruction {
	switch len(operand) {
	case 0:
		return &Instruction{Op: op}
	case 1:
		return &Instruction{Op: op, Operand: operand[0]}
	}
	panic(fmt.Sprintf("il.New(%s): %d operands", op, len(operand)))
}

func LoadInt(v int64) *Instruction     { return New(LdcI4, Int(v)) }
func LoadReal(v float64) *Instruction  { return New(LdcR4, Real(v)) }
func LoadString(s string) *Instruction { return New(Ldstr, String(s)) }
func LoadArg(n int) *Instruction       { return New(Ldarg, Arg(n)) }
func LoadLocal(slot int) *Instruction  { return New(Ldloc, Var(slot)) }
func StoreLocal(slot int) *Instruction { return New(Stloc, Var(slot)) }
func LoadField(owner, name string) *Instruction {
	return New(Ldfld, Field(owner, name))
}
func LoadStaticField(owner, name string) *Instruction {
	return New(Ldsfld, Field(owner, name))
}
func CallMethod(owner, name string) *Instruction {
	return New(Call, Method(owner, name))
}
func Branch(op OpCode, target *Instruction) *Instruction {
	return New(op, Target(target))
}

// Equal compares opcode and operand; see Operand.Equal.
func (ins *Instruction) Equal(other *Instruction) bool {
	if ins == nil || other == nil {
		return ins == other
	}
	return ins.Op == other.Op && ins.Operand.Equal(other.Operand)
}

// Clone returns a copy of the instruction. Branch targets are shared.
func (ins *Instruction) Clone() *Instruction {
	c := *ins
	return &c
}

func (ins *Instruction) String() string {
	if ins.Operand.Kind == OperandNone {
		return ins.Op.String()
	}
	return ins.Op.String() + " " + ins.Operand.String()
}
