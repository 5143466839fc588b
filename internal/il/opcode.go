// Package il models the compiled method bodies the patcher works on: opcode
// classes, operands, instructions and the mutable per-method instruction list.
//
// Short and long encodings of the same operation (ldloc.3 / ldloc.s 3,
// ldc.i4.0 / ldc.i4 0) are normalized to a single opcode class carrying an
// explicit operand, so signatures never depend on which encoding a compiler
// happened to pick.
package il

import "fmt"

// OpCode is the operation class of a single instruction, independent of its operand.
type OpCode uint8

// Load and store instructions.
const (
	Nop OpCode = iota
	Ldarg
	Ldloc
	Ldloca
	Stloc
	LdcI4
	LdcR4
	LdcR8
	Ldstr
	Ldnull
	Ldfld
	Ldsfld
	Stfld
	Stsfld
	LdelemRef
	StelemRef
)

// Calls and control flow.
const (
	Call OpCode = StelemRef + 1 + iota
	Callvirt
	Newobj
	Ret
	Br
	Brfalse
	Brtrue
	Beq
	BneUn
	Blt
	Ble
	Bgt
	Bge
)

// Arithmetic, conversion and stack shuffling.
const (
	Add OpCode = Bge + 1 + iota
	Sub
	Mul
	Div
	Rem
	ConvI4
	ConvR4
	ConvU1
	Dup
	Pop

	numOpCodes
)

type opInfo struct {
	name    string
	operand OperandKind
}

var opTable = [numOpCodes]opInfo{
	Nop:       {"nop", OperandNone},
	Ldarg:     {"ldarg", OperandArg},
	Ldloc:     {"ldloc", OperandLocal},
	Ldloca:    {"ldloca", OperandLocal},
	Stloc:     {"stloc", OperandLocal},
	LdcI4:     {"ldc.i4", OperandInt},
	LdcR4:     {"ldc.r4", OperandReal},
	LdcR8:     {"ldc.r8", OperandReal},
	Ldstr:     {"ldstr", OperandString},
	Ldnull:    {"ldnull", OperandNone},
	Ldfld:     {"ldfld", OperandField},
	Ldsfld:    {"ldsfld", OperandField},
	Stfld:     {"stfld", OperandField},
	Stsfld:    {"stsfld", OperandField},
	LdelemRef: {"ldelem.ref", OperandNone},
	StelemRef: {"stelem.ref", OperandNone},
	Call:      {"call", OperandMethod},
	Callvirt:  {"callvirt", OperandMethod},
	Newobj:    {"newobj", OperandMethod},
	Ret:       {"ret", OperandNone},
	Br:        {"br", OperandBranch},
	Brfalse:   {"brfalse", OperandBranch},
	Brtrue:    {"brtrue", OperandBranch},
	Beq:       {"beq", OperandBranch},
	BneUn:     {"bne.un", OperandBranch},
	Blt:       {"blt", OperandBranch},
	Ble:       {"ble", OperandBranch},
	Bgt:       {"bgt", OperandBranch},
	Bge:       {"bge", OperandBranch},
	Add:       {"add", OperandNone},
	Sub:       {"sub", OperandNone},
	Mul:       {"mul", OperandNone},
	Div:       {"div", OperandNone},
	Rem:       {"rem", OperandNone},
	ConvI4:    {"conv.i4", OperandNone},
	ConvR4:    {"conv.r4", OperandNone},
	ConvU1:    {"conv.u1", OperandNone},
	Dup:       {"dup", OperandNone},
	Pop:       {"pop", OperandNone},
}

// Valid reports whether op is a known opcode class.
func (op OpCode) Valid() bool { return op < numOpCodes }

// OperandKind returns the kind of operand instructions of this class carry.
func (op OpCode) OperandKind() OperandKind {
	if !op.Valid() {
		return OperandNone
	}
	return opTable[op].operand
}

// IsBranch reports whether the opcode transfers control to a target instruction.
func (op OpCode) IsBranch() bool { return op.OperandKind() == OperandBranch }

func (op OpCode) String() string {
	if !op.Valid() {
		return fmt.Sprintf("op(%d)", uint8(op))
	}
	return opTable[op].name
}

// ParseOpCode looks up an opcode class by its mnemonic.
func ParseOpCode(name string) (OpCode, bool) {
	for i, info := range opTable {
		if info.name == name {
			return OpCode(i), true
		}
	}
	return 0, false
}
