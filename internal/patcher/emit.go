package patcher

import (
	"github.com/dcrodman/rupeepatch/internal/il"
	"github.com/dcrodman/rupeepatch/internal/image"
	"github.com/dcrodman/rupeepatch/internal/pattern"
)

type emitKind uint8

const (
	emitRaw emitKind = iota
	emitLoadVar
	emitStoreVar
	emitCallHook
	emitLoadField
)

// Emit is one element of a replacement template. Templates are resolved into
// fresh instructions every time a step runs, against the captures made while
// locating that step.
type Emit struct {
	kind    emitKind
	name    string
	owner   string
	op      il.OpCode
	operand il.Operand
}

// Raw emits a fixed instruction.
func Raw(op il.OpCode, operand ...il.Operand) Emit {
	ins := il.New(op, operand...)
	return Emit{kind: emitRaw, op: ins.Op, operand: ins.Operand}
}

func LoadArg(n int) Emit        { return Raw(il.Ldarg, il.Arg(n)) }
func LoadLocal(slot int) Emit   { return Raw(il.Ldloc, il.Var(slot)) }
func StoreLocal(slot int) Emit  { return Raw(il.Stloc, il.Var(slot)) }
func LoadInt(v int64) Emit      { return Raw(il.LdcI4, il.Int(v)) }
func LoadVar(name string) Emit  { return Emit{kind: emitLoadVar, name: name} }
func StoreVar(name string) Emit { return Emit{kind: emitStoreVar, name: name} }

// CallHook calls the descriptor's own replacement function.
func CallHook() Emit { return Emit{kind: emitCallHook} }

// CallNamedHook calls a specific replacement function.
func CallNamedHook(name string) Emit { return Emit{kind: emitCallHook, name: name} }

// LoadField loads an instance field resolved from the module being patched.
func LoadField(owner, name string) Emit {
	return Emit{kind: emitLoadField, owner: owner, name: name}
}

type emitContext struct {
	function string
	hook     string
	vars     pattern.Captures
	module   *image.Module
	registry *Registry
}

func (c *emitContext) slot(name string) (int, error) {
	slot, ok := c.vars[name]
	if !ok {
		return 0, &pattern.VariableNotFound{Function: c.function, Name: name}
	}
	return slot, nil
}

func (c *emitContext) resolve(template []Emit) ([]*il.Instruction, error) {
	out := make([]*il.Instruction, 0, len(template))
	for _, e := range template {
		switch e.kind {
		case emitRaw:
			out = append(out, il.New(e.op, e.operand))
		case emitLoadVar, emitStoreVar:
			slot, err := c.slot(e.name)
			if err != nil {
				return nil, err
			}
			op := il.Ldloc
			if e.kind == emitStoreVar {
				op = il.Stloc
			}
			out = append(out, il.New(op, il.Var(slot)))
		case emitCallHook:
			name := e.name
			if name == "" {
				name = c.hook
			}
			ref, err := c.registry.Resolve(name)
			if err != nil {
				return nil, err
			}
			ref = c.module.ImportMethod(ref)
			out = append(out, il.New(il.Call, il.MemberOperand(il.OperandMethod, ref)))
		case emitLoadField:
			ref, err := c.module.ResolveField(e.owner, e.name)
			if err != nil {
				return nil, err
			}
			out = append(out, il.New(il.Ldfld, il.MemberOperand(il.OperandField, ref)))
		}
	}
	return out, nil
}
