package il

import "testing"

func TestInstruction_Equal(t *testing.T) {
	target := New(Ret)
	tests := []struct {
		name string
		a, b *Instruction
		want bool
	}{
		{name: "same int constant", a: LoadInt(5), b: LoadInt(5), want: true},
		{name: "different int constant", a: LoadInt(5), b: LoadInt(6), want: false},
		{name: "same opcode different class", a: LoadLocal(3), b: StoreLocal(3), want: false},
		{name: "real by bit pattern", a: LoadReal(246), b: LoadReal(246), want: true},
		{name: "field owner and name", a: LoadField("Terraria.Main", "x"), b: LoadField("Terraria.Main", "y"), want: false},
		{name: "empty string operand", a: LoadString(""), b: LoadString(""), want: true},
		{name: "branch by identity", a: Branch(Br, target), b: Branch(Br, target), want: true},
		{name: "branch to another instruction", a: Branch(Br, target), b: Branch(Br, New(Ret)), want: false},
		{name: "no operand versus operand", a: New(Ble), b: Branch(Ble, target), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMemberRef_OwnedBy(t *testing.T) {
	ref := MemberRef{Owner: "Terraria.Main", Name: "spriteBatch"}
	for name, want := range map[string]bool{
		"Terraria.Main": true,
		"Main":          true,
		"ain":           false,
		"Terraria":      false,
	} {
		if got := ref.OwnedBy(name); got != want {
			t.Errorf("OwnedBy(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestParseOpCode(t *testing.T) {
	for op := Nop; op < numOpCodes; op++ {
		got, ok := ParseOpCode(op.String())
		if !ok || got != op {
			t.Errorf("ParseOpCode(%q) = %v, %v", op.String(), got, ok)
		}
	}
	if _, ok := ParseOpCode("ldloc.3"); ok {
		t.Errorf("ParseOpCode accepted a short form")
	}
}
