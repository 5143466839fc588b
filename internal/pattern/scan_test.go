package pattern

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"

	"github.com/dcrodman/rupeepatch/internal/il"
)

func sampleBody() *il.MethodBody {
	return il.NewBody("Terraria.Main.Sample", nil,
		il.LoadLocal(2),
		il.LoadField("Terraria.Main", "x"),
		il.LoadInt(5),
		il.New(il.Ble),
		il.LoadLocal(3),
		il.CallMethod("Terraria.Main", "Foo"),
	)
}

func TestScan(t *testing.T) {
	tests := []struct {
		name   string
		body   *il.MethodBody
		start  int
		checks List
		want   *Match
	}{
		{
			name: "captures a slot and matches literals",
			body: sampleBody(),
			checks: List{
				CaptureVar("a"),
				FieldRef("Main", "x"),
				Literal(il.LoadInt(5)),
				Literal(il.New(il.Ble)),
			},
			want: &Match{Start: 0, End: 4, Captures: Captures{"a": 2}},
		},
		{
			name: "skip runs up to the next check",
			body: sampleBody(),
			checks: List{
				Literal(il.LoadInt(5)),
				SkipIndefinite(),
				Op(il.Call),
			},
			want: &Match{Start: 2, End: 6, Captures: Captures{}},
		},
		{
			name: "skip stops at the nearest follower",
			body: il.NewBody("m", nil,
				il.LoadInt(1), il.New(il.Nop), il.New(il.Ret), il.New(il.Nop), il.New(il.Ret)),
			checks: List{
				Literal(il.LoadInt(1)),
				SkipIndefinite(),
				Op(il.Ret),
			},
			want: &Match{Start: 0, End: 3, Captures: Captures{}},
		},
		{
			name: "skip may consume nothing",
			body: sampleBody(),
			checks: List{
				Literal(il.LoadInt(5)),
				SkipIndefinite(),
				Op(il.Ble),
			},
			want: &Match{Start: 2, End: 4, Captures: Captures{}},
		},
		{
			name: "leading and trailing skips",
			body: sampleBody(),
			checks: List{
				SkipIndefinite(),
				Op(il.Ble),
				SkipIndefinite(),
			},
			want: &Match{Start: 0, End: 4, Captures: Captures{}},
		},
		{
			name:  "respects the start position",
			body:  sampleBody(),
			start: 1,
			checks: List{
				CaptureVar("a").On(il.Ldloc),
			},
			want: &Match{Start: 4, End: 5, Captures: Captures{"a": 3}},
		},
		{
			name: "full owner name",
			body: sampleBody(),
			checks: List{
				MethodRef("Terraria.Main", "Foo").On(il.Call),
			},
			want: &Match{Start: 5, End: 6, Captures: Captures{}},
		},
		{
			name: "captures are reset for every candidate start",
			body: il.NewBody("m", nil, il.LoadLocal(1), il.LoadLocal(2), il.LoadLocal(2)),
			checks: List{
				CaptureVar("a"),
				VarEquals("a"),
			},
			want: &Match{Start: 1, End: 3, Captures: Captures{"a": 2}},
		},
		{
			name: "repeat",
			body: il.NewBody("m", nil, il.New(il.Nop), il.LoadInt(1), il.LoadInt(1), il.LoadInt(1), il.New(il.Ret)),
			checks: List{
				Repeat(Literal(il.LoadInt(1)), 3),
				Op(il.Ret),
			},
			want: &Match{Start: 1, End: 5, Captures: Captures{}},
		},
		{
			name: "repeat of zero consumes nothing",
			body: il.NewBody("m", nil, il.New(il.Nop), il.New(il.Ret)),
			checks: List{
				Repeat(Any(), 0),
				Op(il.Ret),
			},
			want: &Match{Start: 1, End: 2, Captures: Captures{}},
		},
		{
			name:   "empty check list matches at start",
			body:   sampleBody(),
			start:  3,
			checks: List{},
			want:   &Match{Start: 3, End: 3, Captures: Captures{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Scan(tt.body, tt.start, tt.checks)
			if err != nil {
				t.Fatalf("Scan() returned error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(Match{}), ignoreFunction); diff != "" {
				t.Errorf("Scan() generated unexpected match; diff:\n%s", diff)
			}
		})
	}
}

var ignoreFunction = cmp.FilterPath(func(p cmp.Path) bool {
	return p.Last().String() == ".function"
}, cmp.Ignore())

func TestScan_NotFound(t *testing.T) {
	tests := []struct {
		name      string
		start     int
		checks    List
		wantIndex int
	}{
		{
			name: "variable bound to a different slot",
			checks: List{
				CaptureVar("a"),
				Any(),
				Any(),
				Any(),
				VarEquals("a"),
			},
			wantIndex: 4,
		},
		{
			name:      "unbound variable never matches",
			checks:    List{VarEquals("a")},
			wantIndex: 0,
		},
		{
			name: "skip never finds its follower",
			checks: List{
				Literal(il.LoadInt(5)),
				SkipIndefinite(),
				Literal(il.LoadString("x")),
			},
			wantIndex: 2,
		},
		{
			name:      "literal operands must be equal",
			checks:    List{Op(il.Ldfld), Literal(il.LoadInt(6))},
			wantIndex: 1,
		},
		{
			name:      "start past the body",
			start:     7,
			checks:    List{Any()},
			wantIndex: 0,
		},
		{
			name:      "opcode filter",
			checks:    List{FieldRef("Main", "x").On(il.Ldsfld)},
			wantIndex: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Scan(sampleBody(), tt.start, tt.checks)
			var nf *PatternNotFound
			if !errors.As(err, &nf) {
				t.Fatalf("Scan() error = %v, want PatternNotFound", err)
			}
			want := &PatternNotFound{Function: "Terraria.Main.Sample", CheckIndex: tt.wantIndex}
			if diff := cmp.Diff(want, nf); diff != "" {
				t.Errorf("Scan() generated unexpected error; diff:\n%s", diff)
			}
		})
	}
}

func TestScan_SkipDoesNotBacktrack(t *testing.T) {
	// Only the second ret is followed by add; the skip settles on the first.
	body := il.NewBody("m", nil,
		il.LoadInt(1), il.New(il.Ret), il.New(il.Nop), il.New(il.Ret), il.New(il.Add))
	checks := List{
		Literal(il.LoadInt(1)),
		SkipIndefinite(),
		Op(il.Ret),
		Op(il.Add),
	}

	_, err := Scan(body, 0, checks)
	var nf *PatternNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("Scan() error = %v, want PatternNotFound", err)
	}
	if diff := cmp.Diff(&PatternNotFound{Function: "m", CheckIndex: 3}, nf); diff != "" {
		t.Errorf("Scan() generated unexpected error; diff:\n%s", diff)
	}
}

func TestScanNth(t *testing.T) {
	body := il.NewBody("m", nil, il.New(il.Nop), il.New(il.Nop), il.New(il.Nop), il.New(il.Ret))
	checks := List{Op(il.Nop), Op(il.Nop)}

	first, err := Scan(body, 0, checks)
	if err != nil {
		t.Fatalf("Scan() returned error: %v", err)
	}
	nth, err := ScanNth(body, 1, checks)
	if err != nil {
		t.Fatalf("ScanNth(1) returned error: %v", err)
	}
	if diff := cmp.Diff(first, nth, cmp.AllowUnexported(Match{})); diff != "" {
		t.Errorf("ScanNth(1) differs from Scan(0); diff:\n%s", diff)
	}

	second, err := ScanNth(body, 2, checks)
	if err != nil {
		t.Fatalf("ScanNth(2) returned error: %v", err)
	}
	if second.Start != 1 || second.End != 3 {
		t.Errorf("ScanNth(2) = [%d, %d), want overlapping [1, 3)", second.Start, second.End)
	}

	if _, err := ScanNth(body, 3, checks); !errors.HasType(err, (*PatternNotFound)(nil)) {
		t.Errorf("ScanNth(3) error = %v, want PatternNotFound", err)
	}

	from, err := ScanNthFrom(body, 1, 1, checks)
	if err != nil || from.Start != 1 {
		t.Errorf("ScanNthFrom(1, 1) = %+v, %v", from, err)
	}
}

func TestScanLast(t *testing.T) {
	body := il.NewBody("m", nil,
		il.LoadArg(1),
		il.New(il.Ret),
		il.LoadArg(0),
		il.New(il.Ret),
	)
	m, err := ScanLast(body, 0, List{Op(il.Ret)})
	if err != nil {
		t.Fatalf("ScanLast() returned error: %v", err)
	}
	if m.Start != 3 {
		t.Errorf("ScanLast() start = %d, want 3", m.Start)
	}
	if _, err := ScanLast(body, 0, List{Op(il.Call)}); err == nil {
		t.Errorf("ScanLast() found a call in a body without one")
	}
}

func TestMatch_Var(t *testing.T) {
	m, err := Scan(sampleBody(), 0, List{CaptureVar("a")})
	if err != nil {
		t.Fatalf("Scan() returned error: %v", err)
	}
	if slot, err := m.Var("a"); err != nil || slot != 2 {
		t.Errorf("Var(a) = %d, %v; want 2", slot, err)
	}
	_, err = m.Var("b")
	var vnf *VariableNotFound
	if !errors.As(err, &vnf) {
		t.Fatalf("Var(b) error = %v, want VariableNotFound", err)
	}
	if vnf.Name != "b" || vnf.Function != "Terraria.Main.Sample" {
		t.Errorf("Var(b) error = %+v", vnf)
	}
}

func TestRepeatOfSkipPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("Repeat(SkipIndefinite()) did not panic")
		}
	}()
	Repeat(SkipIndefinite(), 2)
}

func TestList_String(t *testing.T) {
	l := List{
		CaptureVar("cost").On(il.Stloc),
		Literal(il.LoadString("")),
		SkipIndefinite(),
		Repeat(Op(il.Mul), 2),
	}
	want := `[CaptureVar(cost).On(stloc), Literal(ldstr ""), SkipIndefinite, Repeat(Op(mul), 2)]`
	if got := l.String(); got != want {
		t.Errorf("String() = %s, want %s", got, want)
	}
}
