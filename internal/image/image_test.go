package image

import (
	stdbytes "bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/go-test/deep"
	"github.com/google/go-cmp/cmp"

	"github.com/dcrodman/rupeepatch/internal/il"
)

func testModule() *Module {
	m := &Module{Name: "Terraria", Version: "1.3.5.3"}
	main := m.AddType("Terraria.Main")
	main.AddField("spriteBatch", "SpriteBatch", true)
	main.AddField("invBottom", "System.Int32", false)

	ret := il.New(il.Ret)
	main.AddMethod("Sample", 1, []il.Local{{Slot: 0, Type: "System.Int32"}, {Slot: 1, Type: "System.String"}},
		il.LoadArg(0),
		il.Branch(il.Brfalse, ret),
		il.LoadInt(-3),
		il.LoadReal(246),
		il.LoadString("Buy price:"),
		il.LoadStaticField("Terraria.Main", "spriteBatch"),
		il.CallMethod("Terraria.Main", "DrawInventory"),
		il.StoreLocal(1),
		il.New(il.LdelemRef),
		ret,
	)
	main.Methods = append(main.Methods, &Method{Owner: "Terraria.Main", Name: "Extern", Params: 2, Static: true})

	m.AddType("Terraria.Dust").AddField("type", "System.Int32", false)
	m.AddType("Terraria.Localization.LanguageManager")
	m.AddType("ReLogic.Main")
	return m
}

func listings(m *Module) map[string]string {
	out := map[string]string{}
	for _, t := range m.Types {
		for _, mt := range t.Methods {
			if mt.Body != nil {
				out[mt.Body.Name] = mt.Body.Listing()
			}
		}
	}
	return out
}

func TestEncodeDecode(t *testing.T) {
	m := testModule()
	m.LargeAddressAware = true
	m.ImportMethod(il.MemberRef{Owner: "TerrariaRupeeReplacer.CoinReplacer", Name: "OnValueToCoins"})
	if err := MarkPatched(m, Marker{Type: "Terraria.Main", Name: "RupeeReplacerPatched"}); err != nil {
		t.Fatalf("MarkPatched() returned error: %v", err)
	}

	var buf stdbytes.Buffer
	if err := Encode(&buf, m); err != nil {
		t.Fatalf("Encode() returned error: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode() returned error: %v", err)
	}

	if diff := deep.Equal(m, got); diff != nil {
		t.Errorf("Decode() generated unexpected module: %v", diff)
	}
	if diff := cmp.Diff(listings(m), listings(got)); diff != "" {
		t.Errorf("Decode() generated unexpected bodies; diff:\n%s", diff)
	}

	body := got.Types[0].Methods[0].Body
	if body.At(1).Operand.Target != body.At(body.Len()-1) {
		t.Errorf("branch target was not resolved to the decoded ret")
	}
}

func TestDecode_Errors(t *testing.T) {
	var buf stdbytes.Buffer
	if err := Encode(&buf, testModule()); err != nil {
		t.Fatalf("Encode() returned error: %v", err)
	}
	valid := buf.Bytes()

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "bad magic", data: append([]byte("MZ\x90\x00"), valid[4:]...)},
		{name: "bad version", data: append(append([]byte{}, valid[:4]...), append([]byte{9, 0}, valid[6:]...)...)},
		{name: "truncated", data: valid[:len(valid)/2]},
		{name: "trailing bytes", data: append(append([]byte{}, valid...), 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(stdbytes.NewReader(tt.data)); !errors.Is(err, ErrBadImage) {
				t.Errorf("Decode() error = %v, want ErrBadImage", err)
			}
		})
	}
}

func TestEncode_DanglingBranch(t *testing.T) {
	m := &Module{}
	m.AddType("T").AddMethod("M", 0, nil, il.Branch(il.Br, il.New(il.Ret)), il.New(il.Ret))
	if err := Encode(&stdbytes.Buffer{}, m); !errors.Is(err, ErrBadImage) {
		t.Errorf("Encode() error = %v, want ErrBadImage", err)
	}
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Terraria.exe")
	if err := os.WriteFile(path, []byte("old contents"), 0o755); err != nil {
		t.Fatal(err)
	}

	m := testModule()
	if err := Save(m, path); err != nil {
		t.Fatalf("Save() returned error: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if diff := deep.Equal(m, got); diff != nil {
		t.Errorf("Load() generated unexpected module: %v", diff)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("Save() left %d files behind", len(entries))
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Errorf("Save() changed the file mode to %v", info.Mode().Perm())
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.exe")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error = %v, want os.ErrNotExist", err)
	}
}

func TestModule_ResolveType(t *testing.T) {
	m := testModule()
	tests := []struct {
		name    string
		lookup  string
		want    string
		wantErr error
	}{
		{name: "full name", lookup: "Terraria.Dust", want: "Terraria.Dust"},
		{name: "short name", lookup: "LanguageManager", want: "Terraria.Localization.LanguageManager"},
		{name: "full name wins over a clash", lookup: "ReLogic.Main", want: "ReLogic.Main"},
		{name: "ambiguous short name", lookup: "Main", wantErr: ErrAmbiguousType},
		{name: "missing", lookup: "Lighting", wantErr: ErrTypeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.ResolveType(tt.lookup)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ResolveType() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveType() returned error: %v", err)
			}
			if got.Name != tt.want {
				t.Errorf("ResolveType() = %s, want %s", got.Name, tt.want)
			}
		})
	}
}

func TestModule_ResolveMembers(t *testing.T) {
	m := testModule()

	ref, err := m.ResolveField("Dust", "type")
	if err != nil {
		t.Fatalf("ResolveField() returned error: %v", err)
	}
	if diff := cmp.Diff(il.MemberRef{Owner: "Terraria.Dust", Name: "type"}, ref); diff != "" {
		t.Errorf("ResolveField() generated unexpected ref; diff:\n%s", diff)
	}
	if _, err := m.ResolveField("Dust", "noLight"); !errors.Is(err, ErrFieldNotFound) {
		t.Errorf("ResolveField() error = %v, want ErrFieldNotFound", err)
	}

	mt, err := m.ResolveMethod("Terraria.Main", "Sample")
	if err != nil {
		t.Fatalf("ResolveMethod() returned error: %v", err)
	}
	if mt.Body.Name != "Terraria.Main.Sample" || mt.Ref().Owner != "Terraria.Main" {
		t.Errorf("ResolveMethod() = %+v", mt)
	}
	if _, err := m.ResolveMethod("Terraria.Main", "Update"); !errors.Is(err, ErrMethodNotFound) {
		t.Errorf("ResolveMethod() error = %v, want ErrMethodNotFound", err)
	}
	if _, err := m.ResolveMethod("Lighting", "AddLight"); !errors.Is(err, ErrTypeNotFound) {
		t.Errorf("ResolveMethod() error = %v, want ErrTypeNotFound", err)
	}
}

func TestModule_ImportMethod(t *testing.T) {
	m := &Module{}
	ref := il.MemberRef{Owner: "TerrariaRupeeReplacer.CoinReplacer", Name: "OnCoinText"}
	m.ImportMethod(ref)
	m.ImportMethod(ref)
	m.ImportMethod(il.MemberRef{Owner: ref.Owner, Name: "OnCoinText2"})
	if len(m.Imports) != 2 {
		t.Errorf("Imports = %v, want two distinct references", m.Imports)
	}
}
