// Package gametest builds small game modules shaped like the two supported
// executable builds. Method bodies keep only the instructions around each
// patch site, with the local numbering of the real builds, so patches can be
// exercised without the game installed.
package gametest

import (
	"path/filepath"
	"testing"

	"github.com/dcrodman/rupeepatch/internal/il"
	"github.com/dcrodman/rupeepatch/internal/image"
)

const (
	VanillaVersion   = "1.3.5.3"
	ModLoaderVersion = "1.3.5.1"

	Main            = "Terraria.Main"
	Item            = "Terraria.Item"
	ItemText        = "Terraria.ItemText"
	Dust            = "Terraria.Dust"
	Lighting        = "Terraria.Lighting"
	Utils           = "Terraria.Utils"
	LanguageManager = "Terraria.Localization.LanguageManager"
	Color           = "Microsoft.Xna.Framework.Color"
)

// layout holds the local slots that differ between builds.
type layout struct {
	modLoader bool

	reforgeLocals, reforgeCost, reforgeText, reforgeFlag, reforgeX int
	tooltipLocals, storeValue, colorFactor, colorAlpha             int
	dustLocals, dust                                               int
	newTextLocals                                                  int
}

var (
	vanillaLayout = layout{
		reforgeLocals: 110, reforgeCost: 101, reforgeText: 102, reforgeFlag: 99, reforgeX: 98,
		tooltipLocals: 40, storeValue: 33, colorFactor: 9, colorAlpha: 10,
		dustLocals: 6, dust: 3,
		newTextLocals: 8,
	}
	modLoaderLayout = layout{
		modLoader:     true,
		reforgeLocals: 120, reforgeCost: 110, reforgeText: 111, reforgeFlag: 108, reforgeX: 107,
		tooltipLocals: 60, storeValue: 56, colorFactor: 11, colorAlpha: 12,
		dustLocals: 7, dust: 4,
		newTextLocals: 9,
	}
)

// Vanilla returns a module shaped like the unmodified game build.
func Vanilla() *image.Module { return build("Terraria", VanillaVersion, vanillaLayout) }

// ModLoader returns a module shaped like the mod-loader build.
func ModLoader() *image.Module { return build("tModLoader", ModLoaderVersion, modLoaderLayout) }

// WriteModule saves m as name in a fresh temporary directory and returns its path.
func WriteModule(t *testing.T, m *image.Module, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := image.Save(m, path); err != nil {
		t.Fatalf("saving test module: %v", err)
	}
	return path
}

func locals(n int) []il.Local {
	out := make([]il.Local, n)
	for i := range out {
		out[i] = il.Local{Slot: i, Type: "System.Int32"}
	}
	return out
}

func build(name, version string, l layout) *image.Module {
	m := &image.Module{Name: name, Version: version}

	main := m.AddType(Main)
	for _, f := range []string{"spriteBatch", "reforgeItem", "HoverItem", "dust", "itemText", "mouseTextColor"} {
		main.AddField(f, "", true)
	}
	main.AddField("invBottom", "System.Int32", false)
	drawInventory(main, l)
	drawItemTooltip(main, l)
	valueToCoins(main)

	item := m.AddType(Item)
	item.AddField("value", "System.Int32", false)
	item.AddField("shopSpecialCurrency", "System.Int32", false)
	item.AddMethod("GetStoreValue", 0, nil, il.LoadArg(0), il.LoadField(Item, "value"), il.New(il.Ret))

	itemText := m.AddType(ItemText)
	for _, f := range []string{"coinText", "coinValue", "color", "name"} {
		itemText.AddField(f, "", false)
	}
	newText(itemText, l)
	valueToName(itemText)

	dust := m.AddType(Dust)
	dust.AddField("type", "System.Int32", false)
	dust.AddField("position", "Vector2", false)
	if l.modLoader {
		dust.AddField("noLight", "System.Boolean", false)
	}
	updateDust(dust, l)

	m.AddType(Lighting).AddMethod("AddLight", 5, nil, il.New(il.Ret))
	m.AddType(Utils).AddMethod("DrawBorderString", 6, nil, il.New(il.Ret))

	lang := m.AddType(LanguageManager)
	lang.AddField("_localizedTexts", "Dictionary", false)
	lang.AddField("ActiveCulture", "GameCulture", false)
	loadLanguage(lang)
	return m
}

func drawInventory(t *image.Type, l layout) {
	var ins []*il.Instruction
	ins = append(ins,
		il.LoadStaticField(Main, "reforgeItem"),
		il.LoadField(Item, "value"),
		il.StoreLocal(l.reforgeCost),
	)
	if l.modLoader {
		ins = append(ins,
			il.LoadStaticField(Main, "reforgeItem"),
			il.New(il.Ldloca, il.Var(l.reforgeCost)),
			il.CallMethod("Terraria.ModLoader.ItemLoader", "ReforgePrice"),
			il.New(il.Pop),
		)
	}
	skip := il.New(il.Nop)
	ins = append(ins,
		il.LoadLocal(l.reforgeCost),
		il.LoadInt(3),
		il.New(il.Div),
		il.StoreLocal(l.reforgeCost),
		il.LoadString(""),
		il.StoreLocal(l.reforgeText),
		il.LoadInt(0),
		il.StoreLocal(l.reforgeFlag),
		il.LoadLocal(l.reforgeCost),
		il.LoadInt(1000000),
		il.Branch(il.Blt, skip),
		il.LoadLocal(l.reforgeText),
		il.LoadString("platinum"),
		il.CallMethod("System.String", "Concat"),
		il.StoreLocal(l.reforgeText),
		skip,
		il.LoadStaticField(Main, "spriteBatch"),
		il.LoadLocal(l.reforgeX),
		il.LoadInt(130),
		il.New(il.Add),
		il.New(il.ConvR4),
		il.LoadArg(0),
		il.LoadField(Main, "invBottom"),
		il.New(il.ConvR4),
		il.LoadInt(1),
		il.CallMethod(Utils, "DrawBorderString"),
		il.New(il.Ret),
	)
	t.AddMethod("DrawInventory", 0, locals(l.reforgeLocals), ins...)
}

// drawItemTooltip stores the price in a local, takes the special currency
// branch when the item has one and otherwise tests the price again before
// writing the coin lines.
func drawItemTooltip(t *image.Type, l layout) {
	ret := il.New(il.Ret)
	coins := il.LoadStaticField(Main, "HoverItem")
	ins := []*il.Instruction{
		il.LoadStaticField(Main, "HoverItem"),
		il.New(il.Callvirt, il.Method(Item, "GetStoreValue")),
		il.StoreLocal(l.storeValue),
		il.LoadStaticField(Main, "HoverItem"),
		il.LoadField(Item, "shopSpecialCurrency"),
		il.LoadInt(-1),
		il.Branch(il.Beq, coins),
		il.LoadLocal(l.storeValue),
		il.CallMethod("Terraria.UI.CustomCurrencyManager", "GetPriceText"),
		il.Branch(il.Br, ret),
		coins,
		il.New(il.Callvirt, il.Method(Item, "GetStoreValue")),
		il.LoadInt(0),
		il.Branch(il.Ble, ret),
		il.LoadLocal(6),
		il.LoadLocal(5),
		il.LoadString("Sell price: "),
		il.LoadLocal(l.storeValue),
		il.CallMethod("System.String", "Concat"),
		il.New(il.StelemRef),
		il.LoadLocal(5),
		il.LoadInt(1),
		il.New(il.Add),
		il.StoreLocal(5),
		il.New(il.Ldloca, il.Var(0)),
		il.LoadReal(246),
		il.LoadLocal(l.colorFactor),
		il.New(il.Mul),
		il.New(il.ConvU1),
		il.LoadReal(138),
		il.LoadLocal(l.colorFactor),
		il.New(il.Mul),
		il.New(il.ConvU1),
		il.LoadReal(96),
		il.LoadLocal(l.colorFactor),
		il.New(il.Mul),
		il.New(il.ConvU1),
		il.LoadLocal(l.colorAlpha),
		il.CallMethod(Color, ".ctor"),
	}
	if l.modLoader {
		ins = append(ins,
			il.LoadLocal(6),
			il.LoadLocal(5),
			il.CallMethod("Terraria.ModLoader.ItemLoader", "ModifyTooltips"),
		)
	}
	ins = append(ins, ret)
	t.AddMethod("MouseText_DrawItemTooltip", 4, locals(l.tooltipLocals), ins...)
}

func valueToCoins(t *image.Type) {
	t.AddMethod("ValueToCoins", 1, locals(6),
		il.LoadArg(0),
		il.LoadInt(1000000),
		il.New(il.Div),
		il.StoreLocal(0),
		il.LoadString(""),
		il.StoreLocal(5),
		il.LoadLocal(5),
		il.New(il.Ret),
	)
}

func updateDust(t *image.Type, l layout) {
	ret := il.New(il.Ret)
	ins := []*il.Instruction{
		il.LoadStaticField(Main, "dust"),
		il.LoadLocal(2),
		il.New(il.LdelemRef),
		il.StoreLocal(l.dust),
		il.LoadLocal(l.dust),
		il.LoadField(Dust, "type"),
		il.LoadInt(244),
		il.Branch(il.Blt, ret),
		il.LoadLocal(l.dust),
		il.LoadField(Dust, "type"),
		il.LoadInt(247),
		il.Branch(il.Bgt, ret),
	}
	if l.modLoader {
		ins = append(ins,
			il.LoadLocal(l.dust),
			il.LoadField(Dust, "noLight"),
			il.Branch(il.Brtrue, ret),
		)
	}
	ins = append(ins,
		il.LoadLocal(l.dust),
		il.LoadField(Dust, "position"),
		il.LoadReal(0.3),
		il.LoadReal(0.25),
		il.LoadReal(0.05),
		il.CallMethod(Lighting, "AddLight"),
		ret,
	)
	t.AddMethod("UpdateDust", 0, locals(l.dustLocals), ins...)
}

// newText has two coin colour assignments: one on the branch that merges a
// pickup into an existing coin text, one when a new coin text is created.
func newText(t *image.Type, l layout) {
	ret := il.New(il.Ret)
	merged := il.LoadLocal(0)
	created := il.LoadStaticField(Main, "itemText")
	var ins []*il.Instruction
	if l.modLoader {
		ins = append(ins, il.LoadArg(0), il.CallMethod("Terraria.ModLoader.ItemLoader", "OnPickupText"), il.New(il.Pop))
	}
	ins = append(ins,
		il.LoadLocal(0),
		il.Branch(il.Brfalse, merged),
		il.LoadStaticField(Main, "itemText"),
		il.LoadLocal(3),
		il.New(il.LdelemRef),
		il.LoadField(ItemText, "coinText"),
		il.Branch(il.Brfalse, merged),
		il.LoadInt(1),
		il.StoreLocal(4),

		merged,
		il.Branch(il.Brfalse, created),
		il.LoadStaticField(Main, "itemText"),
		il.LoadLocal(2),
		il.New(il.LdelemRef),
		il.LoadField(ItemText, "coinText"),
		il.Branch(il.Brfalse, created),
		il.LoadStaticField(Main, "itemText"),
		il.LoadLocal(2),
		il.New(il.LdelemRef),
		il.LoadArg(1),
		il.New(il.Stfld, il.Field(ItemText, "coinValue")),
		il.LoadStaticField(Main, "itemText"),
		il.LoadLocal(2),
		il.New(il.LdelemRef),
		il.LoadInt(246),
		il.LoadInt(138),
		il.LoadInt(96),
		il.New(il.Newobj, il.Method(Color, ".ctor")),
		il.New(il.Stfld, il.Field(ItemText, "color")),

		created,
		il.LoadLocal(1),
		il.New(il.LdelemRef),
		il.LoadField(ItemText, "coinText"),
		il.Branch(il.Brfalse, ret),
		il.LoadStaticField(Main, "itemText"),
		il.LoadLocal(1),
		il.New(il.LdelemRef),
		il.LoadInt(246),
		il.LoadInt(138),
		il.LoadInt(96),
		il.New(il.Newobj, il.Method(Color, ".ctor")),
		il.New(il.Stfld, il.Field(ItemText, "color")),
		il.New(il.Nop),
		ret,
	)
	t.AddMethod("NewText", 4, locals(l.newTextLocals), ins...)
}

func valueToName(t *image.Type) {
	t.AddMethod("ValueToName", 0, locals(5),
		il.LoadArg(0),
		il.LoadField(ItemText, "coinValue"),
		il.StoreLocal(0),
		il.LoadString(""),
		il.New(il.Ret),
	)
}

func loadLanguage(t *image.Type) {
	load := il.LoadArg(0)
	t.AddMethod("LoadLanguage", 1, locals(1),
		il.LoadArg(1),
		il.Branch(il.Brtrue, load),
		il.New(il.Ret),
		load,
		il.LoadArg(1),
		il.CallMethod(LanguageManager, "LoadFilesForCulture"),
		il.LoadArg(0),
		il.LoadArg(1),
		il.New(il.Stfld, il.Field(LanguageManager, "ActiveCulture")),
		il.New(il.Ret),
	)
}
