package patcher

import (
	"github.com/dcrodman/rupeepatch/internal/il"
	p "github.com/dcrodman/rupeepatch/internal/pattern"
)

// coinColor is the constant colour the game gives coin pickup text; both of
// its assignments in ItemText.NewText end the same way.
var coinColor = []p.Check{
	p.Literal(il.LoadInt(246)),
	p.Literal(il.LoadInt(138)),
	p.Literal(il.LoadInt(96)),
	p.Op(il.Newobj),
	p.Op(il.Stfld),
}

// Descriptors returns the patches in the order they are applied.
func Descriptors() []Descriptor {
	return []Descriptor{
		drawInventory(),
		drawItemTooltip(),
		valueToCoins(),
		updateDust(),
		newText(),
		valueToName(),
		loadLanguage(),
	}
}

// drawInventory replaces the reforge cost text built from coin denominations.
func drawInventory() Descriptor {
	return Descriptor{
		Name:   "Main.DrawInventory",
		Type:   "Main",
		Method: "DrawInventory",
		Hook:   OnReforgeCost,
		Steps: []Step{
			Replace(
				StartOf(
					p.Literal(il.LoadInt(3)),
					p.Op(il.Div),
					p.CaptureVar("cost").On(il.Stloc),
					p.Literal(il.LoadString("")),
					p.CaptureVar("text").On(il.Stloc),
					p.Literal(il.LoadInt(0)),
				).Plus(3),
				StartOf(
					p.FieldRef("Main", "spriteBatch").On(il.Ldsfld),
					p.CaptureVar("x").On(il.Ldloc),
					p.Literal(il.LoadInt(130)),
					p.Op(il.Add),
					p.Op(il.ConvR4),
					p.Literal(il.LoadArg(0)),
					p.FieldRef("Main", "invBottom").On(il.Ldfld),
					p.Op(il.ConvR4),
					p.Literal(il.LoadInt(1)),
					p.Op(il.Call),
				),
				LoadVar("cost"),
				CallHook(),
				StoreVar("text"),
			),
		},
	}
}

// drawItemTooltip replaces the shop buy and sell price lines and their colour.
// The price is stored in a local before the special currency check; the
// positive price test that guards the coin lines calls GetStoreValue again.
func drawItemTooltip() Descriptor {
	return Descriptor{
		Name:   "Main.MouseText_DrawItemTooltip",
		Type:   "Main",
		Method: "MouseText_DrawItemTooltip",
		Hook:   OnCoinStoreValue,
		Steps: []Step{
			Capture(StartOf(
				p.Op(il.Ldsfld),
				p.MethodRef("Item", "GetStoreValue").On(il.Callvirt),
				p.CaptureVar("storeValue").On(il.Stloc),
			)),
			Replace(
				EndOf(
					p.Op(il.Ldsfld),
					p.MethodRef("Item", "GetStoreValue").On(il.Callvirt),
					p.Literal(il.LoadInt(0)),
					p.Op(il.Ble),
				),
				EndOf(
					p.Literal(il.LoadReal(246)),
					p.CaptureVar("factor").On(il.Ldloc),
					p.Op(il.Mul),
					p.Op(il.ConvU1),
					p.SkipIndefinite(),
					p.Literal(il.LoadReal(96)),
					p.VarEquals("factor").On(il.Ldloc),
					p.Op(il.Mul),
					p.Op(il.ConvU1),
					p.CaptureVar("alpha").On(il.Ldloc),
					p.Op(il.Call),
				),
				LoadLocal(0),
				LoadLocal(5),
				LoadLocal(6),
				LoadVar("storeValue"),
				CallHook(),
				StoreLocal(0),
				LoadLocal(5),
				LoadInt(1),
				Raw(il.Add),
				StoreLocal(5),
			),
		},
	}
}

// valueToCoins replaces the text of coins dropped on death.
func valueToCoins() Descriptor {
	return Descriptor{
		Name:   "Main.ValueToCoins",
		Type:   "Main",
		Method: "ValueToCoins",
		Hook:   OnValueToCoins,
		Steps:  []Step{ReplaceBody(LoadArg(0), CallHook(), Raw(il.Ret))},
	}
}

// updateDust replaces the light cast by moving coin sparkle dust. The
// mod-loader build checks Dust.noLight before lighting, which must be kept out
// of the replaced range.
func updateDust() Descriptor {
	vanilla := []p.Check{
		p.CaptureVar("dust").On(il.Ldloc),
		p.FieldRef("Dust", "type").On(il.Ldfld),
		p.Literal(il.LoadInt(244)),
		p.Op(il.Blt),
		p.VarEquals("dust").On(il.Ldloc),
		p.FieldRef("Dust", "type").On(il.Ldfld),
		p.Literal(il.LoadInt(247)),
		p.Op(il.Bgt),
	}
	modded := append(append([]p.Check{}, vanilla...),
		p.VarEquals("dust").On(il.Ldloc),
		p.FieldRef("Dust", "noLight").On(il.Ldfld),
		p.Op(il.Brtrue),
	)
	return Descriptor{
		Name:   "Dust.UpdateDust",
		Type:   "Dust",
		Method: "UpdateDust",
		Hook:   OnCoinSparkle,
		Steps: []Step{
			Replace(
				EndOf(vanilla...).OnModLoader(modded...),
				EndOf(p.MethodRef("Lighting", "AddLight").On(il.Call)),
				LoadVar("dust"),
				CallHook(),
			),
		},
	}
}

// newText replaces the coin pickup text colour in both places it is set: when
// a pickup merges into an existing coin text and when a new one is created.
func newText() Descriptor {
	return Descriptor{
		Name:   "ItemText.NewText",
		Type:   "ItemText",
		Method: "NewText",
		Hook:   OnCoinText,
		Steps: []Step{
			Replace(
				EndOf(
					p.CaptureVar("isCoin").On(il.Ldloc),
					p.Op(il.Brfalse),
					p.FieldRef("Main", "itemText").On(il.Ldsfld),
					p.CaptureVar("slot").On(il.Ldloc),
					p.Op(il.LdelemRef),
					p.FieldRef("ItemText", "coinText").On(il.Ldfld),
					p.Op(il.Brfalse),
				).Nth(2),
				EndOf(coinColor...),
				LoadArg(0),
				LoadVar("slot"),
				CallNamedHook(OnCoinText),
				StoreLocal(5),
			),
			Replace(
				EndOf(
					p.FieldRef("Main", "itemText").On(il.Ldsfld),
					p.CaptureVar("index").On(il.Ldloc),
					p.Op(il.LdelemRef),
					p.FieldRef("ItemText", "coinText").On(il.Ldfld),
					p.Op(il.Brfalse),
				),
				EndOf(coinColor...),
				LoadArg(0),
				LoadVar("index"),
				CallNamedHook(OnCoinText2),
			),
		},
	}
}

// valueToName replaces the name of a coin stack shown on pickup.
func valueToName() Descriptor {
	return Descriptor{
		Name:   "ItemText.ValueToName",
		Type:   "ItemText",
		Method: "ValueToName",
		Hook:   OnValueToName,
		Steps:  []Step{ReplaceBody(LoadArg(0), CallHook(), Raw(il.Ret))},
	}
}

// loadLanguage renames the coins in the loaded localization table.
func loadLanguage() Descriptor {
	return Descriptor{
		Name:   "LanguageManager.LoadLanguage",
		Type:   "LanguageManager",
		Method: "LoadLanguage",
		Hook:   OnLoadCoinNames,
		Steps: []Step{
			InsertAt(
				StartOf(p.Op(il.Ret)).Last(),
				LoadArg(0),
				LoadField("LanguageManager", "_localizedTexts"),
				CallHook(),
			),
		},
	}
}
