package rupee

import (
	"fmt"
	"strings"
)

// Coin values of each denomination in copper.
const (
	CopperValue   = 1
	SilverValue   = 100
	GoldValue     = 10000
	PlatinumValue = 1000000
)

// Coins is a value split into its denominations.
type Coins struct {
	Platinum int
	Gold     int
	Silver   int
	Copper   int
}

// Split breaks value into denominations. Values below one copper are
// treated as one copper.
func Split(value int) Coins {
	if value < 1 {
		value = 1
	}
	return Coins{
		Platinum: value / PlatinumValue,
		Gold:     value % PlatinumValue / GoldValue,
		Silver:   value % GoldValue / SilverValue,
		Copper:   value % SilverValue,
	}
}

// Value is the total in copper.
func (c Coins) Value() int {
	return c.Platinum*PlatinumValue + c.Gold*GoldValue + c.Silver*SilverValue + c.Copper
}

// Plural reports whether the rupee noun following value takes its plural
// form. Only a single coin of one denomination reads as singular.
func Plural(value int) bool {
	switch value {
	case CopperValue, SilverValue, GoldValue, PlatinumValue:
		return false
	}
	return true
}

// Palette maps each coin denomination to the rupee colour that replaces it.
type Palette struct {
	Copper   Color
	Silver   Color
	Gold     Color
	Platinum Color
}

// DefaultPalette is used when no colour configuration is present.
func DefaultPalette() Palette {
	return Palette{Copper: Green, Silver: Blue, Gold: Red, Platinum: Purple}
}

type part struct {
	count int
	color Color
}

// parts lists the non-zero denominations from highest to lowest.
func (p Palette) parts(c Coins) []part {
	var out []part
	for _, pt := range []part{
		{c.Platinum, p.Platinum},
		{c.Gold, p.Gold},
		{c.Silver, p.Silver},
		{c.Copper, p.Copper},
	} {
		if pt.count > 0 {
			out = append(out, pt)
		}
	}
	return out
}

// ColorOf is the colour of the highest non-zero denomination of value.
func (p Palette) ColorOf(value int) Color {
	return p.parts(Split(value))[0].color
}

func noun(value int, title bool) string {
	n := "rupee"
	if Plural(value) {
		n += "s"
	}
	if title {
		return titleCaser.String(n)
	}
	return n
}

// Text renders value the way inline game text shows it, for example
// "2 blue 50 green rupees".
func (p Palette) Text(value int) string {
	var sb strings.Builder
	for _, pt := range p.parts(Split(value)) {
		fmt.Fprintf(&sb, "%d %s ", pt.count, pt.color.Lower())
	}
	sb.WriteString(noun(value, false))
	return sb.String()
}

// Name renders value the way floating pickup text shows it, for example
// "1 Red Rupee".
func (p Palette) Name(value int) string {
	var sb strings.Builder
	for _, pt := range p.parts(Split(value)) {
		fmt.Fprintf(&sb, "%d %s ", pt.count, pt.color)
	}
	sb.WriteString(noun(value, true))
	return sb.String()
}

// Markup renders value with colour tags around each denomination, as shown
// for reforge costs. The noun takes the colour of the lowest denomination.
func (p Palette) Markup(value int) string {
	var sb strings.Builder
	last := Color(0)
	for _, pt := range p.parts(Split(value)) {
		fmt.Fprintf(&sb, "[c/%s:%d %s] ", pt.color.Hex(), pt.count, pt.color.Lower())
		last = pt.color
	}
	fmt.Fprintf(&sb, "[c/%s:%s]", last.Hex(), noun(value, false))
	return sb.String()
}

// Format is Text with the given palette.
func Format(value int, p Palette) string { return p.Text(value) }

// Lifetime is the minimum number of frames pickup text for value stays on
// screen.
func Lifetime(value int) int {
	switch {
	case value >= PlatinumValue:
		return 300
	case value >= GoldValue:
		return 240
	case value >= SilverValue:
		return 180
	default:
		return 120
	}
}

// Light scales a dust particle's light by the colour of its rupee. No
// channel drops below a fifth of its input.
func Light(c Color, r, g, b float64) (float64, float64, float64) {
	const baseline = 0.2
	rgb := c.RGBA()
	scale := func(v float64, ch uint8) float64 {
		f := float64(ch) / 255
		if f < baseline {
			f = baseline
		}
		return v * f
	}
	return scale(r, rgb.R), scale(g, rgb.G), scale(b, rgb.B)
}
