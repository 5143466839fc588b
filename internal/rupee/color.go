// Package rupee holds the semantics of the replacement functions the patched
// game calls: coin values are split into denominations and rendered as
// coloured rupee text.
package rupee

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrUnknownColor is returned when a name does not match any rupee colour.
var ErrUnknownColor = errors.New("unknown rupee colour")

// Color is one of the rupee sprite colours.
type Color uint8

const (
	Green Color = iota
	Blue
	Yellow
	Red
	Purple
	Orange
	Silver
	Gold
	numColors
)

var colorTable = [numColors]struct {
	name string
	rgb  color.NRGBA
}{
	Green:  {"Green", color.NRGBA{R: 84, G: 198, B: 61, A: 255}},
	Blue:   {"Blue", color.NRGBA{R: 68, G: 145, B: 234, A: 255}},
	Yellow: {"Yellow", color.NRGBA{R: 249, G: 239, B: 47, A: 255}},
	Red:    {"Red", color.NRGBA{R: 224, G: 44, B: 65, A: 255}},
	Purple: {"Purple", color.NRGBA{R: 169, G: 45, B: 226, A: 255}},
	Orange: {"Orange", color.NRGBA{R: 242, G: 156, B: 29, A: 255}},
	Silver: {"Silver", color.NRGBA{R: 181, G: 192, B: 193, A: 255}},
	Gold:   {"Gold", color.NRGBA{R: 224, G: 201, B: 92, A: 255}},
}

var (
	titleCaser = cases.Title(language.English)
	lowerCaser = cases.Lower(language.English)
)

// Colors returns every rupee colour in declaration order.
func Colors() []Color {
	out := make([]Color, numColors)
	for i := range out {
		out[i] = Color(i)
	}
	return out
}

func (c Color) Valid() bool { return c < numColors }

// String returns the title-cased colour name used in asset and config names.
func (c Color) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Color(%d)", uint8(c))
	}
	return colorTable[c].name
}

// Lower is the name as it appears inside a sentence.
func (c Color) Lower() string { return lowerCaser.String(c.String()) }

func (c Color) RGBA() color.NRGBA { return colorTable[c].rgb }

// Hex is the lowercase RRGGBB form used in colour-tag markup.
func (c Color) Hex() string {
	rgb := c.RGBA()
	return fmt.Sprintf("%02x%02x%02x", rgb.R, rgb.G, rgb.B)
}

// ColorByName looks up a colour by name, ignoring case and surrounding space.
func ColorByName(name string) (Color, error) {
	want := titleCaser.String(strings.TrimSpace(name))
	for c := Color(0); c < numColors; c++ {
		if colorTable[c].name == want {
			return c, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownColor, "%q", name)
}

func (c Color) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, errors.Wrapf(ErrUnknownColor, "%d", uint8(c))
	}
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ColorByName(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
