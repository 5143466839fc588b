package content

import (
	"encoding/xml"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cast"

	"github.com/dcrodman/rupeepatch/internal/rupee"
)

// RuntimeConfigName is the file the patched game reads its rupee colours from.
const RuntimeConfigName = "RupeeConfig.xml"

// Settings choose the rupee colour for each coin and which optional coin
// items are resprited.
type Settings struct {
	Palette    rupee.Palette
	CoinGun    bool
	LuckyCoin  bool
	CoinRing   bool
	CoinPortal bool
}

func DefaultSettings() Settings {
	return Settings{
		Palette:    rupee.DefaultPalette(),
		CoinGun:    true,
		LuckyCoin:  true,
		CoinRing:   true,
		CoinPortal: true,
	}
}

type colorElement struct {
	Color string `xml:"Color,attr"`
}

type toggleElement struct {
	Enabled string `xml:"Enabled,attr"`
}

type runtimeConfig struct {
	XMLName      xml.Name       `xml:"RupeeReplacer"`
	CopperCoin   *colorElement  `xml:"CopperCoin"`
	SilverCoin   *colorElement  `xml:"SilverCoin"`
	GoldCoin     *colorElement  `xml:"GoldCoin"`
	PlatinumCoin *colorElement  `xml:"PlatinumCoin"`
	CoinGun      *toggleElement `xml:"CoinGun"`
	LuckyCoin    *toggleElement `xml:"LuckyCoin"`
	CoinRing     *toggleElement `xml:"CoinRing"`
	CoinPortal   *toggleElement `xml:"CoinPortal"`
}

// The game parses these with .NET's bool parser, which expects title case.
func boolText(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// SaveRuntimeConfig writes s to RupeeConfig.xml in dir.
func SaveRuntimeConfig(dir string, s Settings) error {
	doc := runtimeConfig{
		CopperCoin:   &colorElement{s.Palette.Copper.String()},
		SilverCoin:   &colorElement{s.Palette.Silver.String()},
		GoldCoin:     &colorElement{s.Palette.Gold.String()},
		PlatinumCoin: &colorElement{s.Palette.Platinum.String()},
		CoinGun:      &toggleElement{boolText(s.CoinGun)},
		LuckyCoin:    &toggleElement{boolText(s.LuckyCoin)},
		CoinRing:     &toggleElement{boolText(s.CoinRing)},
		CoinPortal:   &toggleElement{boolText(s.CoinPortal)},
	}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding runtime config")
	}
	path := filepath.Join(dir, RuntimeConfigName)
	if err := os.WriteFile(path, append([]byte(xml.Header), out...), 0644); err != nil {
		return errors.Wrapf(err, "failed to save %s", RuntimeConfigName)
	}
	return nil
}

// LoadRuntimeConfig reads RupeeConfig.xml from dir. Missing elements and
// values that do not parse keep their defaults, and a missing file yields
// DefaultSettings.
func LoadRuntimeConfig(dir string) (Settings, error) {
	s := DefaultSettings()
	data, err := os.ReadFile(filepath.Join(dir, RuntimeConfigName))
	if os.IsNotExist(err) {
		return s, nil
	} else if err != nil {
		return s, errors.Wrapf(err, "reading %s", RuntimeConfigName)
	}

	var doc runtimeConfig
	if err := xml.Unmarshal(data, &doc); err != nil {
		return s, errors.Wrapf(err, "parsing %s", RuntimeConfigName)
	}

	for _, c := range []struct {
		elem *colorElement
		dst  *rupee.Color
	}{
		{doc.CopperCoin, &s.Palette.Copper},
		{doc.SilverCoin, &s.Palette.Silver},
		{doc.GoldCoin, &s.Palette.Gold},
		{doc.PlatinumCoin, &s.Palette.Platinum},
	} {
		if c.elem == nil {
			continue
		}
		if color, err := rupee.ColorByName(c.elem.Color); err == nil {
			*c.dst = color
		}
	}
	for _, t := range []struct {
		elem *toggleElement
		dst  *bool
	}{
		{doc.CoinGun, &s.CoinGun},
		{doc.LuckyCoin, &s.LuckyCoin},
		{doc.CoinRing, &s.CoinRing},
		{doc.CoinPortal, &s.CoinPortal},
	} {
		if t.elem == nil {
			continue
		}
		if enabled, err := cast.ToBoolE(t.elem.Enabled); err == nil {
			*t.dst = enabled
		}
	}
	return s, nil
}
