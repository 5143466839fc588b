package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dcrodman/rupeepatch/internal/gametest"
	"github.com/dcrodman/rupeepatch/internal/image"
)

var testMarker = image.Marker{Type: "Main", Name: "RupeeReplacerPatched"}

func TestBuildListing_Method(t *testing.T) {
	m := gametest.Vanilla()
	listing, err := buildListing(m, testMarker, "ItemText.ValueToName")
	require.NoError(t, err)

	want := []methodListing{{
		Name:   gametest.ItemText + ".ValueToName",
		Params: 0,
		Locals: []string{
			"V_0 System.Int32", "V_1 System.Int32", "V_2 System.Int32", "V_3 System.Int32", "V_4 System.Int32",
		},
		Instructions: []string{
			"IL_0000: ldarg A_0",
			"IL_0001: ldfld Terraria.ItemText::coinValue",
			"IL_0002: stloc V_0",
			`IL_0003: ldstr ""`,
			"IL_0004: ret",
		},
	}}
	if diff := cmp.Diff(want, listing.Methods); diff != "" {
		t.Errorf("buildListing() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Terraria", listing.Module)
	assert.Equal(t, gametest.VanillaVersion, listing.Version)
	assert.False(t, listing.Patched)
}

func TestBuildListing_All(t *testing.T) {
	m := gametest.ModLoader()
	require.NoError(t, image.MarkPatched(m, testMarker))

	listing, err := buildListing(m, testMarker, "")
	require.NoError(t, err)
	assert.True(t, listing.Patched)

	var names []string
	for _, meth := range listing.Methods {
		names = append(names, meth.Name)
	}
	assert.Contains(t, names, gametest.Dust+".UpdateDust")
	assert.Contains(t, names, gametest.LanguageManager+".LoadLanguage")
}

func TestBuildListing_Errors(t *testing.T) {
	m := gametest.Vanilla()
	for _, method := range []string{"ValueToName", "ItemText.", "Nope.ValueToName", "ItemText.Nope"} {
		if _, err := buildListing(m, testMarker, method); err == nil {
			t.Errorf("buildListing(%q) succeeded", method)
		}
	}
}

func TestWriteListing(t *testing.T) {
	listing, err := buildListing(gametest.Vanilla(), testMarker, "Main.ValueToCoins")
	require.NoError(t, err)

	var text bytes.Buffer
	require.NoError(t, writeListing(&text, listing, "text"))
	assert.True(t, strings.HasPrefix(text.String(), "Terraria 1.3.5.3 (patched: false"))
	assert.Contains(t, text.String(), "Terraria.Main.ValueToCoins (1 params)")
	assert.Contains(t, text.String(), "  IL_0001: ldc.i4 1000000\n")

	var out bytes.Buffer
	require.NoError(t, writeListing(&out, listing, "yaml"))
	var decoded moduleListing
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &decoded))
	if diff := cmp.Diff(listing, &decoded); diff != "" {
		t.Errorf("yaml listing mismatch (-want +got):\n%s", diff)
	}

	assert.Error(t, writeListing(&out, listing, "xml"))
}

func TestDumpRaw(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, dumpRaw(&buf, gametest.Vanilla(), "Item.GetStoreValue"))
	assert.Contains(t, buf.String(), "GetStoreValue")
	assert.Error(t, dumpRaw(&buf, gametest.Vanilla(), "Item.Missing"))
}
