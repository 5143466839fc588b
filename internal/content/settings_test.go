package content

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dcrodman/rupeepatch/internal/rupee"
)

func TestRuntimeConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := Settings{
		Palette:   rupee.Palette{Copper: rupee.Orange, Silver: rupee.Silver, Gold: rupee.Gold, Platinum: rupee.Yellow},
		CoinGun:   false,
		LuckyCoin: true,
		CoinRing:  false,
	}
	if err := SaveRuntimeConfig(dir, want); err != nil {
		t.Fatalf("SaveRuntimeConfig() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, RuntimeConfigName))
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{`<?xml version="1.0"`, `<CopperCoin Color="Orange">`, `<CoinGun Enabled="False">`, `<LuckyCoin Enabled="True">`} {
		if !strings.Contains(string(data), s) {
			t.Errorf("config does not contain %q:\n%s", s, data)
		}
	}

	got, err := LoadRuntimeConfig(dir)
	if err != nil {
		t.Fatalf("LoadRuntimeConfig() error = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadRuntimeConfig() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRuntimeConfig(t *testing.T) {
	tests := []struct {
		name    string
		xml     string
		want    func(s *Settings)
		wantErr bool
	}{
		{
			name: "missing file",
			want: func(s *Settings) {},
		},
		{
			name: "partial",
			xml:  `<RupeeReplacer><GoldCoin Color="Yellow"/><CoinRing Enabled="false"/></RupeeReplacer>`,
			want: func(s *Settings) {
				s.Palette.Gold = rupee.Yellow
				s.CoinRing = false
			},
		},
		{
			name: "invalid values ignored",
			xml: `<RupeeReplacer><CopperCoin Color="Copper"/><SilverCoin/>` +
				`<CoinGun Enabled="maybe"/><CoinPortal Enabled="0"/></RupeeReplacer>`,
			want: func(s *Settings) { s.CoinPortal = false },
		},
		{
			name:    "malformed",
			xml:     `<RupeeReplacer><CopperCoin`,
			want:    func(s *Settings) {},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.xml != "" {
				if err := os.WriteFile(filepath.Join(dir, RuntimeConfigName), []byte(tt.xml), 0644); err != nil {
					t.Fatal(err)
				}
			}
			got, err := LoadRuntimeConfig(dir)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadRuntimeConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			want := DefaultSettings()
			tt.want(&want)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("LoadRuntimeConfig() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
