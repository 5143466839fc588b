package patcher

import (
	"testing"

	"github.com/cockroachdb/errors"
)

func TestVersionRange_Check(t *testing.T) {
	tests := []struct {
		name    string
		r       VersionRange
		version string
		wantErr bool
	}{
		{name: "exact", r: VersionRange{Low: "1.3.5.3", High: "1.3.5.3"}, version: "1.3.5.3"},
		{name: "short form equals zero padded", r: VersionRange{Low: "1.3", High: "1.3"}, version: "1.3.0.0"},
		{name: "open range", version: "1.4.4.9"},
		{name: "below", r: VersionRange{Low: "1.3.5.3"}, version: "1.3.5.1", wantErr: true},
		{name: "above", r: VersionRange{High: "1.3.5.3"}, version: "1.3.10", wantErr: true},
		{name: "malformed", r: VersionRange{Low: "1.3"}, version: "1.3.x", wantErr: true},
		{name: "empty", version: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.r.Check(tt.version)
			if tt.wantErr != errors.Is(err, ErrUnsupportedVersion) {
				t.Errorf("Check(%q) error = %v, wantErr %v", tt.version, err, tt.wantErr)
			}
		})
	}
}

func TestParseVariant(t *testing.T) {
	for in, want := range map[string]Variant{"vanilla": Vanilla, "TModLoader": ModLoader, "": Vanilla} {
		got, err := ParseVariant(in)
		if err != nil || got != want {
			t.Errorf("ParseVariant(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseVariant("1.4"); err == nil {
		t.Errorf("ParseVariant accepted an unknown variant")
	}
}
