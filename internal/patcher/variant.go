package patcher

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Variant is a build of the game executable.
type Variant int

const (
	Vanilla Variant = iota
	ModLoader
)

func (v Variant) String() string {
	switch v {
	case Vanilla:
		return "vanilla"
	case ModLoader:
		return "tmodloader"
	}
	return fmt.Sprintf("variant(%d)", int(v))
}

// ParseVariant accepts "vanilla" or "tmodloader" in any case.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "vanilla", "terraria":
		return Vanilla, nil
	case "tmodloader", "tmod", "modloader":
		return ModLoader, nil
	}
	return 0, errors.Newf("unknown build variant %q", s)
}
