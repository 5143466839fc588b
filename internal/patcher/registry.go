package patcher

import (
	"github.com/cockroachdb/errors"

	"github.com/dcrodman/rupeepatch/internal/il"
)

// Replacement functions provided by the companion library.
const (
	OnReforgeCost    = "OnReforgeCost"
	OnCoinStoreValue = "OnCoinStoreValue"
	OnValueToCoins   = "OnValueToCoins"
	OnCoinSparkle    = "OnCoinSparkle"
	OnCoinText       = "OnCoinText"
	OnCoinText2      = "OnCoinText2"
	OnValueToName    = "OnValueToName"
	OnLoadCoinNames  = "OnLoadCoinNames"
)

// DefaultHookType is the type in the companion library that holds the
// replacement functions.
const DefaultHookType = "TerrariaRupeeReplacer.CoinReplacer"

// Registry maps replacement function names to the references patched bodies call.
type Registry struct {
	owner string
	names map[string]struct{}
}

// NewRegistry registers names as static methods of owner.
func NewRegistry(owner string, names ...string) *Registry {
	r := &Registry{owner: owner, names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		r.names[n] = struct{}{}
	}
	return r
}

// DefaultRegistry registers every replacement function the descriptors use.
func DefaultRegistry(owner string) *Registry {
	if owner == "" {
		owner = DefaultHookType
	}
	return NewRegistry(owner,
		OnReforgeCost, OnCoinStoreValue, OnValueToCoins, OnCoinSparkle,
		OnCoinText, OnCoinText2, OnValueToName, OnLoadCoinNames,
	)
}

func (r *Registry) Resolve(name string) (il.MemberRef, error) {
	if _, ok := r.names[name]; !ok {
		return il.MemberRef{}, errors.Wrapf(ErrUnknownHook, "%s.%s", r.owner, name)
	}
	return il.MemberRef{Owner: r.owner, Name: name}, nil
}
