package image

import "github.com/cockroachdb/errors"

// Marker names the zero-size static field whose presence on a well-known type
// records that the module has already been patched.
type Marker struct {
	Type string
	Name string
}

// IsPatched reports whether the marker field exists. A module without the
// marker's host type has never been patched.
func IsPatched(m *Module, mk Marker) bool {
	t, err := m.ResolveType(mk.Type)
	if err != nil {
		return false
	}
	_, ok := t.Field(mk.Name)
	return ok
}

// MarkPatched adds the marker field. Marking an already marked module is a no-op.
func MarkPatched(m *Module, mk Marker) error {
	t, err := m.ResolveType(mk.Type)
	if err != nil {
		return errors.Wrap(err, "adding patch marker")
	}
	if _, ok := t.Field(mk.Name); ok {
		return nil
	}
	t.AddField(mk.Name, "", true)
	return nil
}
