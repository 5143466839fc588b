// Package image is the in-memory model of a patchable game executable: its
// types, fields and methods, the compiled bodies of those methods and the
// external references the patch adds. It also owns the on-disk codec.
package image

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/dcrodman/rupeepatch/internal/il"
)

var (
	ErrTypeNotFound   = errors.New("type not found")
	ErrFieldNotFound  = errors.New("field not found")
	ErrMethodNotFound = errors.New("method not found")
	ErrAmbiguousType  = errors.New("ambiguous type name")
)

// Module is a loaded executable.
type Module struct {
	Name    string
	Version string
	// LargeAddressAware mirrors the PE header flag that lets a 32-bit process
	// use more than 2GB of address space.
	LargeAddressAware bool
	Types             []*Type
	// Imports are methods defined outside this module that its bodies call.
	Imports []il.MemberRef
}

type Type struct {
	// Name is the namespace-qualified type name, e.g. "Terraria.Main".
	Name    string
	Fields  []*Field
	Methods []*Method
}

type Field struct {
	Owner  string
	Name   string
	Type   string
	Static bool
}

type Method struct {
	Owner  string
	Name   string
	Params int
	Static bool
	Body   *il.MethodBody
}

// Ref returns the reference call instructions use for the method.
func (m *Method) Ref() il.MemberRef { return il.MemberRef{Owner: m.Owner, Name: m.Name} }

// Ref returns the reference field instructions use for the field.
func (f *Field) Ref() il.MemberRef { return il.MemberRef{Owner: f.Owner, Name: f.Name} }

// ShortName returns the type name without its namespace.
func (t *Type) ShortName() string {
	if i := strings.LastIndexByte(t.Name, '.'); i >= 0 {
		return t.Name[i+1:]
	}
	return t.Name
}

// AddType appends an empty type and returns it.
func (m *Module) AddType(name string) *Type {
	t := &Type{Name: name}
	m.Types = append(m.Types, t)
	return t
}

func (t *Type) AddField(name, typ string, static bool) *Field {
	f := &Field{Owner: t.Name, Name: name, Type: typ, Static: static}
	t.Fields = append(t.Fields, f)
	return f
}

// AddMethod appends a method whose body is named after the owning type.
func (t *Type) AddMethod(name string, params int, locals []il.Local, ins ...*il.Instruction) *Method {
	m := &Method{
		Owner:  t.Name,
		Name:   name,
		Params: params,
		Body:   il.NewBody(t.Name+"."+name, locals, ins...),
	}
	t.Methods = append(t.Methods, m)
	return m
}

// ResolveType finds a type by its full name or, failing that, by a
// namespace-less name that only one type carries.
func (m *Module) ResolveType(name string) (*Type, error) {
	for _, t := range m.Types {
		if t.Name == name {
			return t, nil
		}
	}
	var found *Type
	for _, t := range m.Types {
		if t.ShortName() != name {
			continue
		}
		if found != nil {
			return nil, errors.Wrapf(ErrAmbiguousType, "%s matches %s and %s", name, found.Name, t.Name)
		}
		found = t
	}
	if found == nil {
		return nil, errors.Wrapf(ErrTypeNotFound, "%s in %s", name, m.Name)
	}
	return found, nil
}

func (t *Type) Field(name string) (*Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

func (t *Type) Method(name string) (*Method, bool) {
	for _, mt := range t.Methods {
		if mt.Name == name {
			return mt, true
		}
	}
	return nil, false
}

// ResolveField returns the reference to owner's field name.
func (m *Module) ResolveField(owner, name string) (il.MemberRef, error) {
	t, err := m.ResolveType(owner)
	if err != nil {
		return il.MemberRef{}, err
	}
	f, ok := t.Field(name)
	if !ok {
		return il.MemberRef{}, errors.Wrapf(ErrFieldNotFound, "%s::%s", t.Name, name)
	}
	return f.Ref(), nil
}

// ResolveMethod returns owner's method name.
func (m *Module) ResolveMethod(owner, name string) (*Method, error) {
	t, err := m.ResolveType(owner)
	if err != nil {
		return nil, err
	}
	mt, ok := t.Method(name)
	if !ok {
		return nil, errors.Wrapf(ErrMethodNotFound, "%s::%s", t.Name, name)
	}
	return mt, nil
}

// ImportMethod records an external method reference and returns it. Importing
// the same reference twice adds it once.
func (m *Module) ImportMethod(ref il.MemberRef) il.MemberRef {
	for _, imp := range m.Imports {
		if imp == ref {
			return imp
		}
	}
	m.Imports = append(m.Imports, ref)
	return ref
}
