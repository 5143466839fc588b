package image

import (
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/dcrodman/rupeepatch/internal/core/bytes"
	"github.com/dcrodman/rupeepatch/internal/il"
)

// ErrBadImage is returned when a file is not a well-formed module image.
var ErrBadImage = errors.New("malformed module image")

const (
	formatVersion = 1

	flagLargeAddressAware = 1 << 0
)

var magic = [4]byte{'R', 'P', 'I', 'M'}

type fileHeader struct {
	Magic   [4]byte
	Version uint16
	Flags   uint16
}

// Encode writes m to w.
func Encode(w io.Writer, m *Module) error {
	out := bytes.NewWriter()
	hdr := fileHeader{Magic: magic, Version: formatVersion}
	if m.LargeAddressAware {
		hdr.Flags |= flagLargeAddressAware
	}
	out.WriteStruct(&hdr)
	out.Write7BitString(m.Name)
	out.Write7BitString(m.Version)

	out.Write7BitInt(len(m.Imports))
	for _, imp := range m.Imports {
		out.Write7BitString(imp.Owner)
		out.Write7BitString(imp.Name)
	}

	out.Write7BitInt(len(m.Types))
	for _, t := range m.Types {
		out.Write7BitString(t.Name)
		out.Write7BitInt(len(t.Fields))
		for _, f := range t.Fields {
			out.Write7BitString(f.Name)
			out.Write7BitString(f.Type)
			out.WriteUint8(boolByte(f.Static))
		}
		out.Write7BitInt(len(t.Methods))
		for _, mt := range t.Methods {
			out.Write7BitString(mt.Name)
			out.Write7BitInt(mt.Params)
			out.WriteUint8(boolByte(mt.Static))
			if mt.Body == nil {
				out.WriteUint8(0)
				continue
			}
			out.WriteUint8(1)
			if err := encodeBody(out, mt.Body); err != nil {
				return err
			}
		}
	}

	_, err := w.Write(out.Bytes())
	return err
}

func encodeBody(out *bytes.Writer, body *il.MethodBody) error {
	out.Write7BitInt(len(body.Locals))
	for _, l := range body.Locals {
		out.Write7BitInt(l.Slot)
		out.Write7BitString(l.Type)
	}

	ins := body.Instructions()
	index := make(map[*il.Instruction]int, len(ins))
	for i, in := range ins {
		index[in] = i
	}

	out.Write7BitInt(len(ins))
	for i, in := range ins {
		out.WriteUint8(byte(in.Op))
		out.WriteUint8(byte(in.Operand.Kind))
		switch op := in.Operand; op.Kind {
		case il.OperandNone:
		case il.OperandInt:
			out.WriteVarint(op.Int)
		case il.OperandReal:
			out.WriteFloat64(op.Real)
		case il.OperandString:
			out.Write7BitString(op.Str)
		case il.OperandField, il.OperandMethod:
			out.Write7BitString(op.Member.Owner)
			out.Write7BitString(op.Member.Name)
		case il.OperandLocal, il.OperandArg:
			out.Write7BitInt(op.Index)
		case il.OperandBranch:
			target, ok := index[op.Target]
			if !ok {
				return errors.Wrapf(ErrBadImage, "%s: instruction %d branches outside its body", body.Name, i)
			}
			out.Write7BitInt(target)
		default:
			return errors.Wrapf(ErrBadImage, "%s: instruction %d has operand kind %s", body.Name, i, op.Kind)
		}
	}
	return nil
}

// Decode reads a module written by Encode.
func Decode(r io.Reader) (*Module, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	d := &decoder{r: bytes.NewReader(data)}
	m, err := d.module()
	if err != nil {
		if errors.Is(err, ErrBadImage) {
			return nil, err
		}
		return nil, errors.Mark(errors.Wrap(err, "decoding module image"), ErrBadImage)
	}
	return m, nil
}

type decoder struct {
	r *bytes.Reader
}

// count reads a collection length, rejecting lengths the remaining input
// could not possibly hold.
func (d *decoder) count(what string) (int, error) {
	n, err := d.r.Read7BitInt()
	if err != nil {
		return 0, err
	}
	if n > d.r.Len() {
		return 0, errors.Wrapf(ErrBadImage, "%d %s with %d bytes left", n, what, d.r.Len())
	}
	return n, nil
}

func (d *decoder) flag() (bool, error) {
	b, err := d.r.ReadByte()
	return b != 0, err
}

func (d *decoder) module() (*Module, error) {
	var hdr fileHeader
	if err := bytes.ReadStruct(d.r, &hdr); err != nil {
		return nil, err
	}
	if hdr.Magic != magic {
		return nil, errors.Wrapf(ErrBadImage, "bad magic %q", hdr.Magic[:])
	}
	if hdr.Version != formatVersion {
		return nil, errors.Wrapf(ErrBadImage, "unsupported format version %d", hdr.Version)
	}

	m := &Module{LargeAddressAware: hdr.Flags&flagLargeAddressAware != 0}
	var err error
	if m.Name, err = d.r.Read7BitString(); err != nil {
		return nil, err
	}
	if m.Version, err = d.r.Read7BitString(); err != nil {
		return nil, err
	}

	n, err := d.count("imports")
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		var ref il.MemberRef
		if ref.Owner, err = d.r.Read7BitString(); err != nil {
			return nil, err
		}
		if ref.Name, err = d.r.Read7BitString(); err != nil {
			return nil, err
		}
		m.Imports = append(m.Imports, ref)
	}

	if n, err = d.count("types"); err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		if err := d.typ(m); err != nil {
			return nil, err
		}
	}
	if d.r.Len() != 0 {
		return nil, errors.Wrapf(ErrBadImage, "%d trailing bytes", d.r.Len())
	}
	return m, nil
}

func (d *decoder) typ(m *Module) error {
	name, err := d.r.Read7BitString()
	if err != nil {
		return err
	}
	t := m.AddType(name)

	n, err := d.count("fields")
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		f := &Field{Owner: t.Name}
		if f.Name, err = d.r.Read7BitString(); err != nil {
			return err
		}
		if f.Type, err = d.r.Read7BitString(); err != nil {
			return err
		}
		if f.Static, err = d.flag(); err != nil {
			return err
		}
		t.Fields = append(t.Fields, f)
	}

	if n, err = d.count("methods"); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		mt := &Method{Owner: t.Name}
		if mt.Name, err = d.r.Read7BitString(); err != nil {
			return err
		}
		if mt.Params, err = d.r.Read7BitInt(); err != nil {
			return err
		}
		if mt.Static, err = d.flag(); err != nil {
			return err
		}
		hasBody, err := d.flag()
		if err != nil {
			return err
		}
		if hasBody {
			if mt.Body, err = d.body(t.Name + "." + mt.Name); err != nil {
				return err
			}
		}
		t.Methods = append(t.Methods, mt)
	}
	return nil
}

func (d *decoder) body(name string) (*il.MethodBody, error) {
	n, err := d.count("locals")
	if err != nil {
		return nil, err
	}
	locals := make([]il.Local, n)
	for i := range locals {
		if locals[i].Slot, err = d.r.Read7BitInt(); err != nil {
			return nil, err
		}
		if locals[i].Type, err = d.r.Read7BitString(); err != nil {
			return nil, err
		}
	}

	if n, err = d.count("instructions"); err != nil {
		return nil, err
	}
	ins := make([]*il.Instruction, n)
	targets := make(map[int]int)
	for i := range ins {
		op, err := d.r.ReadByte()
		if err != nil {
			return nil, err
		}
		if !il.OpCode(op).Valid() {
			return nil, errors.Wrapf(ErrBadImage, "%s: instruction %d has opcode %d", name, i, op)
		}
		kind, err := d.r.ReadByte()
		if err != nil {
			return nil, err
		}
		in := &il.Instruction{Op: il.OpCode(op), Operand: il.Operand{Kind: il.OperandKind(kind)}}
		switch in.Operand.Kind {
		case il.OperandNone:
		case il.OperandInt:
			in.Operand.Int, err = d.r.ReadVarint()
		case il.OperandReal:
			in.Operand.Real, err = d.r.ReadFloat64()
		case il.OperandString:
			in.Operand.Str, err = d.r.Read7BitString()
		case il.OperandField, il.OperandMethod:
			if in.Operand.Member.Owner, err = d.r.Read7BitString(); err == nil {
				in.Operand.Member.Name, err = d.r.Read7BitString()
			}
		case il.OperandLocal, il.OperandArg:
			in.Operand.Index, err = d.r.Read7BitInt()
		case il.OperandBranch:
			var target int
			if target, err = d.r.Read7BitInt(); err == nil {
				if target >= n {
					return nil, errors.Wrapf(ErrBadImage, "%s: instruction %d branches to %d of %d", name, i, target, n)
				}
				targets[i] = target
			}
		default:
			return nil, errors.Wrapf(ErrBadImage, "%s: instruction %d has operand kind %d", name, i, kind)
		}
		if err != nil {
			return nil, err
		}
		ins[i] = in
	}
	for from, to := range targets {
		ins[from].Operand.Target = ins[to]
	}
	return il.NewBody(name, locals, ins...), nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// Load reads the module image at path.
func Load(path string) (*Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return m, nil
}

// Save writes m to path through a temporary file in the same directory that is
// renamed over path once fully written, so path holds either the old or the
// new image and never a partial one.
func Save(m *Module, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, m); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if info, err := os.Stat(path); err == nil {
		if err := os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
			return err
		}
	}
	return os.Rename(tmp.Name(), path)
}
