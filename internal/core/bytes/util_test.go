package bytes

import (
	"io"
	"math"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type testHeader struct {
	Magic    [3]byte
	Platform byte
	Version  uint8
	Flags    uint8
	FileSize uint32
}

func TestStructConversions(t *testing.T) {
	data := []byte{0x58, 0x4e, 0x42, 0x77, 0x05, 0x00, 0x2a, 0x01, 0x00, 0x00}

	var header testHeader
	if err := StructFromBytes(data, &header); err != nil {
		t.Fatalf("StructFromBytes() returned error: %v", err)
	}

	want := testHeader{Magic: [3]byte{'X', 'N', 'B'}, Platform: 'w', Version: 5, FileSize: 298}
	if diff := cmp.Diff(want, header); diff != "" {
		t.Errorf("StructFromBytes() generated unexpected header; diff:\n%s", diff)
	}

	converted, n := BytesFromStruct(header)
	if n != len(data) {
		t.Errorf("expected bytes to equal the length of the header (%d), got = %v", len(data), n)
	}
	if diff := cmp.Diff(data, converted); diff != "" {
		t.Errorf("expected converted header to match original. diff:\n%s", diff)
	}
}

func TestStructFromBytes_Short(t *testing.T) {
	var header testHeader
	if err := StructFromBytes([]byte{'X', 'N', 'B', 'w'}, &header); err != io.ErrUnexpectedEOF {
		t.Errorf("StructFromBytes() error = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestWrite7BitInt(t *testing.T) {
	tests := []struct {
		name string
		v    int
		want []byte
	}{
		{name: "zero", v: 0, want: []byte{0x00}},
		{name: "largest single byte", v: 127, want: []byte{0x7f}},
		{name: "smallest two bytes", v: 128, want: []byte{0x80, 0x01}},
		{name: "arbitrary", v: 300, want: []byte{0xac, 0x02}},
		{name: "max int32", v: math.MaxInt32, want: []byte{0xff, 0xff, 0xff, 0xff, 0x07}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWriter()
			w.Write7BitInt(tt.v)
			if !reflect.DeepEqual(w.Bytes(), tt.want) {
				t.Errorf("Write7BitInt() = %v, want %v", w.Bytes(), tt.want)
			}

			got, err := NewReader(tt.want).Read7BitInt()
			if err != nil || got != tt.v {
				t.Errorf("Read7BitInt() = %d, %v; want %d", got, err, tt.v)
			}
		})
	}
}

func TestRead7BitInt_Errors(t *testing.T) {
	if _, err := NewReader([]byte{0x80, 0x80}).Read7BitInt(); err != io.ErrUnexpectedEOF {
		t.Errorf("truncated Read7BitInt() error = %v", err)
	}
	if _, err := NewReader([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0x01}).Read7BitInt(); err != ErrOverflow {
		t.Errorf("oversized Read7BitInt() error = %v", err)
	}
}

func TestReaderWriter(t *testing.T) {
	w := NewWriter()
	w.Write7BitString("Microsoft.Xna.Framework.Content.Texture2DReader")
	w.WriteInt32(-7)
	w.WriteUint16(0xbeef)
	w.WriteFloat64(246.5)
	w.WriteVarint(-1000000)
	w.WriteUint8(9)
	w.WriteBytes([]byte{1, 2, 3})

	r := NewReader(w.Bytes())
	s, err := r.Read7BitString()
	if err != nil || s != "Microsoft.Xna.Framework.Content.Texture2DReader" {
		t.Errorf("Read7BitString() = %q, %v", s, err)
	}
	if v, err := r.ReadInt32(); err != nil || v != -7 {
		t.Errorf("ReadInt32() = %d, %v", v, err)
	}
	if v, err := r.ReadUint16(); err != nil || v != 0xbeef {
		t.Errorf("ReadUint16() = %x, %v", v, err)
	}
	if v, err := r.ReadFloat64(); err != nil || v != 246.5 {
		t.Errorf("ReadFloat64() = %v, %v", v, err)
	}
	if v, err := r.ReadVarint(); err != nil || v != -1000000 {
		t.Errorf("ReadVarint() = %d, %v", v, err)
	}
	if v, err := r.ReadByte(); err != nil || v != 9 {
		t.Errorf("ReadByte() = %d, %v", v, err)
	}
	if b, err := r.ReadBytes(3); err != nil || !reflect.DeepEqual(b, []byte{1, 2, 3}) {
		t.Errorf("ReadBytes() = %v, %v", b, err)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d after reading everything", r.Len())
	}
	if _, err := r.ReadUint32(); err != io.ErrUnexpectedEOF {
		t.Errorf("ReadUint32() past the end error = %v", err)
	}
}
