// Package xnb reads and writes the XNA content container files the game loads
// its sprites and sounds from. Only uncompressed containers holding a single
// Texture2D or SoundEffect asset are supported.
package xnb

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/dcrodman/rupeepatch/internal/core/bytes"
)

var (
	ErrNotXNB      = errors.New("not an XNB file")
	ErrUnsupported = errors.New("unsupported XNB content")
	// ErrCompressed is returned for LZX or LZ4 compressed containers.
	ErrCompressed = errors.New("compressed XNB files are not supported")
)

const (
	PlatformWindows = 'w'
	formatVersion   = 5

	flagHiDef      = 0x01
	flagLZ4        = 0x40
	flagCompressed = 0x80

	texture2DReader   = "Microsoft.Xna.Framework.Content.Texture2DReader"
	soundEffectReader = "Microsoft.Xna.Framework.Content.SoundEffectReader"
	readerAssembly    = ", Microsoft.Xna.Framework.Graphics, Version=4.0.0.0, Culture=neutral, PublicKeyToken=842cf8be1de50553"
)

type header struct {
	Magic    [3]byte
	Platform byte
	Version  uint8
	Flags    uint8
	FileSize uint32
}

const headerSize = 10

// openAsset validates the container header and type reader table and returns
// the name of the primary asset's reader, positioned at the asset data.
func openAsset(data []byte) (string, *bytes.Reader, error) {
	var hdr header
	if err := bytes.StructFromBytes(data, &hdr); err != nil || string(hdr.Magic[:]) != "XNB" {
		return "", nil, ErrNotXNB
	}
	if hdr.Version != formatVersion {
		return "", nil, errors.Wrapf(ErrUnsupported, "format version %d", hdr.Version)
	}
	if hdr.Flags&(flagCompressed|flagLZ4) != 0 {
		return "", nil, ErrCompressed
	}

	r := bytes.NewReader(data[headerSize:])
	readers, err := r.Read7BitInt()
	if err != nil {
		return "", nil, err
	}
	if readers < 1 {
		return "", nil, errors.Wrap(ErrUnsupported, "no type readers")
	}
	name, err := r.Read7BitString()
	if err != nil {
		return "", nil, err
	}
	if _, err := r.ReadInt32(); err != nil {
		return "", nil, err
	}
	// Reader names may carry assembly information after a comma.
	if i := strings.IndexByte(name, ','); i >= 0 {
		name = name[:i]
	}
	for i := 1; i < readers; i++ {
		if _, err := r.Read7BitString(); err != nil {
			return "", nil, err
		}
		if _, err := r.ReadInt32(); err != nil {
			return "", nil, err
		}
	}

	if shared, err := r.Read7BitInt(); err != nil {
		return "", nil, err
	} else if shared != 0 {
		return "", nil, errors.Wrap(ErrUnsupported, "shared resources")
	}
	if primary, err := r.Read7BitInt(); err != nil {
		return "", nil, err
	} else if primary != 1 {
		return "", nil, errors.Wrapf(ErrUnsupported, "primary asset uses reader %d", primary)
	}
	return name, r, nil
}

// writeAsset frames the asset payload produced by body in a container with a
// single type reader.
func writeAsset(reader string, body func(w *bytes.Writer)) []byte {
	payload := bytes.NewWriter()
	payload.Write7BitInt(1)
	payload.Write7BitString(reader + readerAssembly)
	payload.WriteInt32(0)
	payload.Write7BitInt(0)
	payload.Write7BitInt(1)
	body(payload)

	out := bytes.NewWriter()
	out.WriteStruct(&header{
		Magic:    [3]byte{'X', 'N', 'B'},
		Platform: PlatformWindows,
		Version:  formatVersion,
		FileSize: uint32(headerSize + payload.Len()),
	})
	out.WriteBytes(payload.Bytes())
	return out.Bytes()
}
