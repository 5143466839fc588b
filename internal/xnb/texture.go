package xnb

import (
	"image"
	"image/draw"
	"io"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/dcrodman/rupeepatch/internal/core/bytes"
)

// Surface formats of a Texture2D asset.
const (
	surfaceColor = 0
	surfaceDXT1  = 4
	surfaceDXT3  = 5
	surfaceDXT5  = 6
)

// DecodeImage reads a Texture2D asset stored as 32-bit RGBA colour. Only the
// first mip level is returned.
func DecodeImage(r io.Reader) (*image.NRGBA, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	reader, br, err := openAsset(data)
	if err != nil {
		return nil, errors.Wrap(err, "decoding texture")
	}
	if reader != texture2DReader {
		return nil, errors.Wrapf(ErrUnsupported, "asset read by %s is not a texture", reader)
	}

	img, err := readTexture(br)
	if err != nil {
		return nil, errors.Wrap(err, "decoding texture")
	}
	return img, nil
}

func readTexture(r *bytes.Reader) (*image.NRGBA, error) {
	var fields [4]int32
	for i := range fields {
		v, err := r.ReadInt32()
		if err != nil {
			return nil, err
		}
		fields[i] = v
	}
	surface, width, height, mips := fields[0], int(fields[1]), int(fields[2]), fields[3]
	switch surface {
	case surfaceColor:
	case surfaceDXT1, surfaceDXT3, surfaceDXT5:
		return nil, errors.Wrapf(ErrUnsupported, "DXT surface format %d", surface)
	default:
		return nil, errors.Wrapf(ErrUnsupported, "surface format %d", surface)
	}
	if mips < 1 || width < 0 || height < 0 {
		return nil, errors.Wrapf(ErrUnsupported, "%dx%d texture with %d mip levels", width, height, mips)
	}

	size, err := r.ReadInt32()
	if err != nil {
		return nil, err
	}
	if int(size) != width*height*4 {
		return nil, errors.Wrapf(ErrUnsupported, "%d bytes of pixel data for a %dx%d texture", size, width, height)
	}
	pix, err := r.ReadBytes(int(size))
	if err != nil {
		return nil, err
	}
	return &image.NRGBA{Pix: pix, Stride: width * 4, Rect: image.Rect(0, 0, width, height)}, nil
}

// EncodeImage writes img as an uncompressed Texture2D asset with one mip level.
func EncodeImage(w io.Writer, img image.Image) error {
	src := toNRGBA(img)
	width, height := src.Rect.Dx(), src.Rect.Dy()
	data := writeAsset(texture2DReader, func(out *bytes.Writer) {
		out.WriteInt32(surfaceColor)
		out.WriteInt32(int32(width))
		out.WriteInt32(int32(height))
		out.WriteInt32(1)
		out.WriteInt32(int32(width * height * 4))
		for y := 0; y < height; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+width*4]
			out.WriteBytes(row)
		}
	})
	_, err := w.Write(data)
	return err
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	n := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(n, n.Rect, img, b.Min, draw.Src)
	return n
}

// ReadImageFile decodes the texture stored at path.
func ReadImageFile(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := DecodeImage(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return img, nil
}

// WriteImageFile encodes img over the file at path.
func WriteImageFile(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeImage(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
