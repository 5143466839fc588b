package xnb

import (
	stdbytes "bytes"
	"io"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/dcrodman/rupeepatch/internal/core/bytes"
)

// ErrBadWAV is returned for RIFF files that are not valid PCM wave audio.
var ErrBadWAV = errors.New("malformed WAV file")

const formatPCM = 1

// WaveFormat mirrors the fixed part of a WAVEFORMATEX structure.
type WaveFormat struct {
	FormatTag     uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

const waveFormatSize = 16

// PCM is uncompressed audio: a format description and its sample data.
type PCM struct {
	Format WaveFormat
	Data   []byte
}

// Duration of the sample data in milliseconds.
func (p *PCM) Duration() int64 {
	perSecond := int64(p.Format.Channels) * int64(p.Format.BitsPerSample) * int64(p.Format.SampleRate) / 8
	if perSecond == 0 {
		return 0
	}
	return 1000 * int64(len(p.Data)) / perSecond
}

// Frames is the number of sample frames in Data.
func (p *PCM) Frames() int {
	if p.Format.BlockAlign == 0 {
		return 0
	}
	return len(p.Data) / int(p.Format.BlockAlign)
}

type chunkHeader struct {
	ID   [4]byte
	Size uint32
}

type riffHeader struct {
	ID   [4]byte
	Size uint32
	Form [4]byte
}

// DecodeWAV parses a RIFF WAVE file containing PCM audio. Chunks other than
// "fmt " and "data" are skipped.
func DecodeWAV(r io.Reader) (*PCM, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	br := stdbytes.NewReader(data)

	var riff riffHeader
	if err := bytes.ReadStruct(br, &riff); err != nil || string(riff.ID[:]) != "RIFF" {
		return nil, errors.Wrap(ErrBadWAV, "missing RIFF header")
	}
	if int(riff.Size) != len(data)-8 {
		return nil, errors.Wrapf(ErrBadWAV, "RIFF length %d does not match file size %d", riff.Size, len(data))
	}
	if string(riff.Form[:]) != "WAVE" {
		return nil, errors.Wrap(ErrBadWAV, "not a WAVE file")
	}

	var (
		pcm     PCM
		haveFmt bool
	)
	for {
		var chunk chunkHeader
		if err := bytes.ReadStruct(br, &chunk); err != nil {
			return nil, errors.Wrap(ErrBadWAV, "missing data chunk")
		}
		switch string(chunk.ID[:]) {
		case "fmt ":
			if chunk.Size < waveFormatSize {
				return nil, errors.Wrapf(ErrBadWAV, "format chunk of %d bytes", chunk.Size)
			}
			if err := bytes.ReadStruct(br, &pcm.Format); err != nil {
				return nil, errors.Wrap(ErrBadWAV, "truncated format chunk")
			}
			if _, err := br.Seek(int64(chunk.Size-waveFormatSize), io.SeekCurrent); err != nil {
				return nil, err
			}
			if err := validateFormat(pcm.Format); err != nil {
				return nil, err
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, errors.Wrap(ErrBadWAV, "data chunk before format chunk")
			}
			if int(chunk.Size) > br.Len() {
				return nil, errors.Wrapf(ErrBadWAV, "data chunk of %d bytes truncated to %d", chunk.Size, br.Len())
			}
			pcm.Data = make([]byte, chunk.Size)
			if _, err := io.ReadFull(br, pcm.Data); err != nil {
				return nil, err
			}
			return &pcm, nil
		default:
			// Chunks are word aligned.
			skip := int64(chunk.Size) + int64(chunk.Size&1)
			if _, err := br.Seek(skip, io.SeekCurrent); err != nil {
				return nil, err
			}
		}
	}
}

func validateFormat(f WaveFormat) error {
	if f.FormatTag != formatPCM {
		return errors.Wrapf(ErrBadWAV, "format tag %d is not PCM", f.FormatTag)
	}
	if f.Channels == 0 || f.BitsPerSample == 0 || f.SampleRate == 0 {
		return errors.Wrapf(ErrBadWAV, "%d channels of %d-bit audio at %dHz", f.Channels, f.BitsPerSample, f.SampleRate)
	}
	bytesPerSample := uint32(f.BitsPerSample / 8)
	if f.ByteRate != f.SampleRate*uint32(f.Channels)*bytesPerSample {
		return errors.Wrapf(ErrBadWAV, "byte rate %d does not match format", f.ByteRate)
	}
	if uint32(f.BlockAlign) != uint32(f.Channels)*bytesPerSample {
		return errors.Wrapf(ErrBadWAV, "block align %d does not match format", f.BlockAlign)
	}
	return nil
}

// EncodeSound writes pcm as a SoundEffect asset that loops over all of its
// samples.
func EncodeSound(w io.Writer, pcm *PCM) error {
	if err := validateFormat(pcm.Format); err != nil {
		return err
	}
	data := writeAsset(soundEffectReader, func(out *bytes.Writer) {
		out.WriteUint32(waveFormatSize + 2)
		out.WriteStruct(&pcm.Format)
		out.WriteUint16(0)
		out.WriteUint32(uint32(len(pcm.Data)))
		out.WriteBytes(pcm.Data)
		out.WriteInt32(0)
		out.WriteInt32(int32(pcm.Frames()))
		out.WriteInt32(int32(pcm.Duration()))
	})
	_, err := w.Write(data)
	return err
}

// DecodeSound reads a SoundEffect asset back into its PCM audio.
func DecodeSound(r io.Reader) (*PCM, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	reader, br, err := openAsset(data)
	if err != nil {
		return nil, errors.Wrap(err, "decoding sound")
	}
	if reader != soundEffectReader {
		return nil, errors.Wrapf(ErrUnsupported, "asset read by %s is not a sound", reader)
	}

	formatSize, err := br.ReadUint32()
	if err != nil {
		return nil, err
	}
	if formatSize < waveFormatSize {
		return nil, errors.Wrapf(ErrUnsupported, "format of %d bytes", formatSize)
	}
	format, err := br.ReadBytes(int(formatSize))
	if err != nil {
		return nil, err
	}
	var pcm PCM
	if err := bytes.StructFromBytes(format, &pcm.Format); err != nil {
		return nil, err
	}
	size, err := br.ReadUint32()
	if err != nil {
		return nil, err
	}
	if pcm.Data, err = br.ReadBytes(int(size)); err != nil {
		return nil, err
	}
	return &pcm, nil
}

// ReadWAVFile decodes the wave file at path.
func ReadWAVFile(path string) (*PCM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	pcm, err := DecodeWAV(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return pcm, nil
}

// WriteSoundFile encodes pcm over the file at path.
func WriteSoundFile(path string, pcm *PCM) error {
	var buf stdbytes.Buffer
	if err := EncodeSound(&buf, pcm); err != nil {
		return errors.Wrapf(err, "encoding %s", path)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
