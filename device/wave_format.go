package device

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// A FormatType names the layout of a MediaType's format block.
type FormatType string

// Known format types.
const (
	FormatTypeWaveFormatEx FormatType = "WaveFormatEx"
	FormatTypeNone         FormatType = "None"
)

// Wave format tags.
const (
	WaveFormatPCM       uint16 = 0x0001
	WaveFormatIEEEFloat uint16 = 0x0003
	WaveFormatOpus      uint16 = 0x704F
)

// WaveFormatSize is the size in bytes of an encoded WaveFormat header.
const WaveFormatSize = 18

// ErrShortWaveFormat is returned when a format block cannot hold a WaveFormat.
var ErrShortWaveFormat = errors.New("format block too small for a wave format")

// WaveFormat is the little endian WAVEFORMATEX header carried by wave media types.
type WaveFormat struct {
	FormatTag             uint16
	Channels              uint16
	SamplesPerSecond      uint32
	AverageBytesPerSecond uint32
	BlockAlign            uint16
	BitsPerSample         uint16
	ExtraSize             uint16
}

// NewPCMWaveFormat describes uncompressed integer PCM.
func NewPCMWaveFormat(channels, samplesPerSecond, bitsPerSample int) WaveFormat {
	blockAlign := channels * bitsPerSample / 8
	return WaveFormat{
		FormatTag:             WaveFormatPCM,
		Channels:              uint16(channels),
		SamplesPerSecond:      uint32(samplesPerSecond),
		AverageBytesPerSecond: uint32(samplesPerSecond * blockAlign),
		BlockAlign:            uint16(blockAlign),
		BitsPerSample:         uint16(bitsPerSample),
	}
}

// MarshalBinary encodes the header followed by ExtraSize zero bytes.
func (wf WaveFormat) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, wf); err != nil {
		return nil, err
	}
	buf.Write(make([]byte, wf.ExtraSize))
	return buf.Bytes(), nil
}

// ParseWaveFormat decodes the header at the start of a format block.
func ParseWaveFormat(block []byte) (WaveFormat, error) {
	var wf WaveFormat
	if len(block) < WaveFormatSize {
		return wf, errors.Wrapf(ErrShortWaveFormat, "got %d bytes", len(block))
	}
	if err := binary.Read(bytes.NewReader(block[:WaveFormatSize]), binary.LittleEndian, &wf); err != nil {
		return wf, err
	}
	return wf, nil
}

// IsWaveShape reports whether a media type carries a wave format block.
func IsWaveShape(mt MediaType) bool {
	return mt.FormatType() == FormatTypeWaveFormatEx && len(mt.Format()) >= WaveFormatSize
}
