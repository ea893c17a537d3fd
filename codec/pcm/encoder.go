// Package pcm contains the uncompressed PCM audio codec and a WAV file sink.
package pcm

import (
	"encoding/binary"

	"github.com/edaniels/golog"
	"github.com/pion/mediadevices/pkg/wave"
	"github.com/pkg/errors"

	"github.com/edaniels/audioenc/codec"
	"github.com/edaniels/audioenc/device"
)

// ErrUnsupportedBitDepth is returned for formats other than 8 or 16 bit.
var ErrUnsupportedBitDepth = errors.New("only 8 and 16 bit PCM supported")

type encoder struct {
	format device.WaveFormat
	logger golog.Logger
}

// NewAudioEncoder returns an encoder producing little endian interleaved PCM in
// the given format. 8 bit output is unsigned as in WAV files.
func NewAudioEncoder(format device.WaveFormat, logger golog.Logger) (codec.AudioEncoder, error) {
	if format.BitsPerSample != 8 && format.BitsPerSample != 16 {
		return nil, errors.Wrapf(ErrUnsupportedBitDepth, "got %d", format.BitsPerSample)
	}
	return &encoder{format: format, logger: logger}, nil
}

func (e *encoder) Encode(chunk wave.Audio) ([]byte, error) {
	if err := codec.CheckChunk(chunk, int(e.format.Channels), int(e.format.SamplesPerSecond)); err != nil {
		return nil, err
	}
	samples, err := codec.Int16Interleaved(chunk)
	if err != nil {
		return nil, err
	}
	if e.format.BitsPerSample == 8 {
		out := make([]byte, len(samples))
		for i, s := range samples {
			out[i] = byte((int(s) >> 8) + 128)
		}
		return out, nil
	}
	out := make([]byte, 0, len(samples)*2)
	for _, s := range samples {
		out = binary.LittleEndian.AppendUint16(out, uint16(s))
	}
	return out, nil
}

func (e *encoder) Close() error {
	return nil
}
