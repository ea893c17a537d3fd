// Package opus contains the opus audio codec.
package opus

import (
	"encoding/binary"

	"github.com/edaniels/golog"
	"github.com/pion/mediadevices/pkg/wave"
	"github.com/pkg/errors"
	libopus "gopkg.in/hraban/opus.v2"

	"github.com/edaniels/audioenc/codec"
	"github.com/edaniels/audioenc/device"
)

// Frames are 20ms long, the size libopus recommends for general audio.
const framesPerSecond = 50

// Large enough for any single 20ms opus packet.
const maxPacketSize = 4000

type encoder struct {
	enc       *libopus.Encoder
	channels  int
	rate      int
	frameSize int
	pending   []int16
	packet    []byte
	logger    golog.Logger
}

// NewAudioEncoder returns an opus encoder for the given negotiated format. The
// format's average bytes per second sets the target bit rate.
func NewAudioEncoder(format device.WaveFormat, logger golog.Logger) (codec.AudioEncoder, error) {
	channels := int(format.Channels)
	rate := int(format.SamplesPerSecond)
	enc, err := libopus.NewEncoder(rate, channels, libopus.AppAudio)
	if err != nil {
		return nil, errors.Wrapf(err, "creating opus encoder (%d Hz, %d channels)", rate, channels)
	}
	if format.AverageBytesPerSecond != 0 {
		if err := enc.SetBitrate(int(format.AverageBytesPerSecond) * 8); err != nil {
			return nil, errors.Wrap(err, "setting opus bit rate")
		}
	}
	return &encoder{
		enc:       enc,
		channels:  channels,
		rate:      rate,
		frameSize: rate / framesPerSecond,
		packet:    make([]byte, maxPacketSize),
		logger:    logger,
	}, nil
}

// Encode buffers the chunk and returns every complete frame encoded so far. Each
// packet is prefixed with its length as a big endian uint16 so packet boundaries
// survive concatenation.
func (a *encoder) Encode(chunk wave.Audio) ([]byte, error) {
	if err := codec.CheckChunk(chunk, a.channels, a.rate); err != nil {
		return nil, err
	}
	samples, err := codec.Int16Interleaved(chunk)
	if err != nil {
		return nil, err
	}
	a.pending = append(a.pending, samples...)

	var out []byte
	frameLen := a.frameSize * a.channels
	for len(a.pending) >= frameLen {
		n, err := a.enc.Encode(a.pending[:frameLen], a.packet)
		if err != nil {
			return out, errors.Wrap(err, "encoding opus frame")
		}
		out = binary.BigEndian.AppendUint16(out, uint16(n))
		out = append(out, a.packet[:n]...)
		a.pending = a.pending[frameLen:]
	}
	return out, nil
}

// Close drops any partial frame still buffered.
func (a *encoder) Close() error {
	if len(a.pending) > 0 {
		a.logger.Debugw("dropping partial opus frame", "samples", len(a.pending))
	}
	a.pending = nil
	return nil
}
