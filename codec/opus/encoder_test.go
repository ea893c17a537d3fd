package opus

import (
	"encoding/binary"
	"testing"

	"github.com/edaniels/golog"
	"github.com/pion/mediadevices/pkg/wave"
	"go.viam.com/test"

	"github.com/edaniels/audioenc/device"
)

func opusFormat(channels, rate, bitRate int) device.WaveFormat {
	return device.WaveFormat{
		FormatTag:             device.WaveFormatOpus,
		Channels:              uint16(channels),
		SamplesPerSecond:      uint32(rate),
		AverageBytesPerSecond: uint32(bitRate / 8),
		BlockAlign:            1,
		BitsPerSample:         16,
	}
}

func TestEncodeFrames(t *testing.T) {
	enc, err := NewAudioEncoder(opusFormat(1, 48000, 64000), golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	// 30ms of audio holds one full 20ms frame
	chunk := wave.NewInt16Interleaved(wave.ChunkInfo{Len: 1440, Channels: 1, SamplingRate: 48000})
	for i := range chunk.Data {
		chunk.Data[i] = int16((i % 100) * 300)
	}
	out, err := enc.Encode(chunk)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(out), test.ShouldBeGreaterThan, 2)
	size := int(binary.BigEndian.Uint16(out))
	test.That(t, len(out), test.ShouldEqual, size+2)

	// the buffered 10ms plus another 10ms complete a second frame
	chunk = wave.NewInt16Interleaved(wave.ChunkInfo{Len: 480, Channels: 1, SamplingRate: 48000})
	out, err = enc.Encode(chunk)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(out), test.ShouldBeGreaterThan, 2)

	test.That(t, enc.Close(), test.ShouldBeNil)
}

func TestEncodeRejectsMismatchedChunks(t *testing.T) {
	enc, err := NewAudioEncoderFactory().New(opusFormat(2, 48000, 128000), golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	_, err = enc.Encode(wave.NewInt16Interleaved(wave.ChunkInfo{Len: 960, Channels: 1, SamplingRate: 48000}))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, NewAudioEncoderFactory().MIMEType(), test.ShouldEqual, "audio/opus")
}

func TestUnsupportedRate(t *testing.T) {
	_, err := NewAudioEncoder(opusFormat(1, 44100, 64000), golog.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}
