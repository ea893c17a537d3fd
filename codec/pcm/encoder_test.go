package pcm

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/edaniels/golog"
	"github.com/go-audio/wav"
	"github.com/pion/mediadevices/pkg/wave"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/edaniels/audioenc/device"
)

func stereoChunk(rate int, samples ...int16) *wave.Int16Interleaved {
	chunk := wave.NewInt16Interleaved(wave.ChunkInfo{Len: len(samples) / 2, Channels: 2, SamplingRate: rate})
	copy(chunk.Data, samples)
	return chunk
}

func TestEncode16Bit(t *testing.T) {
	enc, err := NewAudioEncoder(device.NewPCMWaveFormat(2, 44100, 16), golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, enc.Close(), test.ShouldBeNil)
	}()

	out, err := enc.Encode(stereoChunk(44100, 1, -1, 0x1234, -2))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldResemble, []byte{0x01, 0x00, 0xFF, 0xFF, 0x34, 0x12, 0xFE, 0xFF})

	_, err = enc.Encode(stereoChunk(48000, 1, 1))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestEncode8Bit(t *testing.T) {
	enc, err := NewAudioEncoder(device.NewPCMWaveFormat(2, 8000, 8), golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	out, err := enc.Encode(stereoChunk(8000, 0, -32768, 32767, 256))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldResemble, []byte{128, 0, 255, 129})
}

func TestUnsupportedBitDepth(t *testing.T) {
	_, err := NewAudioEncoder(device.NewPCMWaveFormat(2, 44100, 24), golog.NewTestLogger(t))
	test.That(t, errors.Is(err, ErrUnsupportedBitDepth), test.ShouldBeTrue)

	_, err = NewAudioEncoderFactory().New(device.NewPCMWaveFormat(2, 44100, 24), golog.NewTestLogger(t))
	test.That(t, errors.Is(err, ErrUnsupportedBitDepth), test.ShouldBeTrue)
}

func TestWAVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	f, err := os.Create(path)
	test.That(t, err, test.ShouldBeNil)

	w, err := NewWAVWriter(f, device.NewPCMWaveFormat(2, 16000, 16))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, w.Write(stereoChunk(16000, 1, 2, 3, 4)), test.ShouldBeNil)
	test.That(t, w.Write(stereoChunk(16000, 5, 6)), test.ShouldBeNil)
	test.That(t, w.Close(), test.ShouldBeNil)
	test.That(t, f.Close(), test.ShouldBeNil)

	data, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	dec := wav.NewDecoder(bytes.NewReader(data))
	buf, err := dec.FullPCMBuffer()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, buf.Data, test.ShouldResemble, []int{1, 2, 3, 4, 5, 6})
	test.That(t, dec.NumChans, test.ShouldEqual, 2)
	test.That(t, dec.SampleRate, test.ShouldEqual, 16000)
	test.That(t, dec.BitDepth, test.ShouldEqual, 16)
}

func TestWAVWriterRejectsCompressedFormats(t *testing.T) {
	wf := device.NewPCMWaveFormat(2, 48000, 16)
	wf.FormatTag = device.WaveFormatOpus
	_, err := NewWAVWriter(nil, wf)
	test.That(t, err, test.ShouldNotBeNil)
}
