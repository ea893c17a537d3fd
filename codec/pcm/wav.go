package pcm

import (
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pion/mediadevices/pkg/wave"
	"github.com/pkg/errors"

	"github.com/edaniels/audioenc/codec"
	"github.com/edaniels/audioenc/device"
)

// A WAVWriter writes chunks into a WAV file in a negotiated PCM format.
type WAVWriter struct {
	enc    *wav.Encoder
	format device.WaveFormat
	buf    goaudio.IntBuffer
}

// NewWAVWriter starts a WAV file on w. The header is completed by Close.
func NewWAVWriter(w io.WriteSeeker, format device.WaveFormat) (*WAVWriter, error) {
	if format.FormatTag != device.WaveFormatPCM {
		return nil, errors.Errorf("cannot write format tag 0x%04X to a WAV file", format.FormatTag)
	}
	if format.BitsPerSample != 8 && format.BitsPerSample != 16 {
		return nil, errors.Wrapf(ErrUnsupportedBitDepth, "got %d", format.BitsPerSample)
	}
	channels := int(format.Channels)
	rate := int(format.SamplesPerSecond)
	bits := int(format.BitsPerSample)
	return &WAVWriter{
		enc:    wav.NewEncoder(w, rate, bits, channels, int(device.WaveFormatPCM)),
		format: format,
		buf: goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
			SourceBitDepth: bits,
		},
	}, nil
}

// Write appends a chunk to the file.
func (w *WAVWriter) Write(chunk wave.Audio) error {
	if err := codec.CheckChunk(chunk, int(w.format.Channels), int(w.format.SamplesPerSecond)); err != nil {
		return err
	}
	samples, err := codec.Int16Interleaved(chunk)
	if err != nil {
		return err
	}
	w.buf.Data = w.buf.Data[:0]
	for _, s := range samples {
		if w.format.BitsPerSample == 8 {
			// the encoder stores 8 bit samples as given, unsigned
			w.buf.Data = append(w.buf.Data, (int(s)>>8)+128)
			continue
		}
		w.buf.Data = append(w.buf.Data, int(s))
	}
	return w.enc.Write(&w.buf)
}

// Close finalizes the WAV header. It does not close the underlying writer.
func (w *WAVWriter) Close() error {
	return w.enc.Close()
}
