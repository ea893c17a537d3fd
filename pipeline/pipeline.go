// Package pipeline turns a compressor binding into a running in-process encoder
// and pumps audio through it.
package pipeline

import (
	"context"
	"io"

	"github.com/edaniels/golog"
	"github.com/pion/mediadevices/pkg/wave"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/edaniels/audioenc"
	"github.com/edaniels/audioenc/codec"
	"github.com/edaniels/audioenc/device"
)

// ErrNotInProcess is returned for bindings whose filter has no in-process encoder.
var ErrNotInProcess = errors.New("encoder cannot run in process")

// A Pipeline owns a detached filter, its media type and the encoder built for
// them.
type Pipeline struct {
	encoderName string
	format      device.WaveFormat
	mimeType    string
	filter      device.Filter
	mediaType   device.MediaType
	encoder     codec.AudioEncoder
	logger      golog.Logger
	closed      bool
}

// Build takes ownership of everything the binding holds. When the binding used
// the device defaults, the filter's first advertised format is the one encoded
// to. On failure everything taken from the binding is released.
func Build(binding *audioenc.CompressorBinding, logger golog.Logger) (p *Pipeline, err error) {
	if logger == nil {
		logger = golog.Global()
	}
	name := binding.EncoderName()
	negotiated := binding.Format()
	filter, mediaType := binding.Detach()
	defer func() {
		if err != nil {
			err = multierr.Combine(err, device.ReleaseAll(filter, mediaType))
		}
	}()
	if filter == nil {
		return nil, errors.Errorf("binding for %q was already released", name)
	}

	var format device.WaveFormat
	if negotiated != nil {
		format = negotiated.WaveFormat()
	} else {
		format, err = defaultFormat(filter, logger)
		if err != nil {
			return nil, errors.Wrapf(err, "picking default format of %q", name)
		}
	}

	provider, ok := codec.ProviderOf(filter)
	if !ok || provider.AudioEncoderFactory() == nil {
		return nil, errors.Wrapf(ErrNotInProcess, "%q", name)
	}
	factory := provider.AudioEncoderFactory()
	encoder, err := factory.New(format, logger)
	if err != nil {
		return nil, errors.Wrapf(err, "creating %s encoder", factory.MIMEType())
	}
	logger.Debugw("built pipeline", "encoder", name, "mime_type", factory.MIMEType(), "format", format)
	return &Pipeline{
		encoderName: name,
		format:      format,
		mimeType:    factory.MIMEType(),
		filter:      filter,
		mediaType:   mediaType,
		encoder:     encoder,
		logger:      logger,
	}, nil
}

func defaultFormat(filter device.Filter, logger golog.Logger) (_ device.WaveFormat, err error) {
	formats, err := audioenc.BuildFormatCatalog(filter, logger)
	if err != nil {
		return device.WaveFormat{}, err
	}
	defer func() {
		err = multierr.Combine(err, formats.Release())
	}()
	if formats.Len() == 0 {
		return device.WaveFormat{}, errors.New("no wave formats advertised")
	}
	return formats.At(0).WaveFormat(), nil
}

// EncoderName is the friendly name of the encoder device.
func (p *Pipeline) EncoderName() string {
	return p.encoderName
}

// Format is the wave format being encoded to.
func (p *Pipeline) Format() device.WaveFormat {
	return p.format
}

// MIMEType describes the bytes Encode produces.
func (p *Pipeline) MIMEType() string {
	return p.mimeType
}

// Encode encodes one chunk.
func (p *Pipeline) Encode(chunk wave.Audio) ([]byte, error) {
	if p.closed {
		return nil, errors.New("pipeline is closed")
	}
	return p.encoder.Encode(chunk)
}

// A Sink receives every chunk along with its encoding.
type Sink interface {
	WriteChunk(chunk wave.Audio, encoded []byte) error
}

// A SinkFunc is a function usable as a Sink.
type SinkFunc func(chunk wave.Audio, encoded []byte) error

// WriteChunk calls f.
func (f SinkFunc) WriteChunk(chunk wave.Audio, encoded []byte) error {
	return f(chunk, encoded)
}

// WriterSink writes encoded bytes to w.
func WriterSink(w io.Writer) Sink {
	return SinkFunc(func(_ wave.Audio, encoded []byte) error {
		_, err := w.Write(encoded)
		return err
	})
}

// Run encodes chunks from the stream into the sink until the stream returns
// io.EOF. It returns how many chunks were encoded.
func (p *Pipeline) Run(ctx context.Context, stream AudioStream, sink Sink) (int, error) {
	var n int
	for {
		chunk, release, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		data, err := p.Encode(chunk)
		if err == nil {
			err = sink.WriteChunk(chunk, data)
		}
		if release != nil {
			release()
		}
		if err != nil {
			return n, err
		}
		n++
	}
}

// Close closes the encoder and then releases the media type and the filter.
// Only the first call has any effect.
func (p *Pipeline) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	return multierr.Combine(
		p.encoder.Close(),
		device.ReleaseAll(p.filter, p.mediaType),
	)
}
