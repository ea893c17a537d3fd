package audioenc

import (
	"runtime"

	"github.com/edaniels/golog"
	"go.uber.org/multierr"

	"github.com/edaniels/audioenc/device"
)

// A CompressorBinding is the result of a negotiation: a native filter and, unless
// the device defaults were requested, the exact media type to force on it. The
// binding owns both until Release or Detach.
//
// A binding that becomes unreachable without either being called is released by
// the garbage collector as a last resort and a warning is logged.
type CompressorBinding struct {
	encoderName string
	filter      device.Filter
	mediaType   device.MediaType
	format      *FormatDescriptor
	done        bool
	logger      golog.Logger
}

func newCompressorBinding(
	encoderName string,
	filter device.Filter,
	mediaType device.MediaType,
	format *FormatDescriptor,
	logger golog.Logger,
) *CompressorBinding {
	b := &CompressorBinding{
		encoderName: encoderName,
		filter:      filter,
		mediaType:   mediaType,
		format:      format,
		logger:      logger,
	}
	runtime.SetFinalizer(b, finalizeBinding)
	return b
}

func finalizeBinding(b *CompressorBinding) {
	if b.done {
		return
	}
	b.logger.Warnw("compressor binding was never released; releasing it now", "encoder", b.encoderName)
	if err := b.release(); err != nil {
		b.logger.Errorw("error releasing compressor binding", "encoder", b.encoderName, "error", err)
	}
}

// EncoderName is the friendly name of the device the binding came from.
func (b *CompressorBinding) EncoderName() string {
	return b.encoderName
}

// Filter returns the bound native filter, nil once released or detached.
func (b *CompressorBinding) Filter() device.Filter {
	return b.filter
}

// MediaType returns the negotiated media type, nil when the device defaults
// were requested or once released or detached.
func (b *CompressorBinding) MediaType() device.MediaType {
	return b.mediaType
}

// Format describes the negotiated media type, nil when the device defaults were
// requested. Its values remain valid after the binding is released.
func (b *CompressorBinding) Format() *FormatDescriptor {
	return b.format
}

// UsesDefaults reports whether the downstream pipeline picks the format.
func (b *CompressorBinding) UsesDefaults() bool {
	return b.format == nil
}

// Detach hands the filter and media type to the caller, who becomes responsible
// for releasing them. The binding is left empty.
func (b *CompressorBinding) Detach() (device.Filter, device.MediaType) {
	f, mt := b.filter, b.mediaType
	b.filter, b.mediaType = nil, nil
	b.done = true
	runtime.SetFinalizer(b, nil)
	return f, mt
}

// Release releases the media type and then the filter. Only the first call has
// any effect.
func (b *CompressorBinding) Release() error {
	if b.done {
		return nil
	}
	runtime.SetFinalizer(b, nil)
	return b.release()
}

func (b *CompressorBinding) release() error {
	b.done = true
	var err error
	if b.mediaType != nil {
		err = releaseAs("release media type", b.mediaType)
		b.mediaType = nil
	}
	if b.filter != nil {
		err = multierr.Combine(err, releaseAs("release filter", b.filter))
		b.filter = nil
	}
	return err
}
