// Package codec contains the in-process audio encoders a compressor binding can
// be turned into.
package codec

import (
	"github.com/edaniels/golog"
	"github.com/pion/mediadevices/pkg/wave"

	"github.com/edaniels/audioenc/device"
)

// An AudioEncoder is anything that can encode audio chunks into bytes. This means that
// the encoder must follow some type of format dictated by a type (see AudioEncoderFactory.MIMEType).
// An encoder that produces bytes of different encoding formats per call is invalid.
type AudioEncoder interface {
	Encode(chunk wave.Audio) ([]byte, error)
	Close() error
}

// An AudioEncoderFactory produces AudioEncoders for a negotiated wave format and
// provides information about the underlying encoder itself.
type AudioEncoderFactory interface {
	New(format device.WaveFormat, logger golog.Logger) (AudioEncoder, error)
	MIMEType() string
}

// A Provider is a filter that can be encoded with in process.
type Provider interface {
	AudioEncoderFactory() AudioEncoderFactory
}

// ProviderOf returns the Provider behind a filter, looking through any wrappers
// that expose an Unwrap method.
func ProviderOf(f device.Filter) (Provider, bool) {
	for f != nil {
		if p, ok := f.(Provider); ok {
			return p, true
		}
		u, ok := f.(interface{ Unwrap() device.Filter })
		if !ok {
			return nil, false
		}
		f = u.Unwrap()
	}
	return nil, false
}
