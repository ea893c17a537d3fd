package pcm

import (
	"github.com/edaniels/golog"

	"github.com/edaniels/audioenc/codec"
	"github.com/edaniels/audioenc/device"
)

// NewAudioEncoderFactory returns a PCM audio encoder factory.
func NewAudioEncoderFactory() codec.AudioEncoderFactory {
	return &factory{}
}

type factory struct{}

func (f *factory) New(format device.WaveFormat, logger golog.Logger) (codec.AudioEncoder, error) {
	return NewAudioEncoder(format, logger)
}

func (f *factory) MIMEType() string {
	return "audio/L16"
}
