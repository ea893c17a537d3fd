package devicetest

import (
	"github.com/edaniels/audioenc/device"
	"github.com/edaniels/audioenc/device/registry"
)

// PCM returns the media format of uncompressed integer PCM.
func PCM(channels, rate, bits int) registry.MediaFormat {
	return registry.WaveMedia(device.NewPCMWaveFormat(channels, rate, bits))
}

// NonWave returns a media format the catalog must skip.
func NonWave() registry.MediaFormat {
	return registry.MediaFormat{Type: device.FormatTypeNone, Block: []byte{1, 2, 3}}
}

// ShortWave returns a wave media format whose block is too short to parse.
func ShortWave() registry.MediaFormat {
	return registry.MediaFormat{Type: device.FormatTypeWaveFormatEx, Block: make([]byte, device.WaveFormatSize-1)}
}

// Compressor returns a device with one input pin and one output pin advertising
// the given formats in order.
func Compressor(name string, outputs ...registry.MediaFormat) registry.Device {
	return registry.Device{
		Name: name,
		Path: "test:" + name,
		Pins: []registry.PinSpec{
			{Direction: device.DirectionInput, Formats: []registry.MediaFormat{PCM(2, 44100, 16)}},
			{Direction: device.DirectionOutput, Formats: outputs},
		},
	}
}

// NewService registers the devices as compressors and wraps the registry in a Tracker.
func NewService(devices ...registry.Device) (*Tracker, *registry.Registry) {
	reg := registry.New()
	for _, d := range devices {
		reg.Register(device.CategoryAudioCompressor, d)
	}
	return NewTracker(reg), reg
}
