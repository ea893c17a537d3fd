package registry

import (
	"github.com/edaniels/audioenc/codec/opus"
	"github.com/edaniels/audioenc/codec/pcm"
	"github.com/edaniels/audioenc/device"
)

var (
	pcmSampleRates  = []int{8000, 11025, 16000, 22050, 32000, 44100, 48000}
	opusSampleRates = []int{8000, 12000, 16000, 24000, 48000}
	opusBitRates    = []int{64000, 128000}
)

// Default returns a registry holding the built in software compressors.
func Default() *Registry {
	r := New()
	r.Register(device.CategoryAudioCompressor, PCMDevice())
	r.Register(device.CategoryAudioCompressor, OpusDevice())
	return r
}

// PCMDevice is an uncompressed PCM compressor advertising 8 and 16 bit formats.
func PCMDevice() Device {
	var formats []MediaFormat
	for _, rate := range pcmSampleRates {
		for _, bits := range []int{8, 16} {
			for _, channels := range []int{1, 2} {
				formats = append(formats, WaveMedia(device.NewPCMWaveFormat(channels, rate, bits)))
			}
		}
	}
	return Device{
		Name:    "PCM",
		Path:    "sw:pcm",
		Pins:    encoderPins(device.NewPCMWaveFormat(2, 44100, 16), formats),
		Factory: pcm.NewAudioEncoderFactory(),
	}
}

// OpusDevice is an Opus compressor advertising its nominal bit rates.
func OpusDevice() Device {
	var formats []MediaFormat
	for _, rate := range opusSampleRates {
		for _, bitRate := range opusBitRates {
			for _, channels := range []int{1, 2} {
				formats = append(formats, WaveMedia(device.WaveFormat{
					FormatTag:             device.WaveFormatOpus,
					Channels:              uint16(channels),
					SamplesPerSecond:      uint32(rate),
					AverageBytesPerSecond: uint32(bitRate / 8),
					BlockAlign:            1,
					BitsPerSample:         16,
				}))
			}
		}
	}
	return Device{
		Name:    "Opus",
		Path:    "sw:opus",
		Pins:    encoderPins(device.NewPCMWaveFormat(2, 48000, 16), formats),
		Factory: opus.NewAudioEncoderFactory(),
	}
}

func encoderPins(input device.WaveFormat, outputs []MediaFormat) []PinSpec {
	return []PinSpec{
		{Direction: device.DirectionInput, Formats: []MediaFormat{WaveMedia(input)}},
		{Direction: device.DirectionOutput, Formats: outputs},
	}
}
