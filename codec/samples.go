package codec

import (
	"math"

	"github.com/pion/mediadevices/pkg/wave"
	"github.com/pkg/errors"
)

// ErrUnsupportedSample is returned for chunks whose samples cannot be converted.
var ErrUnsupportedSample = errors.New("unsupported sample type")

// Int16Interleaved flattens a chunk into interleaved signed 16 bit samples.
func Int16Interleaved(chunk wave.Audio) ([]int16, error) {
	if c, ok := chunk.(*wave.Int16Interleaved); ok {
		out := make([]int16, len(c.Data))
		copy(out, c.Data)
		return out, nil
	}
	info := chunk.ChunkInfo()
	out := make([]int16, 0, info.Len*info.Channels)
	for i := 0; i < info.Len; i++ {
		for ch := 0; ch < info.Channels; ch++ {
			switch s := chunk.At(i, ch).(type) {
			case wave.Int16Sample:
				out = append(out, int16(s))
			case wave.Float32Sample:
				out = append(out, floatToInt16(float32(s)))
			default:
				return nil, errors.Wrapf(ErrUnsupportedSample, "%T", s)
			}
		}
	}
	return out, nil
}

func floatToInt16(v float32) int16 {
	scaled := math.Round(float64(v) * math.MaxInt16)
	if scaled > math.MaxInt16 {
		return math.MaxInt16
	}
	if scaled < math.MinInt16 {
		return math.MinInt16
	}
	return int16(scaled)
}

// CheckChunk makes sure a chunk agrees with the negotiated channel count and rate.
func CheckChunk(chunk wave.Audio, channels, sampleRate int) error {
	info := chunk.ChunkInfo()
	if info.Channels != channels {
		return errors.Errorf("chunk has %d channels but encoder expects %d", info.Channels, channels)
	}
	if info.SamplingRate != 0 && info.SamplingRate != sampleRate {
		return errors.Errorf("chunk sampled at %d Hz but encoder expects %d Hz", info.SamplingRate, sampleRate)
	}
	return nil
}
