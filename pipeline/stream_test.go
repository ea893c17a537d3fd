package pipeline

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/pion/mediadevices/pkg/wave"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestToneStream(t *testing.T) {
	stream := NewToneStream(context.Background(), Tone{
		Frequency:  1000,
		Amplitude:  1,
		SampleRate: 8000,
		Channels:   2,
		Duration:   50 * time.Millisecond,
		ChunkSize:  20 * time.Millisecond,
	})
	defer func() {
		test.That(t, stream.Close(context.Background()), test.ShouldBeNil)
	}()

	var lens []int
	var peak int16
	for {
		chunk, release, err := stream.Next(context.Background())
		if errors.Is(err, io.EOF) {
			break
		}
		test.That(t, err, test.ShouldBeNil)
		info := chunk.ChunkInfo()
		test.That(t, info.Channels, test.ShouldEqual, 2)
		test.That(t, info.SamplingRate, test.ShouldEqual, 8000)
		lens = append(lens, info.Len)
		data := chunk.(*wave.Int16Interleaved).Data
		for i := 0; i < len(data); i += 2 {
			test.That(t, data[i], test.ShouldEqual, data[i+1])
			if data[i] > peak {
				peak = data[i]
			}
		}
		release()
	}
	test.That(t, lens, test.ShouldResemble, []int{160, 160, 80})
	// 1 kHz sampled at 8 kHz peaks at sin(pi/4) multiples
	test.That(t, peak, test.ShouldEqual, 32767)
}

func TestToneStreamClosedEarly(t *testing.T) {
	stream := NewToneStream(context.Background(), Tone{
		Frequency:  440,
		Amplitude:  0.5,
		SampleRate: 48000,
		Channels:   1,
		Duration:   time.Minute,
	})
	_, _, err := stream.Next(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, stream.Close(context.Background()), test.ShouldBeNil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, _, err = stream.Next(ctx)
	test.That(t, err, test.ShouldNotBeNil)
}
