package pipeline

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/edaniels/golog"
	"github.com/pion/mediadevices/pkg/wave"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/edaniels/audioenc"
	"github.com/edaniels/audioenc/codec"
	"github.com/edaniels/audioenc/device"
	"github.com/edaniels/audioenc/device/registry"
	"github.com/edaniels/audioenc/internal/devicetest"
)

func resolve(t *testing.T, tracker *devicetest.Tracker, req string) *audioenc.CompressorBinding {
	t.Helper()
	parsed, err := audioenc.ParseFormatRequest(req)
	test.That(t, err, test.ShouldBeNil)
	n := audioenc.NewNegotiator(tracker, audioenc.WithLogger(golog.NewTestLogger(t)))
	binding, err := n.Resolve(parsed)
	test.That(t, err, test.ShouldBeNil)
	return binding
}

func TestBuildNegotiatedPCM(t *testing.T) {
	logger := golog.NewTestLogger(t)
	tracker := devicetest.NewTracker(registry.Default())
	binding := resolve(t, tracker, "pcm:stereo:44:1411")

	p, err := Build(binding, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, binding.Filter(), test.ShouldBeNil)
	test.That(t, p.EncoderName(), test.ShouldEqual, "PCM")
	test.That(t, p.MIMEType(), test.ShouldEqual, "audio/L16")
	test.That(t, p.Format(), test.ShouldResemble, device.NewPCMWaveFormat(2, 44100, 16))
	test.That(t, tracker.Outstanding(), test.ShouldEqual, 2)

	stream := NewToneStream(context.Background(), Tone{
		Frequency:  440,
		Amplitude:  0.5,
		SampleRate: 44100,
		Channels:   2,
		Duration:   100 * time.Millisecond,
	})
	var out bytes.Buffer
	n, err := p.Run(context.Background(), stream, WriterSink(&out))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n, test.ShouldEqual, 5)
	test.That(t, out.Len(), test.ShouldEqual, 4410*4)
	test.That(t, stream.Close(context.Background()), test.ShouldBeNil)

	test.That(t, p.Close(), test.ShouldBeNil)
	test.That(t, p.Close(), test.ShouldBeNil)
	test.That(t, tracker.Outstanding(), test.ShouldEqual, 0)
	test.That(t, tracker.DoubleReleases(), test.ShouldEqual, 0)

	_, err = p.Encode(nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestBuildDefaultsUsesFirstFormat(t *testing.T) {
	tracker := devicetest.NewTracker(registry.Default())
	binding := resolve(t, tracker, "PCM")
	test.That(t, binding.UsesDefaults(), test.ShouldBeTrue)

	p, err := Build(binding, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Format(), test.ShouldResemble, device.NewPCMWaveFormat(1, 8000, 8))
	// only the filter is held; the catalog used to pick the format is gone
	test.That(t, tracker.Outstanding(), test.ShouldEqual, 1)

	test.That(t, p.Close(), test.ShouldBeNil)
	test.That(t, tracker.Outstanding(), test.ShouldEqual, 0)
}

func TestBuildOpus(t *testing.T) {
	tracker := devicetest.NewTracker(registry.Default())
	binding := resolve(t, tracker, "Opus:mono:48:64")

	p, err := Build(binding, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.MIMEType(), test.ShouldEqual, "audio/opus")

	stream := NewToneStream(context.Background(), Tone{
		Frequency:  1000,
		Amplitude:  0.25,
		SampleRate: 48000,
		Channels:   1,
		Duration:   time.Second,
	})
	var out bytes.Buffer
	n, err := p.Run(context.Background(), stream, WriterSink(&out))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n, test.ShouldEqual, 50)
	test.That(t, out.Len(), test.ShouldBeGreaterThan, 0)
	test.That(t, p.Close(), test.ShouldBeNil)
	test.That(t, tracker.Outstanding(), test.ShouldEqual, 0)
}

func TestBuildWithoutInProcessEncoder(t *testing.T) {
	tracker, _ := devicetest.NewService(devicetest.Compressor("WMA", devicetest.PCM(2, 44100, 16)))
	binding := resolve(t, tracker, "WMA:stereo:44:1411")

	_, err := Build(binding, golog.NewTestLogger(t))
	test.That(t, errors.Is(err, ErrNotInProcess), test.ShouldBeTrue)
	test.That(t, tracker.Outstanding(), test.ShouldEqual, 0)
}

func TestBuildReleasedBinding(t *testing.T) {
	tracker := devicetest.NewTracker(registry.Default())
	binding := resolve(t, tracker, "PCM")
	test.That(t, binding.Release(), test.ShouldBeNil)

	_, err := Build(binding, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, tracker.Outstanding(), test.ShouldEqual, 0)
}

type closeRecorder struct {
	closes int
	err    error
}

func (r *closeRecorder) New(format device.WaveFormat, logger golog.Logger) (codec.AudioEncoder, error) {
	return r, nil
}

func (r *closeRecorder) MIMEType() string {
	return "audio/x-test"
}

func (r *closeRecorder) Encode(chunk wave.Audio) ([]byte, error) {
	return nil, nil
}

func (r *closeRecorder) Close() error {
	r.closes++
	return r.err
}

func TestCloseClosesEncoder(t *testing.T) {
	recorder := &closeRecorder{err: errors.New("flush failed")}
	d := devicetest.Compressor("Test", devicetest.PCM(1, 16000, 16))
	d.Factory = recorder
	tracker, _ := devicetest.NewService(d)

	p, err := Build(resolve(t, tracker, "Test:mono:16:256"), golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.MIMEType(), test.ShouldEqual, "audio/x-test")

	err = p.Close()
	test.That(t, errors.Is(err, recorder.err), test.ShouldBeTrue)
	test.That(t, recorder.closes, test.ShouldEqual, 1)
	test.That(t, tracker.Outstanding(), test.ShouldEqual, 0)

	test.That(t, p.Close(), test.ShouldBeNil)
	test.That(t, recorder.closes, test.ShouldEqual, 1)
}

func TestRunStopsOnStreamError(t *testing.T) {
	tracker := devicetest.NewTracker(registry.Default())
	p, err := Build(resolve(t, tracker, "PCM:mono:8:128"), golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, p.Close(), test.ShouldBeNil)
	}()

	ctx, stream, ch := NewAudioStreamForChannel(context.Background())
	boom := errors.New("capture failed")
	go func() {
		select {
		case <-ctx.Done():
		case ch <- ChunkReleasePairWithError{Err: boom}:
		}
	}()
	n, err := p.Run(context.Background(), stream, WriterSink(&bytes.Buffer{}))
	test.That(t, errors.Is(err, boom), test.ShouldBeTrue)
	test.That(t, n, test.ShouldEqual, 0)
	test.That(t, stream.Close(context.Background()), test.ShouldBeNil)

	_, _, err = stream.Next(context.Background())
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
}
