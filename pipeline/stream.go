package pipeline

import (
	"context"
	"io"
	"math"
	"time"

	"github.com/pion/mediadevices/pkg/wave"
	"go.viam.com/utils"
)

// An AudioStream streams audio chunks until it runs dry, at which point Next
// returns io.EOF, or until closed.
type AudioStream interface {
	Next(ctx context.Context) (wave.Audio, func(), error)
	Close(ctx context.Context) error
}

// ChunkReleasePairWithError contains the result of fetching a chunk.
type ChunkReleasePairWithError struct {
	Chunk   wave.Audio
	Release func()
	Err     error
}

// NewAudioStreamForChannel returns an AudioStream backed by a channel. The
// returned context is done once the stream is closed.
func NewAudioStreamForChannel(ctx context.Context) (context.Context, AudioStream, chan<- ChunkReleasePairWithError) {
	cancelCtx, cancel := context.WithCancel(ctx)
	ch := make(chan ChunkReleasePairWithError)
	return cancelCtx, &audioStreamFromChannel{
		chunks:    ch,
		cancelCtx: cancelCtx,
		cancel:    cancel,
	}, ch
}

type audioStreamFromChannel struct {
	chunks    chan ChunkReleasePairWithError
	cancelCtx context.Context
	cancel    func()
}

func (as *audioStreamFromChannel) Next(ctx context.Context) (wave.Audio, func(), error) {
	if err := as.cancelCtx.Err(); err != nil {
		return nil, nil, err
	}
	select {
	case <-as.cancelCtx.Done():
		return nil, nil, as.cancelCtx.Err()
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case pair := <-as.chunks:
		return pair.Chunk, pair.Release, pair.Err
	}
}

func (as *audioStreamFromChannel) Close(ctx context.Context) error {
	as.cancel()
	return nil
}

// A Tone describes a sine wave test signal.
type Tone struct {
	Frequency  float64
	Amplitude  float64
	SampleRate int
	Channels   int
	Duration   time.Duration
	// ChunkSize is the duration of every chunk but the last. Defaults to 20ms.
	ChunkSize time.Duration
}

// NewToneStream generates the tone on a background goroutine and streams it in
// chunks followed by io.EOF.
func NewToneStream(ctx context.Context, tone Tone) AudioStream {
	if tone.ChunkSize <= 0 {
		tone.ChunkSize = 20 * time.Millisecond
	}
	cancelCtx, stream, ch := NewAudioStreamForChannel(ctx)
	utils.PanicCapturingGo(func() {
		total := int(int64(tone.SampleRate) * int64(tone.Duration) / int64(time.Second))
		perChunk := int(int64(tone.SampleRate) * int64(tone.ChunkSize) / int64(time.Second))
		if perChunk < 1 {
			perChunk = 1
		}
		for start := 0; start < total; start += perChunk {
			n := perChunk
			if start+n > total {
				n = total - start
			}
			select {
			case <-cancelCtx.Done():
				return
			case ch <- ChunkReleasePairWithError{Chunk: tone.chunk(start, n), Release: func() {}}:
			}
		}
		select {
		case <-cancelCtx.Done():
		case ch <- ChunkReleasePairWithError{Err: io.EOF}:
		}
	})
	return stream
}

func (tone Tone) chunk(start, n int) wave.Audio {
	chunk := wave.NewInt16Interleaved(wave.ChunkInfo{Len: n, Channels: tone.Channels, SamplingRate: tone.SampleRate})
	for i := 0; i < n; i++ {
		t := float64(start+i) / float64(tone.SampleRate)
		v := wave.Int16Sample(math.Round(tone.Amplitude * math.MaxInt16 * math.Sin(2*math.Pi*tone.Frequency*t)))
		for c := 0; c < tone.Channels; c++ {
			chunk.SetInt16(i, c, v)
		}
	}
	return chunk
}
