// Package main lists installed audio encoders and negotiates formats with them.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/edaniels/golog"
	// register microphone drivers.
	_ "github.com/pion/mediadevices/pkg/driver/microphone"
	"github.com/pion/mediadevices/pkg/wave"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"github.com/edaniels/audioenc"
	"github.com/edaniels/audioenc/codec/pcm"
	"github.com/edaniels/audioenc/config"
	"github.com/edaniels/audioenc/device"
	"github.com/edaniels/audioenc/device/malgo"
	"github.com/edaniels/audioenc/device/mediadevices"
	"github.com/edaniels/audioenc/device/registry"
	"github.com/edaniels/audioenc/pipeline"
)

func main() {
	utils.ContextualMain(mainWithArgs, logger)
}

var logger = golog.Global().Named("audio_encoders")

// Arguments for the command.
type Arguments struct {
	Config   string `flag:"config,usage=path to a TOML config file"`
	Init     string `flag:"init,usage=write a sample config file to this path and exit"`
	Backend  string `flag:"backend,usage=registry|mediadevices|malgo; overrides the config"`
	Category string `flag:"category,usage=device category; overrides the config"`
	Dump     bool   `flag:"dump,usage=list every encoder and its formats"`
	Request  string `flag:"request,usage=name or name:mono|stereo:khz:kbps"`
	Preset   string `flag:"preset,usage=named request from the config"`
	Out      string `flag:"out,usage=encode one second of a test tone to this file"`
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) (err error) {
	var argsParsed Arguments
	if err := utils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}
	if argsParsed.Init != "" {
		return config.CreateSample(argsParsed.Init)
	}

	cfg, err := config.Load(argsParsed.Config)
	if err != nil {
		return err
	}
	if argsParsed.Backend != "" {
		cfg.Backend = config.Backend(argsParsed.Backend)
	}
	if argsParsed.Category != "" {
		cfg.Category = device.Category(argsParsed.Category)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	service, closeService, err := openService(cfg.Backend, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, closeService())
	}()

	negotiator := audioenc.NewNegotiator(service,
		audioenc.WithCategory(cfg.Category),
		audioenc.WithLogger(logger))
	if argsParsed.Dump {
		return dump(os.Stdout, negotiator)
	}

	req, err := pickRequest(cfg, argsParsed)
	if err != nil {
		return err
	}
	binding, err := resolve(os.Stdout, negotiator, req)
	if err != nil {
		return err
	}

	if argsParsed.Out == "" {
		return binding.Release()
	}
	return encodeTone(ctx, binding, argsParsed.Out, logger)
}

func openService(backend config.Backend, logger golog.Logger) (device.Service, func() error, error) {
	noop := func() error { return nil }
	switch backend {
	case config.BackendRegistry:
		return registry.Default(), noop, nil
	case config.BackendMediaDevices:
		return mediadevices.New(logger), noop, nil
	case config.BackendMalgo:
		svc, err := malgo.Open(logger)
		if err != nil {
			return nil, nil, err
		}
		return svc, svc.Close, nil
	default:
		return nil, nil, errors.Errorf("unknown backend %q", backend)
	}
}

func pickRequest(cfg *config.Config, argsParsed Arguments) (audioenc.FormatRequest, error) {
	switch {
	case argsParsed.Request != "" && argsParsed.Preset != "":
		return audioenc.FormatRequest{}, errors.New("use only one of -request and -preset")
	case argsParsed.Preset != "":
		return cfg.Preset(argsParsed.Preset)
	case argsParsed.Request != "":
		return audioenc.ParseFormatRequest(argsParsed.Request)
	default:
		return audioenc.FormatRequest{}, errors.New("one of -request, -preset or -dump is required")
	}
}

// resolve negotiates req and prints the binding. When the encoder has no
// matching format its listing is printed instead and the returned error is
// kept to one line.
func resolve(w io.Writer, negotiator *audioenc.Negotiator, req audioenc.FormatRequest) (*audioenc.CompressorBinding, error) {
	binding, err := negotiator.Resolve(req)
	var notResolvable *audioenc.FormatNotResolvableError
	if errors.As(err, &notResolvable) {
		fmt.Fprintln(w, notResolvable.Error())
		return nil, errors.Errorf("no format of %q matches %s", notResolvable.Encoder, req)
	}
	if err != nil {
		return nil, err
	}
	describeBinding(w, binding)
	return binding, nil
}

func describeBinding(w io.Writer, binding *audioenc.CompressorBinding) {
	if binding.UsesDefaults() {
		fmt.Fprintf(w, "%s: encoder defaults\n", binding.EncoderName())
		return
	}
	fmt.Fprintf(w, "%s: %s\n", binding.EncoderName(), binding.Format())
}

func encodeTone(ctx context.Context, binding *audioenc.CompressorBinding, path string, logger golog.Logger) (err error) {
	p, err := pipeline.Build(binding, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, p.Close())
	}()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer utils.UncheckedErrorFunc(f.Close)

	format := p.Format()
	sink := pipeline.WriterSink(f)
	var wav *pcm.WAVWriter
	if format.FormatTag == device.WaveFormatPCM {
		if wav, err = pcm.NewWAVWriter(f, format); err != nil {
			return err
		}
		sink = pipeline.SinkFunc(func(chunk wave.Audio, _ []byte) error {
			return wav.Write(chunk)
		})
	}

	stream := pipeline.NewToneStream(ctx, pipeline.Tone{
		Frequency:  440,
		Amplitude:  0.5,
		SampleRate: int(format.SamplesPerSecond),
		Channels:   int(format.Channels),
		Duration:   time.Second,
	})
	defer utils.UncheckedErrorFunc(func() error { return stream.Close(ctx) })

	n, err := p.Run(ctx, stream, sink)
	if err != nil {
		return err
	}
	if wav != nil {
		if err := wav.Close(); err != nil {
			return err
		}
	}
	logger.Infow("wrote test tone", "path", path, "chunks", n, "mime_type", p.MIMEType())
	return f.Sync()
}
