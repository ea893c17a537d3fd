// Package malgo exposes miniaudio's playback and capture devices as a
// device.Service.
package malgo

import (
	"github.com/edaniels/golog"
	"github.com/gen2brain/malgo"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/edaniels/audioenc/device"
	"github.com/edaniels/audioenc/device/registry"
)

// A Context lists devices. *malgo.AllocatedContext is one.
type Context interface {
	Devices(kind malgo.DeviceType) ([]malgo.DeviceInfo, error)
	DeviceInfo(kind malgo.DeviceType, id malgo.DeviceID, mode malgo.ShareMode) (malgo.DeviceInfo, error)
}

// A Service enumerates a miniaudio context. Capture devices advertise their
// native formats on an output pin and playback devices on an input pin. There
// are no compressors.
type Service struct {
	ctx    Context
	logger golog.Logger
	close  func() error
}

// New returns a Service over an existing context. Closing the service leaves the
// context alone.
func New(ctx Context, logger golog.Logger) *Service {
	return &Service{ctx: ctx, logger: logger}
}

// Open initializes a miniaudio context on the default backends. The caller must
// Close the service.
func Open(logger golog.Logger) (*Service, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logger.Debugw("miniaudio", "message", message)
	})
	if err != nil {
		return nil, errors.Wrap(err, "initializing miniaudio context")
	}
	s := New(ctx, logger)
	s.close = func() error {
		err := ctx.Uninit()
		ctx.Free()
		return err
	}
	return s, nil
}

// Close releases the context if the service opened it.
func (s *Service) Close() error {
	if s.close == nil {
		return nil
	}
	closeFn := s.close
	s.close = nil
	return closeFn()
}

var categoryKinds = map[device.Category]malgo.DeviceType{
	device.CategoryAudioCapture:  malgo.Capture,
	device.CategoryAudioRenderer: malgo.Playback,
}

// Enumerate snapshots the devices of the category.
func (s *Service) Enumerate(category device.Category) (device.EntryEnumerator, error) {
	reg := registry.New()
	kind, ok := categoryKinds[category]
	if !ok {
		return reg.Enumerate(category)
	}
	infos, err := s.ctx.Devices(kind)
	if err != nil {
		return nil, multierr.Combine(device.NewError("Devices", device.CodeFail), err)
	}
	for _, info := range infos {
		reg.Register(category, s.deviceOf(kind, info))
	}
	return reg.Enumerate(category)
}

func (s *Service) deviceOf(kind malgo.DeviceType, info malgo.DeviceInfo) registry.Device {
	id := formatDeviceID(info.ID)
	name := info.Name()
	if name == "" {
		name = id
	}
	direction := device.DirectionOutput
	if kind == malgo.Playback {
		direction = device.DirectionInput
	}
	return registry.Device{
		Name: name,
		Path: id,
		Opener: func() ([]registry.PinSpec, func() error, error) {
			full, err := s.ctx.DeviceInfo(kind, info.ID, malgo.Shared)
			if err != nil {
				s.logger.Debugw("error querying device", "name", name, "error", err)
				return nil, nil, multierr.Combine(device.NewError("DeviceInfo", device.CodeDeviceGone), err)
			}
			formats := make([]registry.MediaFormat, 0, len(full.Formats))
			for _, f := range full.Formats {
				formats = append(formats, mediaFormatOf(f))
			}
			return []registry.PinSpec{{Direction: direction, Formats: formats}}, nil, nil
		},
	}
}

// mediaFormatOf describes a native data format as a wave format. A format of
// unknown sample type is not a wave format.
func mediaFormatOf(f malgo.DataFormat) registry.MediaFormat {
	var tag uint16
	switch f.Format {
	case malgo.FormatU8, malgo.FormatS16, malgo.FormatS24, malgo.FormatS32:
		tag = device.WaveFormatPCM
	case malgo.FormatF32:
		tag = device.WaveFormatIEEEFloat
	default:
		return registry.MediaFormat{Type: device.FormatTypeNone}
	}
	wf := device.NewPCMWaveFormat(int(f.Channels), int(f.SampleRate), malgo.SampleSizeInBytes(f.Format)*8)
	wf.FormatTag = tag
	return registry.WaveMedia(wf)
}

// formatDeviceID renders a device ID without its zero padding.
func formatDeviceID(id malgo.DeviceID) string {
	n := len(id)
	for n > 1 && id[n-1] == 0 {
		n--
	}
	return string(id[:n])
}
