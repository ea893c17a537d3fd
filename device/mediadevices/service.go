// Package mediadevices exposes the drivers registered with pion's mediadevices
// driver manager as a device.Service.
package mediadevices

import (
	"strings"

	"github.com/edaniels/golog"
	"github.com/pion/mediadevices/pkg/driver"
	"github.com/pion/mediadevices/pkg/driver/camera"
	"github.com/pion/mediadevices/pkg/prop"

	"github.com/edaniels/audioenc/device"
	"github.com/edaniels/audioenc/device/registry"
)

// A Service enumerates the driver manager afresh on every call to Enumerate.
// Capture devices are the audio recorders; no driver acts as a compressor or a
// renderer, so those categories are always empty.
type Service struct {
	manager *driver.Manager
	logger  golog.Logger
}

// New returns a Service over the global driver manager.
func New(logger golog.Logger) *Service {
	return &Service{manager: driver.GetManager(), logger: logger}
}

// Enumerate snapshots the drivers matching the category.
func (s *Service) Enumerate(category device.Category) (device.EntryEnumerator, error) {
	reg := registry.New()
	if category == device.CategoryAudioCapture {
		for _, d := range s.manager.Query(driver.FilterAudioRecorder()) {
			reg.Register(category, s.deviceOf(d))
		}
	}
	return reg.Enumerate(category)
}

func (s *Service) deviceOf(d driver.Driver) registry.Device {
	label := strings.Split(d.Info().Label, camera.LabelSeparator)[0]
	name, id := parseNameAndID(label)
	if name == "" {
		name, id = label, d.ID()
	}
	return registry.Device{
		Name: name,
		Path: id,
		Opener: func() ([]registry.PinSpec, func() error, error) {
			return s.open(d)
		},
	}
}

// open reads the driver's properties, opening it first if needed. A driver
// opened here is closed again when the filter is released.
func (s *Service) open(d driver.Driver) ([]registry.PinSpec, func() error, error) {
	closer := func() error { return nil }
	if d.Status() == driver.StateClosed {
		if err := d.Open(); err != nil {
			s.logger.Debugw("error opening driver for querying", "label", d.Info().Label, "error", err)
			return nil, nil, err
		}
		closer = d.Close
	}

	props := d.Properties()
	formats := make([]registry.MediaFormat, 0, len(props))
	for _, p := range props {
		formats = append(formats, mediaFormatOf(p.Audio))
	}
	return []registry.PinSpec{{Direction: device.DirectionOutput, Formats: formats}}, closer, nil
}

// mediaFormatOf describes an audio property as a wave format. Properties
// without a channel count or a sample rate are not wave formats.
func mediaFormatOf(a prop.Audio) registry.MediaFormat {
	if a.ChannelCount == 0 || a.SampleRate == 0 {
		return registry.MediaFormat{Type: device.FormatTypeNone}
	}
	bits := a.SampleSize
	tag := device.WaveFormatPCM
	if a.IsFloat {
		tag = device.WaveFormatIEEEFloat
		if bits == 0 {
			bits = 32
		}
	} else if bits == 0 {
		bits = 16
	}
	wf := device.NewPCMWaveFormat(a.ChannelCount, a.SampleRate, bits)
	wf.FormatTag = tag
	return registry.WaveMedia(wf)
}

// parseNameAndID splits a label like "Laptop Camera (video0)" into its name and
// ID. Either both are found or neither is.
func parseNameAndID(label string) (string, string) {
	if !strings.HasSuffix(label, ")") {
		return "", ""
	}
	open := strings.LastIndex(label, "(")
	if open < 0 {
		return "", ""
	}
	name := strings.TrimSpace(label[:open])
	id := label[open+1 : len(label)-1]
	if name == "" || id == "" {
		return "", ""
	}
	return name, id
}
