// Package registry is an in-process device enumeration service. Devices are
// registered by category and enumerated as snapshots, so registering or removing
// a device never disturbs an enumeration already in flight.
package registry

import (
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/edaniels/audioenc/codec"
	"github.com/edaniels/audioenc/device"
)

// ErrAlreadyReleased is returned when a handle is released twice.
var ErrAlreadyReleased = errors.New("handle already released")

// A MediaFormat is one media type a pin advertises.
type MediaFormat struct {
	Type  device.FormatType
	Block []byte
}

// WaveMedia returns the media format carrying the given wave format.
func WaveMedia(wf device.WaveFormat) MediaFormat {
	block, err := wf.MarshalBinary()
	if err != nil {
		// encoding a fixed size struct into memory cannot fail
		panic(err)
	}
	return MediaFormat{Type: device.FormatTypeWaveFormatEx, Block: block}
}

// A PinSpec describes one pin of a registered device.
type PinSpec struct {
	Direction device.Direction
	Formats   []MediaFormat
}

// A Device is a registered device.
type Device struct {
	Name string
	Path string
	Pins []PinSpec
	// Factory, when set, lets bound filters be encoded with in process.
	Factory codec.AudioEncoderFactory
	// Opener, when set, is called by BindFilter. The pins it returns replace Pins
	// and closer runs when the filter is released.
	Opener func() (pins []PinSpec, closer func() error, err error)
}

// A Registry is a device.Service backed by memory.
type Registry struct {
	mu      sync.Mutex
	devices map[device.Category][]Device
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{devices: map[device.Category][]Device{}}
}

// Register appends a device to a category. Enumeration order is registration order.
func (r *Registry) Register(category device.Category, d Device) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices[category] = append(r.devices[category], d)
}

// Unregister removes every device of the category with the given name and
// reports how many were removed.
func (r *Registry) Unregister(category device.Category, name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.devices[category][:0]
	removed := 0
	for _, d := range r.devices[category] {
		if strings.EqualFold(d.Name, name) {
			removed++
			continue
		}
		kept = append(kept, d)
	}
	r.devices[category] = kept
	return removed
}

// Enumerate returns an enumerator over a snapshot of the category.
func (r *Registry) Enumerate(category device.Category) (device.EntryEnumerator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := make([]Device, len(r.devices[category]))
	copy(snapshot, r.devices[category])
	return &entryEnumerator{handle: newHandle(), devices: snapshot}, nil
}

type handle struct {
	token    device.Token
	released bool
}

func newHandle() handle {
	return handle{token: device.NewToken()}
}

func (h *handle) Token() device.Token {
	return h.token
}

func (h *handle) Release() error {
	if h.released {
		return errors.Wrapf(ErrAlreadyReleased, "token %s", h.token)
	}
	h.released = true
	return nil
}

type entryEnumerator struct {
	handle
	devices []Device
	next    int
}

func (e *entryEnumerator) Next() (device.Entry, error) {
	if e.released {
		return nil, ErrAlreadyReleased
	}
	if e.next >= len(e.devices) {
		return nil, nil
	}
	d := e.devices[e.next]
	e.next++
	return &entry{handle: newHandle(), device: d}, nil
}

type entry struct {
	handle
	device Device
}

func (e *entry) Properties() (device.PropertyBag, error) {
	return &propertyBag{handle: newHandle(), props: map[string]string{
		device.PropertyFriendlyName: e.device.Name,
		device.PropertyDevicePath:   e.device.Path,
	}}, nil
}

func (e *entry) BindFilter() (device.Filter, error) {
	f := &filter{handle: newHandle(), device: e.device, pins: e.device.Pins}
	if e.device.Opener != nil {
		pins, closer, err := e.device.Opener()
		if err != nil {
			return nil, errors.Wrapf(err, "opening %q", e.device.Name)
		}
		f.pins, f.closer = pins, closer
	}
	return f, nil
}

type propertyBag struct {
	handle
	props map[string]string
}

func (p *propertyBag) Read(name string) (string, error) {
	v, ok := p.props[name]
	if !ok {
		return "", device.NewError("Read("+name+")", device.CodeNotFound)
	}
	return v, nil
}

type filter struct {
	handle
	device Device
	pins   []PinSpec
	closer func() error
}

func (f *filter) Pins() (device.PinEnumerator, error) {
	return &pinEnumerator{handle: newHandle(), pins: f.pins}, nil
}

func (f *filter) Release() error {
	if err := f.handle.Release(); err != nil {
		return err
	}
	if f.closer == nil {
		return nil
	}
	return f.closer()
}

// AudioEncoderFactory makes registered devices with a factory usable as encoders.
func (f *filter) AudioEncoderFactory() codec.AudioEncoderFactory {
	return f.device.Factory
}

type pinEnumerator struct {
	handle
	pins []PinSpec
	next int
}

func (p *pinEnumerator) Next() (device.Pin, error) {
	if p.next >= len(p.pins) {
		return nil, nil
	}
	spec := p.pins[p.next]
	p.next++
	return &pin{handle: newHandle(), spec: spec}, nil
}

type pin struct {
	handle
	spec PinSpec
}

func (p *pin) Direction() device.Direction {
	return p.spec.Direction
}

func (p *pin) MediaTypes() (device.MediaTypeEnumerator, error) {
	return &mediaTypeEnumerator{handle: newHandle(), formats: p.spec.Formats}, nil
}

type mediaTypeEnumerator struct {
	handle
	formats []MediaFormat
	next    int
}

func (m *mediaTypeEnumerator) Next() (device.MediaType, error) {
	if m.next >= len(m.formats) {
		return nil, nil
	}
	f := m.formats[m.next]
	m.next++
	return &mediaType{handle: newHandle(), format: f}, nil
}

type mediaType struct {
	handle
	format MediaFormat
}

func (m *mediaType) FormatType() device.FormatType {
	return m.format.Type
}

func (m *mediaType) Format() []byte {
	return m.format.Block
}
