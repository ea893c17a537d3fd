package audioenc

import (
	"github.com/edaniels/golog"
	"go.uber.org/multierr"

	"github.com/edaniels/audioenc/device"
)

// A FormatCatalog is the ordered list of wave formats a filter's output pins
// advertise, in the order the device reported them.
type FormatCatalog struct {
	formats  []*FormatDescriptor
	released bool
}

// BuildFormatCatalog queries every output pin of the filter. Media types that are
// not wave formats are skipped. On failure everything acquired so far is released
// before the *DiscoveryError is returned.
func BuildFormatCatalog(filter device.Filter, logger golog.Logger) (fc *FormatCatalog, err error) {
	if logger == nil {
		logger = golog.Global()
	}
	catalog := &FormatCatalog{}
	defer func() {
		if err != nil {
			err = multierr.Combine(err, catalog.Release())
			fc = nil
		}
	}()

	pins, err := filter.Pins()
	if err != nil {
		return nil, newDiscoveryError("enumerate pins", err)
	}
	defer func() {
		err = multierr.Combine(err, releaseAs("release pin enumerator", pins))
	}()

	for {
		pin, err := pins.Next()
		if err != nil {
			return nil, newDiscoveryError("next pin", err)
		}
		if pin == nil {
			break
		}
		if err := catalog.addPinFormats(pin, logger); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

// addPinFormats appends the wave formats of an output pin and always releases the pin.
func (fc *FormatCatalog) addPinFormats(pin device.Pin, logger golog.Logger) (err error) {
	defer func() {
		err = multierr.Combine(err, releaseAs("release pin", pin))
	}()
	if pin.Direction() != device.DirectionOutput {
		return nil
	}

	types, err := pin.MediaTypes()
	if err != nil {
		return newDiscoveryError("enumerate media types", err)
	}
	defer func() {
		err = multierr.Combine(err, releaseAs("release media type enumerator", types))
	}()

	for {
		mt, err := types.Next()
		if err != nil {
			return newDiscoveryError("next media type", err)
		}
		if mt == nil {
			return nil
		}
		if !device.IsWaveShape(mt) {
			logger.Debugw("skipping media type that is not a wave format", "format_type", mt.FormatType())
			if err := releaseAs("release media type", mt); err != nil {
				return err
			}
			continue
		}
		desc, err := newFormatDescriptor(mt)
		if err != nil {
			return multierr.Combine(newDiscoveryError("parse wave format", err), releaseAs("release media type", mt))
		}
		fc.formats = append(fc.formats, desc)
	}
}

// Len returns the number of formats.
func (fc *FormatCatalog) Len() int {
	return len(fc.formats)
}

// At returns the i-th format. It panics if i is out of range.
func (fc *FormatCatalog) At(i int) *FormatDescriptor {
	return fc.formats[i]
}

// All returns the formats in device order.
func (fc *FormatCatalog) All() []*FormatDescriptor {
	out := make([]*FormatDescriptor, len(fc.formats))
	copy(out, fc.formats)
	return out
}

// Strings renders every format for display.
func (fc *FormatCatalog) Strings() []string {
	out := make([]string, 0, len(fc.formats))
	for _, f := range fc.formats {
		out = append(out, f.String())
	}
	return out
}

// Take moves the i-th format out of the catalog. The catalog keeps describing
// it but no longer releases it.
func (fc *FormatCatalog) Take(i int) *FormatDescriptor {
	d := *fc.formats[i]
	fc.formats[i].mediaType = nil
	return &d
}

// Match returns the first format exactly matching the request. Every format
// visited before it, or all of them when nothing matches, is released on the way.
// The returned format is still owned by the catalog.
func (fc *FormatCatalog) Match(req FormatRequest) (*FormatDescriptor, error) {
	var err error
	for _, f := range fc.formats {
		if f.Matches(req) {
			return f, err
		}
		err = multierr.Combine(err, f.Release())
	}
	return nil, err
}

// Release releases every format still owned by the catalog. It is safe to call
// more than once.
func (fc *FormatCatalog) Release() error {
	if fc.released {
		return nil
	}
	fc.released = true
	var err error
	for _, f := range fc.formats {
		err = multierr.Combine(err, f.Release())
	}
	return err
}
