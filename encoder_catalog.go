package audioenc

import (
	"strings"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/edaniels/audioenc/device"
)

// An EncoderCatalog holds every encoder device of a category, enumerated once
// when the catalog is created.
type EncoderCatalog struct {
	encoders []*Encoder
	logger   golog.Logger
	released bool
}

// NewEncoderCatalog enumerates and binds every device of the category. On failure
// every handle acquired so far is released and a *DiscoveryError is returned.
func NewEncoderCatalog(service device.Service, category device.Category, logger golog.Logger) (c *EncoderCatalog, err error) {
	if logger == nil {
		logger = golog.Global()
	}
	catalog := &EncoderCatalog{logger: logger}
	defer func() {
		if err != nil {
			err = multierr.Combine(err, catalog.Release())
			c = nil
		}
	}()

	entries, err := service.Enumerate(category)
	if err != nil {
		return nil, newDiscoveryError("enumerate "+string(category), err)
	}
	defer func() {
		err = multierr.Combine(err, releaseAs("release device enumerator", entries))
	}()

	for {
		entry, err := entries.Next()
		if err != nil {
			return nil, newDiscoveryError("next device", err)
		}
		if entry == nil {
			break
		}
		enc, err := inspectEntry(entry, func(string) bool { return true }, logger)
		if err != nil {
			return nil, err
		}
		catalog.encoders = append(catalog.encoders, enc)
	}
	logger.Debugw("enumerated encoders", "category", category, "count", len(catalog.encoders))
	return catalog, nil
}

// LookupEncoder scans the category one device at a time and binds only the first
// device whose friendly name equals name, ignoring case. Devices inspected before
// it are released as the scan passes them and no device after it is touched.
func LookupEncoder(service device.Service, category device.Category, name string, logger golog.Logger) (enc *Encoder, err error) {
	if logger == nil {
		logger = golog.Global()
	}
	entries, err := service.Enumerate(category)
	if err != nil {
		return nil, newDiscoveryError("enumerate "+string(category), err)
	}
	defer func() {
		err = multierr.Combine(err, releaseAs("release device enumerator", entries))
		if err != nil && enc != nil {
			err = multierr.Combine(err, enc.Release())
			enc = nil
		}
	}()

	accept := func(friendlyName string) bool {
		return strings.EqualFold(friendlyName, name)
	}
	for {
		entry, err := entries.Next()
		if err != nil {
			return nil, newDiscoveryError("next device", err)
		}
		if entry == nil {
			return nil, &EncoderNotFoundError{Name: name}
		}
		enc, err := inspectEntry(entry, accept, logger)
		if err != nil {
			return nil, err
		}
		if enc != nil {
			logger.Debugw("found encoder", "name", enc.FriendlyName())
			return enc, nil
		}
	}
}

// inspectEntry reads the entry's friendly name and, if accepted, binds its filter.
// The entry and its property bag are always released; a rejected entry yields a
// nil encoder.
func inspectEntry(entry device.Entry, accept func(string) bool, logger golog.Logger) (enc *Encoder, err error) {
	defer func() {
		err = multierr.Combine(err, releaseAs("release device", entry))
		if err != nil && enc != nil {
			err = multierr.Combine(err, enc.Release())
			enc = nil
		}
	}()

	friendlyName, path, accepted, err := readProperties(entry, accept)
	if err != nil {
		return nil, err
	}
	if !accepted {
		logger.Debugw("skipping encoder", "name", friendlyName)
		return nil, nil
	}
	filter, err := entry.BindFilter()
	if err != nil {
		return nil, newDiscoveryError("bind filter of "+friendlyName, err)
	}
	return newEncoder(friendlyName, path, filter, logger), nil
}

// readProperties reads the friendly name and, for accepted names only, the
// device path, which is empty when the device has none. The property bag is
// released before returning.
func readProperties(entry device.Entry, accept func(string) bool) (name, path string, accepted bool, err error) {
	bag, err := entry.Properties()
	if err != nil {
		return "", "", false, newDiscoveryError("open property bag", err)
	}
	defer func() {
		err = multierr.Combine(err, releaseAs("release property bag", bag))
	}()
	name, err = bag.Read(device.PropertyFriendlyName)
	if err != nil {
		return "", "", false, newDiscoveryError("read friendly name", err)
	}
	if !accept(name) {
		return name, "", false, nil
	}
	path, err = bag.Read(device.PropertyDevicePath)
	var native *device.Error
	if errors.As(err, &native) && native.Code == device.CodeNotFound {
		path, err = "", nil
	}
	if err != nil {
		return "", "", false, newDiscoveryError("read device path", err)
	}
	return name, path, true, nil
}

// Len returns the number of encoders still held by the catalog.
func (c *EncoderCatalog) Len() int {
	return len(c.encoders)
}

// At returns the i-th encoder. It panics if i is out of range.
func (c *EncoderCatalog) At(i int) *Encoder {
	return c.encoders[i]
}

// Names returns the friendly names of the encoders in catalog order.
func (c *EncoderCatalog) Names() []string {
	names := make([]string, 0, len(c.encoders))
	for _, e := range c.encoders {
		names = append(names, e.FriendlyName())
	}
	return names
}

// Find returns the first encoder whose friendly name equals name, ignoring case.
// Every encoder scanned before it is rejected, released and dropped from the
// catalog, so indices shift after a Find. The returned encoder stays owned by the
// catalog, and so do later encoders with the same name until Release. If nothing
// matches the catalog ends up empty and an *EncoderNotFoundError is returned.
// Use LookupEncoder to bind only the first matching device.
func (c *EncoderCatalog) Find(name string) (*Encoder, error) {
	var err error
	for i, e := range c.encoders {
		if strings.EqualFold(e.FriendlyName(), name) {
			c.encoders = c.encoders[i:]
			return e, err
		}
		err = multierr.Combine(err, e.Release())
	}
	c.encoders = nil
	return nil, multierr.Combine(&EncoderNotFoundError{Name: name}, err)
}

// Release releases every encoder still held. It is safe to call more than once.
func (c *EncoderCatalog) Release() error {
	if c.released {
		return nil
	}
	c.released = true
	var err error
	for _, e := range c.encoders {
		err = multierr.Combine(err, e.Release())
	}
	c.encoders = nil
	return err
}
