package audioenc

import (
	"github.com/edaniels/golog"
	"go.uber.org/multierr"

	"github.com/edaniels/audioenc/device"
)

// An Encoder is an installed encoder device bound to its native filter. Its
// formats are discovered on first use.
type Encoder struct {
	friendlyName string
	devicePath   string
	filter       device.Filter
	formats      *FormatCatalog
	logger       golog.Logger
	released     bool
}

func newEncoder(friendlyName, devicePath string, filter device.Filter, logger golog.Logger) *Encoder {
	return &Encoder{friendlyName: friendlyName, devicePath: devicePath, filter: filter, logger: logger}
}

// FriendlyName returns the name the device reported.
func (e *Encoder) FriendlyName() string {
	return e.friendlyName
}

// DevicePath returns the backend specific path of the device, empty if it
// reported none.
func (e *Encoder) DevicePath() string {
	return e.devicePath
}

// Filter returns the native filter while the encoder still owns it, nil otherwise.
func (e *Encoder) Filter() device.Filter {
	return e.filter
}

// Formats returns the encoder's format catalog, building it on the first call.
// A failed build is not remembered; the next call queries the device again.
// Once the encoder is released, Formats fails.
func (e *Encoder) Formats() (*FormatCatalog, error) {
	if e.released {
		return nil, newDiscoveryError("enumerate pins", device.NewError("encoder released", device.CodeFail))
	}
	if e.formats != nil {
		return e.formats, nil
	}
	if e.filter == nil {
		return nil, newDiscoveryError("enumerate pins", device.NewError("filter released", device.CodeFail))
	}
	formats, err := BuildFormatCatalog(e.filter, e.logger)
	if err != nil {
		return nil, err
	}
	e.formats = formats
	return formats, nil
}

// formatsBuilt reports whether Formats has succeeded before.
func (e *Encoder) formatsBuilt() bool {
	return e.formats != nil
}

// TakeFilter moves ownership of the native filter to the caller. Release will
// no longer release it.
func (e *Encoder) TakeFilter() device.Filter {
	f := e.filter
	e.filter = nil
	return f
}

// Release releases the format catalog, if built, and then the filter, if still
// owned. It is safe to call more than once.
func (e *Encoder) Release() error {
	if e.released {
		return nil
	}
	e.released = true
	var err error
	if e.formats != nil {
		err = e.formats.Release()
	}
	if e.filter != nil {
		err = multierr.Combine(err, releaseAs("release filter", e.filter))
		e.filter = nil
	}
	return err
}
