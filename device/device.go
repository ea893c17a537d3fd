// Package device describes the host facility that lists installed media devices by
// category and exposes their properties, filters, pins and media types.
//
// Every object handed out by a Service is a natively owned resource. Whoever
// obtained it owns it until it is released or explicitly handed to someone else.
package device

import (
	"github.com/google/uuid"
)

// PropertyFriendlyName is the property holding a device's human readable name.
const PropertyFriendlyName = "FriendlyName"

// PropertyDevicePath is the property holding a backend specific device path.
const PropertyDevicePath = "DevicePath"

// A Category groups devices of one kind.
type Category string

// Known categories.
const (
	CategoryAudioCompressor Category = "audio-compressor"
	CategoryAudioCapture    Category = "audio-capture"
	CategoryAudioRenderer   Category = "audio-renderer"
)

// A Direction says which way data flows through a pin.
type Direction int

// Pin directions.
const (
	DirectionInput Direction = iota
	DirectionOutput
)

func (d Direction) String() string {
	if d == DirectionOutput {
		return "output"
	}
	return "input"
}

// A Token identifies a single native handle for as long as it is owned.
type Token = uuid.UUID

// NewToken returns a fresh ownership token.
func NewToken() Token {
	return uuid.New()
}

// A Releaser is a natively owned resource.
type Releaser interface {
	// Release gives the resource back to the service. The resource must not
	// be used afterwards.
	Release() error
}

// A Handle is a natively owned resource with an identity.
type Handle interface {
	Releaser
	Token() Token
}

// A Service enumerates devices by category.
type Service interface {
	Enumerate(category Category) (EntryEnumerator, error)
}

// An EntryEnumerator yields device entries one at a time.
type EntryEnumerator interface {
	Handle
	// Next returns the next entry or nil once the enumerator is exhausted.
	Next() (Entry, error)
}

// An Entry is a registry record for one installed device.
type Entry interface {
	Handle
	Properties() (PropertyBag, error)
	BindFilter() (Filter, error)
}

// A PropertyBag exposes the metadata of an Entry.
type PropertyBag interface {
	Handle
	Read(name string) (string, error)
}

// A Filter is a bound, usable device.
type Filter interface {
	Handle
	Pins() (PinEnumerator, error)
}

// A PinEnumerator yields the pins of a Filter.
type PinEnumerator interface {
	Handle
	// Next returns the next pin or nil once the enumerator is exhausted.
	Next() (Pin, error)
}

// A Pin is a connection point of a Filter.
type Pin interface {
	Handle
	Direction() Direction
	MediaTypes() (MediaTypeEnumerator, error)
}

// A MediaTypeEnumerator yields the media types a Pin advertises.
type MediaTypeEnumerator interface {
	Handle
	// Next returns the next media type or nil once the enumerator is exhausted.
	Next() (MediaType, error)
}

// A MediaType describes one format a Pin can produce.
type MediaType interface {
	Handle
	FormatType() FormatType
	// Format returns the raw format block whose layout depends on FormatType.
	Format() []byte
}
