package audioenc

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/edaniels/audioenc/device"
)

// ErrInvalidRequest is returned for requests rejected before any device is touched.
var ErrInvalidRequest = errors.New("invalid format request")

// A DiscoveryError happens when the enumeration machinery itself fails. It is not
// an indication that a matching device or format does not exist.
type DiscoveryError struct {
	Op  string
	Err error
}

func newDiscoveryError(op string, err error) *DiscoveryError {
	return &DiscoveryError{Op: op, Err: err}
}

// releaseAs releases r and reports a native failure as a *DiscoveryError.
func releaseAs(op string, r device.Releaser) error {
	if err := r.Release(); err != nil {
		return newDiscoveryError(op, err)
	}
	return nil
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("device discovery failed during %s: %v", e.Op, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// Code returns the native error code behind the failure, or device.CodeFail when
// the underlying error did not carry one.
func (e *DiscoveryError) Code() int32 {
	var native *device.Error
	if errors.As(e.Err, &native) {
		return native.Code
	}
	return device.CodeFail
}

// An EncoderNotFoundError happens when no device has the requested friendly name.
type EncoderNotFoundError struct {
	Name string
}

func (e *EncoderNotFoundError) Error() string {
	return fmt.Sprintf("audio encoder %q not found", e.Name)
}

// A FormatNotResolvableError happens when an encoder was found but none of its
// formats matches the request exactly. Available lists every format the encoder
// offers, rendered for display to the user.
type FormatNotResolvableError struct {
	Encoder   string
	Request   FormatRequest
	Available []string
}

func (e *FormatNotResolvableError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "audio encoder %q has no format matching %s; available formats:",
		e.Encoder, describeTriple(e.Request.IsMono, e.Request.KHz, e.Request.KBps))
	if len(e.Available) == 0 {
		sb.WriteString(" none")
	}
	for _, f := range e.Available {
		sb.WriteString("\n  ")
		sb.WriteString(f)
	}
	return sb.String()
}
