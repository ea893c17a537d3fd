package audioenc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/edaniels/audioenc/device"
)

// A FormatRequest is a symbolic ask for an encoder and, unless UseDefaults is set,
// one exact format of it. IsMono, KHz and KBps are ignored when UseDefaults is set.
type FormatRequest struct {
	CodecName   string
	IsMono      bool
	KHz         int
	KBps        int
	UseDefaults bool
}

// DefaultsRequest asks for the named encoder with its own default format.
func DefaultsRequest(codecName string) FormatRequest {
	return FormatRequest{CodecName: codecName, UseDefaults: true}
}

// Validate rejects requests that can never be resolved.
func (r FormatRequest) Validate() error {
	if strings.TrimSpace(r.CodecName) == "" {
		return errors.Wrap(ErrInvalidRequest, "codec name is empty")
	}
	return nil
}

func (r FormatRequest) String() string {
	if r.UseDefaults {
		return r.CodecName + " (defaults)"
	}
	return r.CodecName + " " + describeTriple(r.IsMono, r.KHz, r.KBps)
}

// ParseFormatRequest parses "name", "name:default" or "name:mono|stereo:khz:kbps".
func ParseFormatRequest(s string) (FormatRequest, error) {
	parts := strings.Split(s, ":")
	req := FormatRequest{CodecName: parts[0]}
	if err := req.Validate(); err != nil {
		return FormatRequest{}, err
	}
	switch len(parts) {
	case 1:
		req.UseDefaults = true
		return req, nil
	case 2:
		if !strings.EqualFold(parts[1], "default") && !strings.EqualFold(parts[1], "defaults") {
			return FormatRequest{}, errors.Wrapf(ErrInvalidRequest, "unexpected %q, want \"default\"", parts[1])
		}
		req.UseDefaults = true
		return req, nil
	case 4:
	default:
		return FormatRequest{}, errors.Wrapf(ErrInvalidRequest, "%q is not name[:default] or name:channels:khz:kbps", s)
	}

	switch strings.ToLower(parts[1]) {
	case "mono":
		req.IsMono = true
	case "stereo":
	default:
		return FormatRequest{}, errors.Wrapf(ErrInvalidRequest, "channels must be mono or stereo, got %q", parts[1])
	}
	var err error
	if req.KHz, err = strconv.Atoi(parts[2]); err != nil {
		return FormatRequest{}, errors.Wrapf(ErrInvalidRequest, "bad khz %q", parts[2])
	}
	if req.KBps, err = strconv.Atoi(parts[3]); err != nil {
		return FormatRequest{}, errors.Wrapf(ErrInvalidRequest, "bad kbps %q", parts[3])
	}
	return req, nil
}

// A FormatDescriptor is one concrete audio format exposed by a device. It owns the
// media type it was parsed from until released or taken; its values stay readable
// after either.
type FormatDescriptor struct {
	SizeBytes             int
	AverageBytesPerSecond int
	BlockAlign            int
	Channels              int
	SamplesPerSecond      int
	BitsPerSample         int
	FormatTag             int

	mediaType device.MediaType
}

func newFormatDescriptor(mt device.MediaType) (*FormatDescriptor, error) {
	wf, err := device.ParseWaveFormat(mt.Format())
	if err != nil {
		return nil, err
	}
	return &FormatDescriptor{
		SizeBytes:             int(wf.ExtraSize),
		AverageBytesPerSecond: int(wf.AverageBytesPerSecond),
		BlockAlign:            int(wf.BlockAlign),
		Channels:              int(wf.Channels),
		SamplesPerSecond:      int(wf.SamplesPerSecond),
		BitsPerSample:         int(wf.BitsPerSample),
		FormatTag:             int(wf.FormatTag),
		mediaType:             mt,
	}, nil
}

// KHz is the sample rate in whole kilohertz.
func (d *FormatDescriptor) KHz() int {
	return d.SamplesPerSecond / 1000
}

// KBps is the bit rate in whole kilobits per second.
func (d *FormatDescriptor) KBps() int {
	return d.AverageBytesPerSecond * 8 / 1000
}

// IsMono reports whether the format has fewer than two channels.
func (d *FormatDescriptor) IsMono() bool {
	return d.Channels < 2
}

// Matches reports whether the descriptor is exactly the requested format.
func (d *FormatDescriptor) Matches(req FormatRequest) bool {
	return d.IsMono() == req.IsMono && d.KHz() == req.KHz && d.KBps() == req.KBps
}

// WaveFormat returns the descriptor as a wave format header.
func (d *FormatDescriptor) WaveFormat() device.WaveFormat {
	return device.WaveFormat{
		FormatTag:             uint16(d.FormatTag),
		Channels:              uint16(d.Channels),
		SamplesPerSecond:      uint32(d.SamplesPerSecond),
		AverageBytesPerSecond: uint32(d.AverageBytesPerSecond),
		BlockAlign:            uint16(d.BlockAlign),
		BitsPerSample:         uint16(d.BitsPerSample),
		ExtraSize:             uint16(d.SizeBytes),
	}
}

// String renders the format for people, e.g. "Stereo - 44 kHz - 1411 kbps".
func (d *FormatDescriptor) String() string {
	return describeTriple(d.IsMono(), d.KHz(), d.KBps())
}

// Release gives the media type back to the device. Releasing twice, or after
// the media type was taken, does nothing.
func (d *FormatDescriptor) Release() error {
	if d.mediaType == nil {
		return nil
	}
	mt := d.mediaType
	d.mediaType = nil
	return releaseAs("release media type", mt)
}

// takeMediaType moves ownership of the media type to the caller.
func (d *FormatDescriptor) takeMediaType() device.MediaType {
	mt := d.mediaType
	d.mediaType = nil
	return mt
}

func describeTriple(isMono bool, khz, kbps int) string {
	channels := "Stereo"
	if isMono {
		channels = "Mono"
	}
	return fmt.Sprintf("%s - %d kHz - %d kbps", channels, khz, kbps)
}
