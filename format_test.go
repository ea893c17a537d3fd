package audioenc

import (
	"errors"
	"testing"

	"go.viam.com/test"

	"github.com/edaniels/audioenc/device"
)

func TestFormatDescriptorString(t *testing.T) {
	for _, tc := range []struct {
		wf       device.WaveFormat
		expected string
	}{
		{device.NewPCMWaveFormat(2, 44100, 16), "Stereo - 44 kHz - 1411 kbps"},
		{device.NewPCMWaveFormat(1, 32000, 8), "Mono - 32 kHz - 256 kbps"},
		{device.NewPCMWaveFormat(1, 32000, 16), "Mono - 32 kHz - 512 kbps"},
		{device.NewPCMWaveFormat(2, 11025, 8), "Stereo - 11 kHz - 176 kbps"},
		{device.NewPCMWaveFormat(6, 48000, 16), "Stereo - 48 kHz - 4608 kbps"},
		{device.WaveFormat{Channels: 0, SamplesPerSecond: 999, AverageBytesPerSecond: 124}, "Mono - 0 kHz - 0 kbps"},
	} {
		d := descriptorOf(tc.wf)
		test.That(t, d.String(), test.ShouldEqual, tc.expected)
	}
}

func TestFormatDescriptorMatches(t *testing.T) {
	d := descriptorOf(device.NewPCMWaveFormat(1, 32000, 16))
	test.That(t, d.Matches(FormatRequest{CodecName: "x", IsMono: true, KHz: 32, KBps: 512}), test.ShouldBeTrue)
	test.That(t, d.Matches(FormatRequest{CodecName: "x", IsMono: false, KHz: 32, KBps: 512}), test.ShouldBeFalse)
	test.That(t, d.Matches(FormatRequest{CodecName: "x", IsMono: true, KHz: 32, KBps: 256}), test.ShouldBeFalse)
	test.That(t, d.Matches(FormatRequest{CodecName: "x", IsMono: true, KHz: 44, KBps: 512}), test.ShouldBeFalse)
	test.That(t, d.WaveFormat(), test.ShouldResemble, device.NewPCMWaveFormat(1, 32000, 16))
}

func TestFormatDescriptorRelease(t *testing.T) {
	d := descriptorOf(device.NewPCMWaveFormat(2, 48000, 16))
	test.That(t, d.Release(), test.ShouldBeNil)
	test.That(t, d.Release(), test.ShouldBeNil)
	// values outlive the media type
	test.That(t, d.String(), test.ShouldEqual, "Stereo - 48 kHz - 1536 kbps")
}

func TestParseFormatRequest(t *testing.T) {
	for _, tc := range []struct {
		in       string
		expected FormatRequest
	}{
		{"PCM", DefaultsRequest("PCM")},
		{"PCM:default", DefaultsRequest("PCM")},
		{"PCM:Defaults", DefaultsRequest("PCM")},
		{"PCM:stereo:44:1411", FormatRequest{CodecName: "PCM", KHz: 44, KBps: 1411}},
		{"Windows Media Audio V8:Mono:32:256", FormatRequest{CodecName: "Windows Media Audio V8", IsMono: true, KHz: 32, KBps: 256}},
	} {
		req, err := ParseFormatRequest(tc.in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, req, test.ShouldResemble, tc.expected)
	}

	for _, in := range []string{
		"",
		"  ",
		":default",
		"PCM:fast",
		"PCM:stereo:44",
		"PCM:quad:44:1411",
		"PCM:stereo:x:1411",
		"PCM:stereo:44:y",
		"PCM:stereo:44:1411:extra",
	} {
		_, err := ParseFormatRequest(in)
		test.That(t, errors.Is(err, ErrInvalidRequest), test.ShouldBeTrue)
	}
}

func TestFormatRequestString(t *testing.T) {
	test.That(t, DefaultsRequest("PCM").String(), test.ShouldEqual, "PCM (defaults)")
	req := FormatRequest{CodecName: "PCM", IsMono: true, KHz: 8, KBps: 64}
	test.That(t, req.String(), test.ShouldEqual, "PCM Mono - 8 kHz - 64 kbps")
}

func TestFormatNotResolvableErrorText(t *testing.T) {
	err := &FormatNotResolvableError{
		Encoder:   "PCM",
		Request:   FormatRequest{CodecName: "PCM", IsMono: true, KHz: 44, KBps: 1411},
		Available: []string{"Stereo - 44 kHz - 1411 kbps", "Mono - 32 kHz - 256 kbps"},
	}
	test.That(t, err.Error(), test.ShouldEqual,
		"audio encoder \"PCM\" has no format matching Mono - 44 kHz - 1411 kbps; available formats:\n"+
			"  Stereo - 44 kHz - 1411 kbps\n"+
			"  Mono - 32 kHz - 256 kbps")

	err.Available = nil
	test.That(t, err.Error(), test.ShouldEndWith, "available formats: none")
}

func TestDiscoveryErrorCode(t *testing.T) {
	err := newDiscoveryError("next device", device.NewError("Next", device.CodeDeviceGone))
	test.That(t, err.Code(), test.ShouldEqual, device.CodeDeviceGone)
	test.That(t, err.Error(), test.ShouldContainSubstring, "next device")

	var native *device.Error
	test.That(t, errors.As(err, &native), test.ShouldBeTrue)

	err = newDiscoveryError("parse wave format", device.ErrShortWaveFormat)
	test.That(t, err.Code(), test.ShouldEqual, device.CodeFail)
	test.That(t, errors.Is(err, device.ErrShortWaveFormat), test.ShouldBeTrue)
}

func descriptorOf(wf device.WaveFormat) *FormatDescriptor {
	block, err := wf.MarshalBinary()
	if err != nil {
		panic(err)
	}
	d, err := newFormatDescriptor(&staticMediaType{block: block})
	if err != nil {
		panic(err)
	}
	return d
}

type staticMediaType struct {
	block []byte
}

func (m *staticMediaType) Token() device.Token           { return device.Token{} }
func (m *staticMediaType) Release() error                { return nil }
func (m *staticMediaType) FormatType() device.FormatType { return device.FormatTypeWaveFormatEx }
func (m *staticMediaType) Format() []byte                { return m.block }
