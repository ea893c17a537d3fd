package audioenc

import (
	"github.com/edaniels/golog"
	"go.uber.org/multierr"

	"github.com/edaniels/audioenc/device"
)

// A Negotiator resolves format requests against the encoders of one category.
type Negotiator struct {
	service  device.Service
	category device.Category
	logger   golog.Logger
}

// A NegotiatorOption configures a Negotiator.
type NegotiatorOption func(n *Negotiator)

// WithCategory selects the device category to search. The default is
// device.CategoryAudioCompressor.
func WithCategory(category device.Category) NegotiatorOption {
	return func(n *Negotiator) {
		n.category = category
	}
}

// WithLogger sets the logger. The default, also used for a nil logger, is
// golog.Global().
func WithLogger(logger golog.Logger) NegotiatorOption {
	return func(n *Negotiator) {
		if logger == nil {
			logger = golog.Global()
		}
		n.logger = logger
	}
}

// NewNegotiator returns a Negotiator using the given service.
func NewNegotiator(service device.Service, opts ...NegotiatorOption) *Negotiator {
	n := &Negotiator{
		service:  service,
		category: device.CategoryAudioCompressor,
		logger:   golog.Global(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Resolve finds the first encoder named req.CodecName and, unless req.UseDefaults
// is set, its first format exactly matching req. The caller owns the returned
// binding.
//
// Errors are ErrInvalidRequest (wrapped), *EncoderNotFoundError,
// *FormatNotResolvableError or *DiscoveryError. None of them are worth retrying.
func (n *Negotiator) Resolve(req FormatRequest) (binding *CompressorBinding, err error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	enc, err := LookupEncoder(n.service, n.category, req.CodecName, n.logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Combine(err, enc.Release())
		if err != nil && binding != nil {
			err = multierr.Combine(err, binding.Release())
			binding = nil
		}
	}()

	if req.UseDefaults {
		n.logger.Debugw("using encoder defaults", "encoder", enc.FriendlyName())
		return newCompressorBinding(enc.FriendlyName(), enc.TakeFilter(), nil, nil, n.logger), nil
	}

	formats, err := enc.Formats()
	if err != nil {
		return nil, err
	}
	match, releaseErr := formats.Match(req)
	if match == nil {
		return nil, multierr.Combine(&FormatNotResolvableError{
			Encoder:   enc.FriendlyName(),
			Request:   req,
			Available: formats.Strings(),
		}, releaseErr)
	}
	if releaseErr != nil {
		return nil, releaseErr
	}

	n.logger.Debugw("negotiated format", "encoder", enc.FriendlyName(), "format", match.String())
	mediaType := match.takeMediaType()
	format := *match
	return newCompressorBinding(enc.FriendlyName(), enc.TakeFilter(), mediaType, &format, n.logger), nil
}

// Catalog enumerates every encoder of the negotiator's category. The caller owns
// the catalog.
func (n *Negotiator) Catalog() (*EncoderCatalog, error) {
	return NewEncoderCatalog(n.service, n.category, n.logger)
}
