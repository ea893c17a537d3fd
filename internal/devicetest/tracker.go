// Package devicetest provides a device.Service decorator that accounts for every
// handle it hands out and can inject native failures, plus helpers for building
// registry devices in tests.
package devicetest

import (
	"sync"

	"github.com/edaniels/audioenc/device"
)

// An Op is a service call that can be counted and made to fail.
type Op string

// Service calls.
const (
	OpEnumerate     Op = "Enumerate"
	OpNextEntry     Op = "NextEntry"
	OpProperties    Op = "Properties"
	OpRead          Op = "Read"
	OpBindFilter    Op = "BindFilter"
	OpPins          Op = "Pins"
	OpNextPin       Op = "NextPin"
	OpMediaTypes    Op = "MediaTypes"
	OpNextMediaType Op = "NextMediaType"
)

// A Kind is a type of handle.
type Kind string

// Handle kinds.
const (
	KindEntryEnumerator     Kind = "EntryEnumerator"
	KindEntry               Kind = "Entry"
	KindPropertyBag         Kind = "PropertyBag"
	KindFilter              Kind = "Filter"
	KindPinEnumerator       Kind = "PinEnumerator"
	KindPin                 Kind = "Pin"
	KindMediaTypeEnumerator Kind = "MediaTypeEnumerator"
	KindMediaType           Kind = "MediaType"
)

type failure struct {
	nth  int
	code int32
}

// A Tracker wraps a device.Service and records every acquire and release.
type Tracker struct {
	inner device.Service

	mu             sync.Mutex
	calls          map[Op]int
	failures       map[Op]failure
	releaseFails   map[Kind]failure
	acquired       map[Kind]int
	released       map[Kind]int
	live           map[device.Token]Kind
	doubleReleases int
}

// NewTracker wraps inner.
func NewTracker(inner device.Service) *Tracker {
	return &Tracker{
		inner:        inner,
		calls:        map[Op]int{},
		failures:     map[Op]failure{},
		releaseFails: map[Kind]failure{},
		acquired:     map[Kind]int{},
		released:     map[Kind]int{},
		live:         map[device.Token]Kind{},
	}
}

// FailOn makes the nth call (counting from 1) of op fail with the given code.
func (t *Tracker) FailOn(op Op, nth int, code int32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures[op] = failure{nth: nth, code: code}
}

// FailReleaseOn makes the nth release (counting from 1) of a handle of the kind
// report a failure with the given code. The handle is still released underneath.
func (t *Tracker) FailReleaseOn(k Kind, nth int, code int32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.releaseFails[k] = failure{nth: nth, code: code}
}

// Calls returns how many times op was called.
func (t *Tracker) Calls(op Op) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls[op]
}

// Acquired returns how many handles of the kind were handed out.
func (t *Tracker) Acquired(k Kind) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.acquired[k]
}

// Released returns how many handles of the kind were released.
func (t *Tracker) Released(k Kind) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.released[k]
}

// Outstanding returns how many handles are still held by someone.
func (t *Tracker) Outstanding() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.live)
}

// OutstandingOf returns how many handles of the kind are still held.
func (t *Tracker) OutstandingOf(k Kind) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, kind := range t.live {
		if kind == k {
			n++
		}
	}
	return n
}

// DoubleReleases returns how many times an already released handle was released.
func (t *Tracker) DoubleReleases() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.doubleReleases
}

func (t *Tracker) call(op Op) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls[op]++
	if f, ok := t.failures[op]; ok && f.nth == t.calls[op] {
		return device.NewError(string(op), f.code)
	}
	return nil
}

func (t *Tracker) acquire(k Kind, token device.Token) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.acquired[k]++
	t.live[token] = k
}

func (t *Tracker) release(k Kind, token device.Token) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.live[token]; !ok {
		t.doubleReleases++
		return nil
	}
	delete(t.live, token)
	t.released[k]++
	if f, ok := t.releaseFails[k]; ok && f.nth == t.released[k] {
		return device.NewError("Release("+string(k)+")", f.code)
	}
	return nil
}

// Enumerate enumerates the wrapped service.
func (t *Tracker) Enumerate(category device.Category) (device.EntryEnumerator, error) {
	if err := t.call(OpEnumerate); err != nil {
		return nil, err
	}
	inner, err := t.inner.Enumerate(category)
	if err != nil {
		return nil, err
	}
	t.acquire(KindEntryEnumerator, inner.Token())
	return &entryEnumerator{tracked{t, KindEntryEnumerator, inner}, inner}, nil
}

type tracked struct {
	t      *Tracker
	kind   Kind
	handle device.Handle
}

func (h tracked) Token() device.Token {
	return h.handle.Token()
}

func (h tracked) Release() error {
	injected := h.t.release(h.kind, h.handle.Token())
	if err := h.handle.Release(); err != nil {
		return err
	}
	return injected
}

type entryEnumerator struct {
	tracked
	inner device.EntryEnumerator
}

func (e *entryEnumerator) Next() (device.Entry, error) {
	if err := e.t.call(OpNextEntry); err != nil {
		return nil, err
	}
	inner, err := e.inner.Next()
	if err != nil || inner == nil {
		return nil, err
	}
	e.t.acquire(KindEntry, inner.Token())
	return &entry{tracked{e.t, KindEntry, inner}, inner}, nil
}

type entry struct {
	tracked
	inner device.Entry
}

func (e *entry) Properties() (device.PropertyBag, error) {
	if err := e.t.call(OpProperties); err != nil {
		return nil, err
	}
	inner, err := e.inner.Properties()
	if err != nil {
		return nil, err
	}
	e.t.acquire(KindPropertyBag, inner.Token())
	return &propertyBag{tracked{e.t, KindPropertyBag, inner}, inner}, nil
}

func (e *entry) BindFilter() (device.Filter, error) {
	if err := e.t.call(OpBindFilter); err != nil {
		return nil, err
	}
	inner, err := e.inner.BindFilter()
	if err != nil {
		return nil, err
	}
	e.t.acquire(KindFilter, inner.Token())
	return &filter{tracked{e.t, KindFilter, inner}, inner}, nil
}

type propertyBag struct {
	tracked
	inner device.PropertyBag
}

func (p *propertyBag) Read(name string) (string, error) {
	if err := p.t.call(OpRead); err != nil {
		return "", err
	}
	return p.inner.Read(name)
}

type filter struct {
	tracked
	inner device.Filter
}

// Unwrap returns the wrapped filter.
func (f *filter) Unwrap() device.Filter {
	return f.inner
}

func (f *filter) Pins() (device.PinEnumerator, error) {
	if err := f.t.call(OpPins); err != nil {
		return nil, err
	}
	inner, err := f.inner.Pins()
	if err != nil {
		return nil, err
	}
	f.t.acquire(KindPinEnumerator, inner.Token())
	return &pinEnumerator{tracked{f.t, KindPinEnumerator, inner}, inner}, nil
}

type pinEnumerator struct {
	tracked
	inner device.PinEnumerator
}

func (p *pinEnumerator) Next() (device.Pin, error) {
	if err := p.t.call(OpNextPin); err != nil {
		return nil, err
	}
	inner, err := p.inner.Next()
	if err != nil || inner == nil {
		return nil, err
	}
	p.t.acquire(KindPin, inner.Token())
	return &pin{tracked{p.t, KindPin, inner}, inner}, nil
}

type pin struct {
	tracked
	inner device.Pin
}

func (p *pin) Direction() device.Direction {
	return p.inner.Direction()
}

func (p *pin) MediaTypes() (device.MediaTypeEnumerator, error) {
	if err := p.t.call(OpMediaTypes); err != nil {
		return nil, err
	}
	inner, err := p.inner.MediaTypes()
	if err != nil {
		return nil, err
	}
	p.t.acquire(KindMediaTypeEnumerator, inner.Token())
	return &mediaTypeEnumerator{tracked{p.t, KindMediaTypeEnumerator, inner}, inner}, nil
}

type mediaTypeEnumerator struct {
	tracked
	inner device.MediaTypeEnumerator
}

func (m *mediaTypeEnumerator) Next() (device.MediaType, error) {
	if err := m.t.call(OpNextMediaType); err != nil {
		return nil, err
	}
	inner, err := m.inner.Next()
	if err != nil || inner == nil {
		return nil, err
	}
	m.t.acquire(KindMediaType, inner.Token())
	return &mediaType{tracked{m.t, KindMediaType, inner}, inner}, nil
}

type mediaType struct {
	tracked
	inner device.MediaType
}

func (m *mediaType) FormatType() device.FormatType {
	return m.inner.FormatType()
}

func (m *mediaType) Format() []byte {
	return m.inner.Format()
}
