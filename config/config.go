// Package config loads the TOML configuration of the audio_encoders tool.
package config

import (
	"bytes"
	_ "embed"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/edaniels/audioenc"
	"github.com/edaniels/audioenc/device"
)

//go:embed sample_config.toml
var sampleConfig []byte

// A Backend names a device enumeration service implementation.
type Backend string

// Known backends.
const (
	BackendRegistry     Backend = "registry"
	BackendMediaDevices Backend = "mediadevices"
	BackendMalgo        Backend = "malgo"
)

var knownCategories = map[device.Category]bool{
	device.CategoryAudioCompressor: true,
	device.CategoryAudioCapture:    true,
	device.CategoryAudioRenderer:   true,
}

// A Preset is a named format request.
type Preset struct {
	Request     string `toml:"request"`
	Description string `toml:"description"`
}

// Config is the tool's configuration.
type Config struct {
	Backend  Backend           `toml:"backend"`
	Category device.Category   `toml:"category"`
	Presets  map[string]Preset `toml:"presets"`
}

// Default returns the configuration described by the sample file.
func Default() Config {
	cfg, err := Parse(sampleConfig)
	if err != nil {
		panic(errors.Wrap(err, "embedded sample config is invalid"))
	}
	return *cfg
}

// Load reads the file at path over the defaults. An empty path yields the
// defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := Default()
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	return Parse(data)
}

// Parse decodes and validates a configuration. Unknown keys are errors.
func Parse(data []byte) (*Config, error) {
	cfg := Config{
		Backend:  BackendRegistry,
		Category: device.CategoryAudioCompressor,
	}
	if err := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate makes sure the backend and category are known and every preset's
// request parses.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendRegistry, BackendMediaDevices, BackendMalgo:
	default:
		return errors.Errorf("unknown backend %q", c.Backend)
	}
	if !knownCategories[c.Category] {
		return errors.Errorf("unknown category %q", c.Category)
	}
	for name, p := range c.Presets {
		if _, err := audioenc.ParseFormatRequest(p.Request); err != nil {
			return errors.Wrapf(err, "preset %q", name)
		}
	}
	return nil
}

// Preset returns the request of the named preset.
func (c *Config) Preset(name string) (audioenc.FormatRequest, error) {
	p, ok := c.Presets[name]
	if !ok {
		return audioenc.FormatRequest{}, errors.Errorf("no preset named %q", name)
	}
	return audioenc.ParseFormatRequest(p.Request)
}

// PresetNames returns the preset names in order.
func (c *Config) PresetNames() []string {
	names := make([]string, 0, len(c.Presets))
	for name := range c.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CreateSample writes the sample configuration to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "creating config directory")
		}
	}
	return errors.Wrap(os.WriteFile(path, sampleConfig, 0o644), "writing sample config")
}
