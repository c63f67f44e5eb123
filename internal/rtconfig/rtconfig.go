// Package rtconfig loads regfwalk's runtime tunables from an optional YAML
// file, layered over built-in defaults. There is no environment-variable
// sprawl: defaults, then a file overlay, nothing else.
package rtconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// OutputFormat selects regfwalk's print style.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// Config holds regfwalk's tunables. Zero value is not valid on its own;
// use Default() and overlay a file onto it.
type Config struct {
	// ValueCacheCapacity is loaded from the file but is not passed on to the
	// key-item packages: each KeyItem's decoded-value LRU cache always uses
	// valuelist.DefaultCacheCapacity.
	ValueCacheCapacity int `yaml:"valueCacheCapacity"`

	// MaxRecursionDepth is loaded from the file but is not passed on to the
	// sub-keys walk, which always uses subkeysindex.MaxRecursionDepth. Load
	// does not clamp it.
	MaxRecursionDepth int `yaml:"maxRecursionDepth"`

	// Format selects text or json output.
	Format OutputFormat `yaml:"format"`
}

// Default returns the built-in tunable set.
func Default() Config {
	return Config{
		ValueCacheCapacity: 64,
		MaxRecursionDepth:  512,
		Format:             FormatText,
	}
}

// Load reads defaults, then overlays path if it is non-empty. A missing
// path is an error; an empty path just returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("rtconfig: read %s: %w", path, err)
	}

	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return Config{}, fmt.Errorf("rtconfig: parse %s: %w", path, err)
	}

	if overlay.ValueCacheCapacity > 0 {
		cfg.ValueCacheCapacity = overlay.ValueCacheCapacity
	}
	if overlay.MaxRecursionDepth > 0 {
		cfg.MaxRecursionDepth = overlay.MaxRecursionDepth
	}
	if overlay.Format != "" {
		cfg.Format = overlay.Format
	}

	if cfg.Format != FormatText && cfg.Format != FormatJSON {
		return Config{}, fmt.Errorf("rtconfig: unknown format %q", cfg.Format)
	}

	return cfg, nil
}
