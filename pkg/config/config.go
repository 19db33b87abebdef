// Package config loads the otp project file. The same structure can be
// written as TOML (otp.toml) or YAML (otp.yaml / otp.yml).
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/OpenTraceLab/OpenTracePins/pkg/def"
	"github.com/OpenTraceLab/OpenTracePins/pkg/layout"
)

// FileNames are the project files Find looks for, in order
var FileNames = []string{"otp.toml", "otp.yaml", "otp.yml"}

// Config is the project configuration
type Config struct {
	Cell      string       `toml:"cell" yaml:"cell"`
	OutputDir string       `toml:"output_dir" yaml:"output_dir"`
	Formats   []string     `toml:"formats" yaml:"formats"`
	DEF       DEFConfig    `toml:"def" yaml:"def"`
	Layers    LayersConfig `toml:"layers" yaml:"layers"`
	Stripes   StripeTable  `toml:"stripes" yaml:"stripes"`
}

// DEFConfig controls pin extraction
type DEFConfig struct {
	Paths  []string `toml:"paths" yaml:"paths"`
	Layer  string   `toml:"layer" yaml:"layer"`
	Strict bool     `toml:"strict" yaml:"strict"`
	Jobs   int      `toml:"jobs" yaml:"jobs"`
}

// LayerConfig is a GDS layer/datatype pair
type LayerConfig struct {
	Number   int `toml:"number" yaml:"number"`
	Datatype int `toml:"datatype" yaml:"datatype"`
}

// LayersConfig holds the metal and text layers
type LayersConfig struct {
	Metal LayerConfig `toml:"metal" yaml:"metal"`
	Text  LayerConfig `toml:"text" yaml:"text"`
}

// StripeNet is one row of the stripe table
type StripeNet struct {
	Name string  `toml:"name" yaml:"name"`
	X    float64 `toml:"x" yaml:"x"`
}

// StripeTable is the power stripe table. Nets are an array so the file
// order is the drawing order.
type StripeTable struct {
	Width float64     `toml:"width" yaml:"width"`
	YMin  float64     `toml:"y_min" yaml:"y_min"`
	YMax  float64     `toml:"y_max" yaml:"y_max"`
	Nets  []StripeNet `toml:"net" yaml:"net"`
}

// DefaultConfig returns the built-in tile configuration
func DefaultConfig() *Config {
	stripes := layout.DefaultStripeConfig()
	nets := make([]StripeNet, 0, len(stripes.Stripes))
	for _, s := range stripes.Stripes {
		nets = append(nets, StripeNet{Name: s.Net, X: s.X})
	}

	return &Config{
		Cell:      "tt_rc_filter",
		OutputDir: "gds",
		Formats:   []string{"gds"},
		DEF: DEFConfig{
			Layer: def.DefaultLayer,
		},
		Layers: LayersConfig{
			Metal: LayerConfig{Number: layout.LayerMet4.Number, Datatype: layout.LayerMet4.Datatype},
			Text:  LayerConfig{Number: layout.LayerText.Number, Datatype: layout.LayerText.Datatype},
		},
		Stripes: StripeTable{
			Width: stripes.Width,
			YMin:  stripes.YMin,
			YMax:  stripes.YMax,
			Nets:  nets,
		},
	}
}

// Validate fills unset fields with defaults and checks the rest
func (c *Config) Validate() error {
	defaults := DefaultConfig()
	if c.Cell == "" {
		c.Cell = defaults.Cell
	}
	if c.OutputDir == "" {
		c.OutputDir = defaults.OutputDir
	}
	if len(c.Formats) == 0 {
		c.Formats = defaults.Formats
	}
	if c.DEF.Layer == "" {
		c.DEF.Layer = defaults.DEF.Layer
	}
	if c.DEF.Jobs < 0 {
		c.DEF.Jobs = 0
	}

	var errs []error
	if strings.ContainsAny(c.Cell, `/\ `) {
		errs = append(errs, fmt.Errorf("cell name %q must not contain path separators or spaces", c.Cell))
	}
	for name, l := range map[string]LayerConfig{"metal": c.Layers.Metal, "text": c.Layers.Text} {
		if l.Number < 0 || l.Number > math.MaxInt16 || l.Datatype < 0 || l.Datatype > math.MaxInt16 {
			errs = append(errs, fmt.Errorf("layer %s %d/%d out of range", name, l.Number, l.Datatype))
		}
	}
	if err := c.StripeConfig().Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// StripeConfig converts the stripe table for the generator
func (c *Config) StripeConfig() layout.StripeConfig {
	stripes := make([]layout.Stripe, 0, len(c.Stripes.Nets))
	for _, n := range c.Stripes.Nets {
		stripes = append(stripes, layout.Stripe{Net: n.Name, X: n.X})
	}
	return layout.StripeConfig{
		Stripes: stripes,
		Width:   c.Stripes.Width,
		YMin:    c.Stripes.YMin,
		YMax:    c.Stripes.YMax,
	}
}

// ParseLayer reads a "layer/datatype" pair such as "71/20". A bare number
// means datatype 0.
func ParseLayer(s string) (LayerConfig, error) {
	num, dt, hasDT := strings.Cut(strings.TrimSpace(s), "/")
	var l LayerConfig
	var err error
	if l.Number, err = strconv.Atoi(num); err != nil {
		return LayerConfig{}, fmt.Errorf("invalid GDS layer %q: %w", s, err)
	}
	if hasDT {
		if l.Datatype, err = strconv.Atoi(dt); err != nil {
			return LayerConfig{}, fmt.Errorf("invalid GDS datatype in %q: %w", s, err)
		}
	}
	return l, nil
}

// LayerSet returns the configured layers
func (c *Config) LayerSet() layout.LayerSet {
	return layout.LayerSet{
		Metal: layout.Layer{Name: c.DEF.Layer, Number: c.Layers.Metal.Number, Datatype: c.Layers.Metal.Datatype},
		Text:  layout.Layer{Name: "text", Number: c.Layers.Text.Number, Datatype: c.Layers.Text.Datatype},
	}
}

// DEFOptions returns the extractor options for this configuration
func (c *Config) DEFOptions() []def.Option {
	opts := []def.Option{def.WithLayer(c.DEF.Layer)}
	if c.DEF.Strict {
		opts = append(opts, def.WithStrict())
	}
	return opts
}

// Builder returns a layout builder for this configuration
func (c *Config) Builder() *layout.Builder {
	return &layout.Builder{
		Layers:     c.LayerSet(),
		Stripes:    c.StripeConfig(),
		DEFOptions: c.DEFOptions(),
		Jobs:       c.DEF.Jobs,
	}
}

// Load reads a project file. The format follows the extension; fields
// missing from the file keep their default values. Relative DEF paths are
// resolved against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	// The file's net list replaces the default table rather than merging
	cfg.Stripes.Nets = nil

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%s: failed to parse YAML: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%s: unsupported config format", path)
	}

	if cfg.Stripes.Nets == nil {
		cfg.Stripes.Nets = DefaultConfig().Stripes.Nets
	}

	base := filepath.Dir(path)
	for i, p := range cfg.DEF.Paths {
		if !filepath.IsAbs(p) {
			cfg.DEF.Paths[i] = filepath.Join(base, p)
		}
	}
	if !filepath.IsAbs(cfg.OutputDir) {
		cfg.OutputDir = filepath.Join(base, cfg.OutputDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Find walks from startDir up to the filesystem root looking for a project
// file. It returns "" and no error when none exists.
func Find(startDir string) (string, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			} else if !errors.Is(err, os.ErrNotExist) {
				return "", fmt.Errorf("failed to stat %q: %w", candidate, err)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}
