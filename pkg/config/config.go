// Package config loads zinefold job files.
//
// A job file names the scanned images and describes the paper they are
// imposed onto. JSON, TOML and YAML are accepted; the decoder is chosen by
// file extension:
//
//	{
//	  "images": ["scans/*.png"],
//	  "columns": 2,
//	  "paperSize": {"size": "letter", "margin": 0.25, "gutter": 0.125},
//	  "oddPages": "pad"
//	}
//
// Margins cascade from the most specific key to the least: marginLeft,
// then marginX, then margin, then zero (likewise for the other edges).
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/zinefold/pkg/errors"
	"github.com/matzehuels/zinefold/pkg/impose"
	"github.com/matzehuels/zinefold/pkg/units"
)

// Default values applied by SetDefaults.
const (
	DefaultColumns   = 1
	DefaultOddPages  = "pad"
	DefaultOutputDir = "out"
	DefaultTimeout   = 2 * time.Minute
)

// Config is one imposition job.
type Config struct {
	Images      []string   `json:"images" toml:"images" yaml:"images"`
	Columns     int        `json:"columns" toml:"columns" yaml:"columns"`
	PaperSize   Paper      `json:"paperSize" toml:"paperSize" yaml:"paperSize"`
	Format      string     `json:"format,omitempty" toml:"format" yaml:"format,omitempty"`
	BackIsFirst bool       `json:"backIsFirst,omitempty" toml:"backIsFirst" yaml:"backIsFirst,omitempty"`
	SkipCovers  bool       `json:"skipCovers,omitempty" toml:"skipCovers" yaml:"skipCovers,omitempty"`
	OddPages    string     `json:"oddPages,omitempty" toml:"oddPages" yaml:"oddPages,omitempty"`
	Output      Output     `json:"output" toml:"output" yaml:"output"`
	Compositor  Compositor `json:"compositor" toml:"compositor" yaml:"compositor"`

	// Path is the file the job was loaded from. Relative image paths and
	// globs resolve against its directory.
	Path string `json:"-" toml:"-" yaml:"-"`
}

// Paper describes the physical sheet. Nil lengths are unset and fall
// through the margin cascade.
type Paper struct {
	Size         string   `json:"size,omitempty" toml:"size" yaml:"size,omitempty"`
	Width        *float64 `json:"width,omitempty" toml:"width" yaml:"width,omitempty"`
	Height       *float64 `json:"height,omitempty" toml:"height" yaml:"height,omitempty"`
	Margin       *float64 `json:"margin,omitempty" toml:"margin" yaml:"margin,omitempty"`
	MarginX      *float64 `json:"marginX,omitempty" toml:"marginX" yaml:"marginX,omitempty"`
	MarginY      *float64 `json:"marginY,omitempty" toml:"marginY" yaml:"marginY,omitempty"`
	MarginLeft   *float64 `json:"marginLeft,omitempty" toml:"marginLeft" yaml:"marginLeft,omitempty"`
	MarginRight  *float64 `json:"marginRight,omitempty" toml:"marginRight" yaml:"marginRight,omitempty"`
	MarginTop    *float64 `json:"marginTop,omitempty" toml:"marginTop" yaml:"marginTop,omitempty"`
	MarginBottom *float64 `json:"marginBottom,omitempty" toml:"marginBottom" yaml:"marginBottom,omitempty"`
	// MarginBotton is the misspelled key older job files carry. MarginBottom
	// wins when both are set.
	MarginBotton *float64 `json:"marginBotton,omitempty" toml:"marginBotton" yaml:"marginBotton,omitempty"`
	OffsetX      float64  `json:"offsetX,omitempty" toml:"offsetX" yaml:"offsetX,omitempty"`
	OffsetY      float64  `json:"offsetY,omitempty" toml:"offsetY" yaml:"offsetY,omitempty"`
	Gutter       float64  `json:"gutter,omitempty" toml:"gutter" yaml:"gutter,omitempty"`
	Unit         string   `json:"unit,omitempty" toml:"unit" yaml:"unit,omitempty"`
}

// Output controls where sheets are written.
type Output struct {
	Dir       string `json:"dir,omitempty" toml:"dir" yaml:"dir,omitempty"`
	Extension string `json:"extension,omitempty" toml:"extension" yaml:"extension,omitempty"`
	// PDF, when set, also binds all sheet images into one PDF at this path.
	PDF string `json:"pdf,omitempty" toml:"pdf" yaml:"pdf,omitempty"`
	// Publish, when set, uploads the written files to s3://bucket/prefix.
	Publish string `json:"publish,omitempty" toml:"publish" yaml:"publish,omitempty"`
}

// Compositor configures the external image tool.
type Compositor struct {
	Binary  string `json:"binary,omitempty" toml:"binary" yaml:"binary,omitempty"`
	Workers int    `json:"workers,omitempty" toml:"workers" yaml:"workers,omitempty"`
	Timeout string `json:"timeout,omitempty" toml:"timeout" yaml:"timeout,omitempty"`
}

// Sheet is the resolved paper: every length set, in one unit.
type Sheet struct {
	Width, Height                                    float64
	MarginLeft, MarginRight, MarginTop, MarginBottom float64
	OffsetX, OffsetY, Gutter                         float64
	Unit                                             units.Unit
}

// Load reads, decodes, defaults and validates the job file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data in the format named by ext (".json", ".toml", ".yaml"
// or ".yml"). No defaults are applied.
func Parse(data []byte, ext string) (*Config, error) {
	var cfg Config
	var err error
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "json", "":
		err = json.Unmarshal(data, &cfg)
	case "toml":
		_, err = toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg)
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unsupported config format %q (must be one of: json, toml, yaml)", ext)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	return &cfg, nil
}

// SetDefaults fills unset fields. It is idempotent.
func (c *Config) SetDefaults() {
	if c.Columns == 0 {
		c.Columns = DefaultColumns
	}
	if c.Format == "" {
		c.Format = string(impose.FormatSpread)
	}
	if c.OddPages == "" {
		c.OddPages = DefaultOddPages
	}
	if c.PaperSize.Unit == "" {
		c.PaperSize.Unit = string(units.DefaultUnit)
	}
	if c.Output.Dir == "" {
		c.Output.Dir = DefaultOutputDir
	}
	if c.Output.Extension == "" {
		c.Output.Extension = impose.DefaultExtension
	}
	if c.Compositor.Workers == 0 {
		c.Compositor.Workers = runtime.NumCPU()
	}
	if c.Compositor.Timeout == "" {
		c.Compositor.Timeout = DefaultTimeout.String()
	}
}

// Validate checks the job for values the engine cannot use.
func (c *Config) Validate() error {
	if len(c.Images) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "images: at least one image is required")
	}
	for i, img := range c.Images {
		if err := errors.ValidateImagePath(img); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "images[%d]", i)
		}
	}
	if c.Columns < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "columns must be at least 1, got %d", c.Columns)
	}
	if _, err := c.SplitOptions(); err != nil {
		return err
	}
	if _, err := c.OddPolicy(); err != nil {
		return err
	}
	if _, err := c.Sheet(); err != nil {
		return err
	}
	if err := errors.ValidateOutputExtension(c.Output.Extension); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "output.extension")
	}
	if c.Output.Publish != "" && !strings.HasPrefix(c.Output.Publish, "s3://") {
		return errors.New(errors.ErrCodeInvalidConfig, "output.publish must be an s3:// URL, got %q", c.Output.Publish)
	}
	if c.Compositor.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "compositor.workers must not be negative, got %d", c.Compositor.Workers)
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	return nil
}

// Sheet resolves the paper: preset or explicit size, the margin cascade and
// the unit.
func (c *Config) Sheet() (Sheet, error) {
	p := c.PaperSize
	u, err := units.ParseUnit(p.Unit)
	if err != nil {
		return Sheet{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "paperSize.unit")
	}

	w, h := units.DefaultPaper.In(u)
	if p.Width != nil {
		w = *p.Width
	}
	if p.Height != nil {
		h = *p.Height
	}
	if p.Size != "" {
		preset, err := units.LookupPaper(p.Size)
		if err != nil {
			return Sheet{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "paperSize.size")
		}
		w, h = preset.In(u)
	}
	if w <= 0 || h <= 0 {
		return Sheet{}, errors.New(errors.ErrCodeInvalidConfig, "paperSize must be positive, got %gx%g %s", w, h, u)
	}

	s := Sheet{
		Width:        w,
		Height:       h,
		MarginLeft:   cascade(p.MarginLeft, p.MarginX, p.Margin),
		MarginRight:  cascade(p.MarginRight, p.MarginX, p.Margin),
		MarginTop:    cascade(p.MarginTop, p.MarginY, p.Margin),
		MarginBottom: cascade(p.MarginBottom, p.MarginBotton, p.MarginY, p.Margin),
		OffsetX:      p.OffsetX,
		OffsetY:      p.OffsetY,
		Gutter:       p.Gutter,
		Unit:         u,
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"marginLeft", s.MarginLeft},
		{"marginRight", s.MarginRight},
		{"marginTop", s.MarginTop},
		{"marginBottom", s.MarginBottom},
		{"gutter", s.Gutter},
	} {
		if f.v < 0 {
			return Sheet{}, errors.New(errors.ErrCodeInvalidConfig, "paperSize.%s must not be negative, got %g", f.name, f.v)
		}
	}
	return s, nil
}

// LayoutInput bridges the job to the layout calculator. columnWidthPx is
// the pixel width of one grid column (a facing pair).
func (c *Config) LayoutInput(columnWidthPx, pageHeightPx int) (impose.LayoutInput, error) {
	s, err := c.Sheet()
	if err != nil {
		return impose.LayoutInput{}, err
	}
	return impose.LayoutInput{
		PaperWidth:   s.Width,
		PaperHeight:  s.Height,
		MarginLeft:   s.MarginLeft,
		MarginRight:  s.MarginRight,
		MarginTop:    s.MarginTop,
		MarginBottom: s.MarginBottom,
		Gutter:       s.Gutter,
		OffsetX:      s.OffsetX,
		OffsetY:      s.OffsetY,
		Columns:      c.Columns,
		PageWidthPx:  columnWidthPx,
		PageHeightPx: pageHeightPx,
		Unit:         s.Unit,
	}, nil
}

// SplitOptions bridges the job to the spread splitter.
func (c *Config) SplitOptions() (impose.SplitOptions, error) {
	f, err := impose.ParseFormat(c.Format)
	if err != nil {
		return impose.SplitOptions{}, err
	}
	return impose.SplitOptions{Format: f, BackIsFirst: c.BackIsFirst, SkipCovers: c.SkipCovers}, nil
}

// OddPolicy maps oddPages to the planner policy.
func (c *Config) OddPolicy() (impose.OddPolicy, error) {
	switch strings.ToLower(c.OddPages) {
	case "pad", "":
		return impose.OddPad, nil
	case "drop":
		return impose.OddDrop, nil
	default:
		return 0, errors.New(errors.ErrCodeInvalidConfig, "invalid oddPages: %q (must be one of: pad, drop)", c.OddPages)
	}
}

// Timeout parses compositor.timeout; empty means DefaultTimeout.
func (c *Config) Timeout() (time.Duration, error) {
	if c.Compositor.Timeout == "" {
		return DefaultTimeout, nil
	}
	d, err := time.ParseDuration(c.Compositor.Timeout)
	if err != nil || d < 0 {
		return 0, errors.New(errors.ErrCodeInvalidConfig, "invalid compositor.timeout: %q", c.Compositor.Timeout)
	}
	return d, nil
}

// AssembleOptions bridges the job to the command assembler.
func (c *Config) AssembleOptions() impose.AssembleOptions {
	return impose.AssembleOptions{OutputDir: c.Output.Dir, Extension: c.Output.Extension}
}

func cascade(vals ...*float64) float64 {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return 0
}
