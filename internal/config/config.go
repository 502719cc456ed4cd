// Package config loads YAML run descriptions for the n2f driver.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-n2f/em/export"
	"github.com/cwbudde/algo-n2f/em/fdtd"
	"github.com/cwbudde/algo-n2f/em/freq"
	"github.com/cwbudde/algo-n2f/em/geom"
	"github.com/cwbudde/algo-n2f/em/source"
	"github.com/cwbudde/algo-n2f/internal/logging"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid configuration")

// Point is an (x, y, z) triple written as a YAML sequence.
type Point [3]float64

// Vec converts p to a geometry vector.
func (p Point) Vec() geom.Vec { return geom.Vec{X: p[0], Y: p[1], Z: p[2]} }

// Config describes one simulation run.
type Config struct {
	Name        string          `yaml:"name"`
	Cell        CellConfig      `yaml:"cell"`
	Source      SourceConfig    `yaml:"source"`
	Frequencies FrequencyConfig `yaml:"frequencies"`
	Near        SurfaceSet      `yaml:"near"`
	Flux        SurfaceSet      `yaml:"flux"`
	Stop        StopConfig      `yaml:"stop"`
	FarField    FarFieldConfig  `yaml:"farfield"`
	Export      ExportConfig    `yaml:"export"`
	Logging     logging.Config  `yaml:"logging"`
	Parallelism int             `yaml:"parallelism"`
}

// CellConfig describes the FDTD cell.
type CellConfig struct {
	Size       Point   `yaml:"size"`
	Resolution float64 `yaml:"resolution"`
	PML        float64 `yaml:"pml"`
	Courant    float64 `yaml:"courant"`
	Epsilon    float64 `yaml:"epsilon"`
	Mu         float64 `yaml:"mu"`
}

// SourceConfig describes the point current driving the run.
type SourceConfig struct {
	Component string  `yaml:"component"`
	Position  Point   `yaml:"position"`
	Profile   string  `yaml:"profile"` // gaussian, continuous
	Frequency float64 `yaml:"frequency"`
	FWidth    float64 `yaml:"fwidth"`
	Amplitude float64 `yaml:"amplitude"`
	Start     float64 `yaml:"start"`
	Ramp      float64 `yaml:"ramp"` // continuous turn-on width
}

// FrequencyConfig lists the frequencies explicitly or as an evenly spaced
// band.
type FrequencyConfig struct {
	List   []float64 `yaml:"list,omitempty"`
	Center float64   `yaml:"center"`
	Width  float64   `yaml:"width"`
	Count  int       `yaml:"count"`
}

// SurfaceConfig is one planar surface; Normal is "+x", "-y", ....
type SurfaceConfig struct {
	Center Point  `yaml:"center"`
	Size   Point  `yaml:"size"`
	Normal string `yaml:"normal"`
}

// BoxConfig is a closed box of outward surfaces.
type BoxConfig struct {
	Center Point `yaml:"center"`
	Size   Point `yaml:"size"`
}

// SurfaceSet combines an optional box with explicit surfaces.
type SurfaceSet struct {
	Box      *BoxConfig      `yaml:"box,omitempty"`
	Surfaces []SurfaceConfig `yaml:"surfaces,omitempty"`
}

// Empty reports whether the set declares nothing.
func (s SurfaceSet) Empty() bool { return s.Box == nil && len(s.Surfaces) == 0 }

// StopConfig selects when the run ends. The run stops at the first
// condition that fires; MaxTime always applies.
type StopConfig struct {
	AfterSources float64      `yaml:"after_sources"`
	Decay        *DecayConfig `yaml:"decay,omitempty"`
	MaxTime      float64      `yaml:"max_time"`
}

// DecayConfig configures the field-decay predicate.
type DecayConfig struct {
	Interval  float64 `yaml:"interval"`
	Component string  `yaml:"component"`
	Point     Point   `yaml:"point"`
	By        float64 `yaml:"by"`
}

// FarFieldConfig selects the far-field outputs.
type FarFieldConfig struct {
	Radius     float64 `yaml:"radius"`
	Directions int     `yaml:"directions"`
	Points     []Point `yaml:"points,omitempty"`
}

// ExportConfig enables a grid export when Path is set.
type ExportConfig struct {
	Path       string  `yaml:"path"`
	Format     string  `yaml:"format"`
	Center     Point   `yaml:"center"`
	Size       Point   `yaml:"size"`
	Resolution float64 `yaml:"resolution"`
	Intensity  bool    `yaml:"intensity"`
}

// Default returns a TM line source in a 10x10 vacuum cell recorded on a
// 2x2 box.
func Default() *Config {
	return &Config{
		Name: "dipole",
		Cell: CellConfig{
			Size:       Point{10, 10, 0},
			Resolution: 10,
			PML:        1,
			Courant:    0.5,
			Epsilon:    1,
			Mu:         1,
		},
		Source: SourceConfig{
			Component: "ez",
			Profile:   "gaussian",
			Frequency: 0.5,
			FWidth:    0.3,
			Amplitude: 1,
		},
		Frequencies: FrequencyConfig{Center: 0.5, Width: 0.2, Count: 3},
		Near:        SurfaceSet{Box: &BoxConfig{Size: Point{2, 2, 0}}},
		Stop:        StopConfig{AfterSources: 20, MaxTime: 1000},
		FarField:    FarFieldConfig{Radius: 100, Directions: 36},
		Export:      ExportConfig{Format: "sqlite", Resolution: 1},
		Logging:     logging.Default(),
	}
}

// Load reads a YAML file over the defaults. The near and flux surface sets
// and the frequencies are replaced as a whole: a file that declares any of
// them gets exactly what it declares, and only an absent section falls back
// to the default. A band given by its center alone is a single frequency.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	def := Default()

	cfg := Default()
	cfg.Near = SurfaceSet{}
	cfg.Flux = SurfaceSet{}
	cfg.Frequencies = FrequencyConfig{}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Near.Empty() {
		cfg.Near = def.Near
	}

	fc := &cfg.Frequencies
	switch {
	case len(fc.List) == 0 && fc.Center == 0 && fc.Width == 0 && fc.Count == 0:
		cfg.Frequencies = def.Frequencies
	case len(fc.List) == 0 && fc.Width == 0 && fc.Count == 0:
		fc.Count = 1
	}

	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks every section by building the objects it describes.
func (c *Config) Validate() error {
	if err := c.FDTD().Validate(); err != nil {
		return fmt.Errorf("%w: cell: %v", ErrInvalid, err)
	}

	if _, err := c.SourceProfile(); err != nil {
		return fmt.Errorf("%w: source: %v", ErrInvalid, err)
	}

	if _, err := geom.ParseComponent(c.Source.Component); err != nil {
		return fmt.Errorf("%w: source: %v", ErrInvalid, err)
	}

	if _, err := c.FrequencySet(); err != nil {
		return fmt.Errorf("%w: frequencies: %v", ErrInvalid, err)
	}

	if c.Near.Empty() {
		return fmt.Errorf("%w: near: no surfaces", ErrInvalid)
	}

	if _, err := c.NearSurfaces(); err != nil {
		return fmt.Errorf("%w: near: %v", ErrInvalid, err)
	}

	if _, err := c.FluxSurfaces(); err != nil {
		return fmt.Errorf("%w: flux: %v", ErrInvalid, err)
	}

	if err := c.validateStop(); err != nil {
		return err
	}

	if !(c.FarField.Radius > 0) || c.FarField.Directions < 0 {
		return fmt.Errorf("%w: farfield: radius %v, directions %d", ErrInvalid, c.FarField.Radius, c.FarField.Directions)
	}

	if c.Export.Path != "" {
		if _, err := export.ParseFormat(c.Export.Format); err != nil {
			return fmt.Errorf("%w: export: %v", ErrInvalid, err)
		}

		if err := c.ExportGrid().Validate(); err != nil {
			return fmt.Errorf("%w: export: %v", ErrInvalid, err)
		}
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	return nil
}

func (c *Config) validateStop() error {
	s := c.Stop
	if !(s.MaxTime > 0) {
		return fmt.Errorf("%w: stop: max_time must be > 0", ErrInvalid)
	}

	if s.AfterSources < 0 {
		return fmt.Errorf("%w: stop: after_sources must be >= 0", ErrInvalid)
	}

	if d := s.Decay; d != nil {
		if !(d.Interval > 0) || !(d.By > 0 && d.By < 1) {
			return fmt.Errorf("%w: stop: decay interval %v, by %v", ErrInvalid, d.Interval, d.By)
		}

		if _, err := geom.ParseComponent(d.Component); err != nil {
			return fmt.Errorf("%w: stop: %v", ErrInvalid, err)
		}
	}

	return nil
}

// FDTD returns the simulation configuration.
func (c *Config) FDTD() fdtd.Config {
	return fdtd.Config{
		Size:       c.Cell.Size.Vec(),
		Resolution: c.Cell.Resolution,
		PML:        c.Cell.PML,
		Courant:    c.Cell.Courant,
		Epsilon:    c.Cell.Epsilon,
		Mu:         c.Cell.Mu,
	}
}

// SourceProfile builds the time profile of the source.
func (c *Config) SourceProfile() (source.Profile, error) {
	s := c.Source

	switch strings.ToLower(s.Profile) {
	case "", "gaussian":
		return source.NewGaussian(s.Frequency, s.FWidth, source.WithStart(s.Start))
	case "continuous", "cw":
		return source.NewContinuous(s.Frequency, source.WithStart(s.Start), source.WithWidth(s.Ramp))
	default:
		return nil, fmt.Errorf("unknown profile %q", s.Profile)
	}
}

// FrequencySet returns the explicit list if given, the band otherwise.
func (c *Config) FrequencySet() (freq.Set, error) {
	if len(c.Frequencies.List) > 0 {
		return freq.NewSet(c.Frequencies.List...)
	}

	return freq.Band(c.Frequencies.Center, c.Frequencies.Width, c.Frequencies.Count)
}

// NearSurfaces returns the near-to-far surfaces.
func (c *Config) NearSurfaces() ([]geom.Surface, error) {
	return c.Near.Build()
}

// FluxSurfaces returns the flux surfaces, defaulting to the near surfaces.
func (c *Config) FluxSurfaces() ([]geom.Surface, error) {
	if c.Flux.Empty() {
		return c.Near.Build()
	}

	return c.Flux.Build()
}

// Build expands the set into validated 2D surfaces.
func (s SurfaceSet) Build() ([]geom.Surface, error) {
	var out []geom.Surface

	if s.Box != nil {
		box, err := geom.Box(s.Box.Center.Vec(), s.Box.Size.Vec(), 2)
		if err != nil {
			return nil, err
		}

		out = append(out, box...)
	}

	for i, sc := range s.Surfaces {
		n, err := geom.ParseNormal(sc.Normal)
		if err != nil {
			return nil, fmt.Errorf("surface %d: %w", i, err)
		}

		surf := geom.Surface{Center: sc.Center.Vec(), Size: sc.Size.Vec(), Normal: n}
		if err := surf.Validate(2); err != nil {
			return nil, fmt.Errorf("surface %d: %w", i, err)
		}

		out = append(out, surf)
	}

	return out, nil
}

// ExportGrid returns the export grid.
func (c *Config) ExportGrid() export.Grid {
	return export.Grid{
		Center:     c.Export.Center.Vec(),
		Size:       c.Export.Size.Vec(),
		Resolution: c.Export.Resolution,
	}
}

// FarFieldPoints returns the explicit observation points.
func (c *Config) FarFieldPoints() []geom.Vec {
	out := make([]geom.Vec, len(c.FarField.Points))
	for i, p := range c.FarField.Points {
		out[i] = p.Vec()
	}

	return out
}
