package near2far

import (
	"math"
	"runtime"
)

// Config holds recorder and evaluator parameters.
type Config struct {
	Dimensions  int     // 2 (xy plane, z-invariant fields) or 3
	Resolution  float64 // surface sample points per unit length
	Epsilon     float64 // relative permittivity of the homogeneous exterior medium
	Mu          float64 // relative permeability of the homogeneous exterior medium
	Parallelism int     // worker goroutines for accumulation and queries
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns a 3D vacuum configuration at resolution 10.
func DefaultConfig() Config {
	return Config{
		Dimensions:  3,
		Resolution:  10,
		Epsilon:     1,
		Mu:          1,
		Parallelism: runtime.GOMAXPROCS(0),
	}
}

// WithDimensions selects a 2D or 3D kernel. Other values are rejected by
// NewRecorder.
func WithDimensions(dims int) Option {
	return func(cfg *Config) {
		cfg.Dimensions = dims
	}
}

// WithResolution sets the surface sampling density, normally the
// simulation grid resolution.
func WithResolution(resolution float64) Option {
	return func(cfg *Config) {
		if resolution > 0 && !math.IsInf(resolution, 0) {
			cfg.Resolution = resolution
		}
	}
}

// WithMedium sets the relative permittivity and permeability of the
// homogeneous medium between the near surfaces and the observation points.
func WithMedium(epsilon, mu float64) Option {
	return func(cfg *Config) {
		if epsilon > 0 {
			cfg.Epsilon = epsilon
		}
		if mu > 0 {
			cfg.Mu = mu
		}
	}
}

// WithParallelism limits the number of worker goroutines.
func WithParallelism(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.Parallelism = n
		}
	}
}

// ApplyOptions applies zero or more options to the default config.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}
