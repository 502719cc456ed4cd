package near2far

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-n2f/em/freq"
	"github.com/cwbudde/algo-n2f/em/geom"
	"github.com/cwbudde/algo-n2f/em/internal/tangent"
)

// Errors returned by the recorder.
var (
	ErrLateDeclaration = errors.New("near2far: surfaces must be declared before the first step")
	ErrNoSurfaces      = errors.New("near2far: no near surfaces declared")
	ErrStopped         = errors.New("near2far: accumulation has stopped")
)

// Fields is the per-step view of the simulation consumed by Step.
type Fields = geom.Fields

// State is the lifecycle state of a Recorder.
type State int

// Recorder states. Transitions only move forward.
const (
	StateUnconfigured State = iota
	StateSurfacesDeclared
	StateAccumulating
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateSurfacesDeclared:
		return "surfaces-declared"
	case StateAccumulating:
		return "accumulating"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Recorder accumulates near-surface Fourier coefficients. It is driven by a
// single stepping loop and is not safe for concurrent use.
type Recorder struct {
	cfg      Config
	freqs    freq.Set
	surfaces []geom.Surface
	state    State

	acc *tangent.Accumulator
	ev  *Evaluator
}

// NewRecorder creates a recorder for the given frequency set.
func NewRecorder(freqs freq.Set, opts ...Option) (*Recorder, error) {
	cfg := ApplyOptions(opts...)
	if err := geom.ValidDimensions(cfg.Dimensions); err != nil {
		return nil, err
	}

	if freqs.Len() == 0 {
		return nil, freq.ErrEmptySet
	}

	return &Recorder{cfg: cfg, freqs: freqs}, nil
}

// Config returns the recorder configuration.
func (r *Recorder) Config() Config { return r.cfg }

// Frequencies returns the declared frequency set.
func (r *Recorder) Frequencies() freq.Set { return r.freqs }

// State returns the current lifecycle state.
func (r *Recorder) State() State { return r.state }

// Surfaces returns a copy of the declared surfaces.
func (r *Recorder) Surfaces() []geom.Surface {
	return append([]geom.Surface(nil), r.surfaces...)
}

// AddSurface declares a near surface. It fails once stepping has started.
func (r *Recorder) AddSurface(s geom.Surface) error {
	if r.state >= StateAccumulating {
		return ErrLateDeclaration
	}

	if err := s.Validate(r.cfg.Dimensions); err != nil {
		return err
	}

	r.surfaces = append(r.surfaces, s)
	r.state = StateSurfacesDeclared

	return nil
}

// AddSurfaces declares several surfaces, stopping at the first error.
func (r *Recorder) AddSurfaces(surfaces ...geom.Surface) error {
	for i, s := range surfaces {
		if err := r.AddSurface(s); err != nil {
			return fmt.Errorf("surface %d: %w", i, err)
		}
	}

	return nil
}

// Step adds one time step of field samples. It must be called once per
// simulation step, in step order. A rejected step changes nothing, and the
// recorder keeps accepting later steps.
func (r *Recorder) Step(fields Fields) error {
	switch r.state {
	case StateUnconfigured:
		return ErrNoSurfaces
	case StateStopped:
		return ErrStopped
	case StateSurfacesDeclared:
		acc, err := tangent.New(r.freqs, r.surfaces, r.cfg.Resolution, r.cfg.Dimensions, r.cfg.Parallelism)
		if err != nil {
			return err
		}

		r.acc = acc
		r.state = StateAccumulating
	}

	return r.acc.Step(fields)
}

// Steps returns the number of accumulated steps.
func (r *Recorder) Steps() int {
	switch {
	case r.ev != nil:
		return r.ev.Steps()
	case r.acc != nil:
		return r.acc.Steps()
	default:
		return 0
	}
}

// Freeze stops accumulation and returns the read-only evaluator. Further
// calls return the same evaluator; Step fails afterwards.
func (r *Recorder) Freeze() (*Evaluator, error) {
	switch r.state {
	case StateUnconfigured:
		return nil, ErrNoSurfaces
	case StateStopped:
		return r.ev, nil
	case StateSurfacesDeclared:
		acc, err := tangent.New(r.freqs, r.surfaces, r.cfg.Resolution, r.cfg.Dimensions, r.cfg.Parallelism)
		if err != nil {
			return nil, err
		}

		r.acc = acc
	}

	r.ev = newEvaluator(r.cfg, r.freqs, r.acc.Freeze())
	r.acc = nil
	r.state = StateStopped

	return r.ev, nil
}
