// Package fdtd is a small two-dimensional finite-difference time-domain
// solver on a Yee grid. It drives near-to-far recorders and flux
// accumulators through the geom.Fields view it hands to step hooks.
//
// Both polarizations are advanced together: TM (Ez, Hx, Hy) and TE (Hz, Ex,
// Ey). The cell is terminated by a Berenger split-field PML backed by a
// perfect electric conductor. Units follow c = ε0 = μ0 = 1.
//
// E components live at integer time steps and H components half a step
// earlier, so after n steps Time(Ex) = n·dt and Time(Hx) = (n-½)·dt.
package fdtd

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-n2f/em/geom"
	"github.com/cwbudde/algo-n2f/em/source"
)

// Errors returned by the simulation.
var (
	ErrInvalidConfig = errors.New("fdtd: invalid configuration")
	ErrStarted       = errors.New("fdtd: simulation already started")
	ErrOutsideCell   = errors.New("fdtd: position outside the cell")
	ErrInvalidSource = errors.New("fdtd: invalid source")
	ErrNoStop        = errors.New("fdtd: no stop condition")
)

// Source is a point current of the given component. Electric components
// inject an electric current J, magnetic ones a magnetic current M. The
// current is spread over one grid cell, so Amplitude is the total line
// current.
type Source struct {
	Component geom.Component
	Pos       geom.Vec
	Profile   source.Profile
	Amplitude float64
}

// StepHook is called after every step with the current fields.
type StepHook func(geom.Fields) error

type placedSource struct {
	src   Source
	index int
	scale float64
}

// Yee offsets of each component in units of dx.
var offsets = [geom.NumComponents][2]float64{
	geom.Ex: {0.5, 0},
	geom.Ey: {0, 0.5},
	geom.Ez: {0, 0},
	geom.Hx: {0, 0.5},
	geom.Hy: {0.5, 0},
	geom.Hz: {0.5, 0.5},
}

// Simulation is a 2D Yee grid. All arrays are (nx+1)·(ny+1), row-major
// in x; entries beyond a component's last node stay zero.
type Simulation struct {
	cfg    Config
	nx, ny int
	dx, dt float64
	origin geom.Vec

	ax, ay axisCoeffs

	ezx, ezy, hx, hy []float64 // TM
	hzx, hzy, ex, ey []float64 // TE

	sources []placedSource
	hooks   []StepHook
	steps   int
	time    float64
}

// New allocates a simulation for cfg.
func New(cfg Config) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dx := 1 / cfg.Resolution
	nx := int(math.Round(cfg.Size.X * cfg.Resolution))
	ny := int(math.Round(cfg.Size.Y * cfg.Resolution))

	if nx < 2 || ny < 2 {
		return nil, fmt.Errorf("%w: grid %dx%d too small", ErrInvalidConfig, nx, ny)
	}

	dt := cfg.Courant * dx
	speed := 1 / math.Sqrt(cfg.Epsilon*cfg.Mu)
	n := (nx + 1) * (ny + 1)

	return &Simulation{
		cfg:    cfg,
		nx:     nx,
		ny:     ny,
		dx:     dx,
		dt:     dt,
		origin: geom.Vec{X: -float64(nx) * dx / 2, Y: -float64(ny) * dx / 2},
		ax:     newAxisCoeffs(nx, dx, cfg.PML, speed, dt),
		ay:     newAxisCoeffs(ny, dx, cfg.PML, speed, dt),
		ezx:    make([]float64, n),
		ezy:    make([]float64, n),
		hx:     make([]float64, n),
		hy:     make([]float64, n),
		hzx:    make([]float64, n),
		hzy:    make([]float64, n),
		ex:     make([]float64, n),
		ey:     make([]float64, n),
	}, nil
}

// Config returns the simulation configuration.
func (s *Simulation) Config() Config { return s.cfg }

// Dt returns the time step.
func (s *Simulation) Dt() float64 { return s.dt }

// Steps returns the number of completed steps.
func (s *Simulation) Steps() int { return s.steps }

// Time returns the time of the electric fields.
func (s *Simulation) Time() float64 { return s.time }

// Fields returns the field view handed to hooks.
func (s *Simulation) Fields() geom.Fields { return view{s} }

// Grid returns the number of cells along x and y.
func (s *Simulation) Grid() (nx, ny int) { return s.nx, s.ny }

// AddSource places a point source at the grid node of its component
// nearest to src.Pos. Sources must be added before the first step.
func (s *Simulation) AddSource(src Source) error {
	if s.steps > 0 {
		return ErrStarted
	}

	if !src.Component.Valid() || src.Profile == nil {
		return fmt.Errorf("%w: component %v", ErrInvalidSource, src.Component)
	}

	off := offsets[src.Component]
	i := int(math.Round((src.Pos.X-s.origin.X)/s.dx - off[0]))
	j := int(math.Round((src.Pos.Y-s.origin.Y)/s.dx - off[1]))

	if i < 1 || j < 1 || i >= s.nx || j >= s.ny {
		return fmt.Errorf("%w: %v", ErrOutsideCell, src.Pos)
	}

	s.sources = append(s.sources, placedSource{
		src:   src,
		index: s.idx(i, j),
		scale: src.Amplitude / (s.dx * s.dx),
	})

	return nil
}

// AddHook registers a function called after every step.
func (s *Simulation) AddHook(h StepHook) {
	if h != nil {
		s.hooks = append(s.hooks, h)
	}
}

// SourcesEnd returns the latest End of all sources, +Inf if any source runs
// forever and 0 without sources.
func (s *Simulation) SourcesEnd() float64 {
	end := 0.0
	for _, p := range s.sources {
		end = math.Max(end, p.src.Profile.End())
	}

	return end
}

func (s *Simulation) idx(i, j int) int { return i*(s.ny+1) + j }

// Step advances the fields by dt and calls every hook.
func (s *Simulation) Step() error {
	s.updateH()
	s.updateE()

	s.steps++
	s.time = float64(s.steps) * s.dt

	for _, h := range s.hooks {
		if err := h(view{s}); err != nil {
			return fmt.Errorf("fdtd: hook at step %d: %w", s.steps, err)
		}
	}

	return nil
}

// Run steps until stop reports true or ctx is cancelled.
func (s *Simulation) Run(ctx context.Context, stop StopCondition) error {
	if stop == nil {
		return ErrNoStop
	}

	for {
		if s.steps%64 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		if err := s.Step(); err != nil {
			return err
		}

		if stop(s) {
			return nil
		}
	}
}

// updateH advances H from t-dt/2 to t+dt/2 using E at t. Magnetic currents
// are evaluated at t.
func (s *Simulation) updateH() {
	inv := 1 / (s.cfg.Mu * s.dx)
	ny := s.ny

	for i := 0; i <= s.nx; i++ {
		for j := 0; j < ny; j++ {
			k := s.idx(i, j)
			// Hx at (i, j+½)
			dEz := s.ezx[k+1] + s.ezy[k+1] - s.ezx[k] - s.ezy[k]
			s.hx[k] = s.ay.caHalf[j]*s.hx[k] - s.ay.cbHalf[j]*inv*dEz
		}
	}

	for i := 0; i < s.nx; i++ {
		for j := 0; j <= ny; j++ {
			k := s.idx(i, j)
			k1 := k + ny + 1
			// Hy at (i+½, j)
			dEz := s.ezx[k1] + s.ezy[k1] - s.ezx[k] - s.ezy[k]
			s.hy[k] = s.ax.caHalf[i]*s.hy[k] + s.ax.cbHalf[i]*inv*dEz
		}
	}

	for i := 0; i < s.nx; i++ {
		for j := 0; j < ny; j++ {
			k := s.idx(i, j)
			// Hz at (i+½, j+½): Ey at (i, j+½), Ex at (i+½, j)
			dEy := s.ey[k+ny+1] - s.ey[k]
			dEx := s.ex[k+1] - s.ex[k]
			s.hzx[k] = s.ax.caHalf[i]*s.hzx[k] - s.ax.cbHalf[i]*inv*dEy
			s.hzy[k] = s.ay.caHalf[j]*s.hzy[k] + s.ay.cbHalf[j]*inv*dEx
		}
	}

	for _, p := range s.sources {
		if p.src.Component.IsElectric() {
			continue
		}

		m := p.scale * p.src.Profile.Current(s.time) * s.dt / s.cfg.Mu

		switch p.src.Component {
		case geom.Hx:
			s.hx[p.index] -= m
		case geom.Hy:
			s.hy[p.index] -= m
		case geom.Hz:
			s.hzx[p.index] -= m
		}
	}
}

// updateE advances E from t to t+dt using H at t+dt/2. Electric currents
// are evaluated at t+dt/2.
func (s *Simulation) updateE() {
	inv := 1 / (s.cfg.Epsilon * s.dx)
	ny := s.ny

	// Tangential E vanishes on the outer PEC wall.
	for i := 1; i < s.nx; i++ {
		for j := 1; j < ny; j++ {
			k := s.idx(i, j)
			// Ez at (i, j): Hy at (i±½, j), Hx at (i, j±½)
			dHy := s.hy[k] - s.hy[k-ny-1]
			dHx := s.hx[k] - s.hx[k-1]
			s.ezx[k] = s.ax.caNode[i]*s.ezx[k] + s.ax.cbNode[i]*inv*dHy
			s.ezy[k] = s.ay.caNode[j]*s.ezy[k] - s.ay.cbNode[j]*inv*dHx
		}
	}

	for i := 0; i < s.nx; i++ {
		for j := 1; j < ny; j++ {
			k := s.idx(i, j)
			// Ex at (i+½, j): Hz at (i+½, j±½)
			dHz := s.hzx[k] + s.hzy[k] - s.hzx[k-1] - s.hzy[k-1]
			s.ex[k] = s.ay.caNode[j]*s.ex[k] + s.ay.cbNode[j]*inv*dHz
		}
	}

	for i := 1; i < s.nx; i++ {
		for j := 0; j < ny; j++ {
			k := s.idx(i, j)
			k0 := k - ny - 1
			// Ey at (i, j+½): Hz at (i±½, j+½)
			dHz := s.hzx[k] + s.hzy[k] - s.hzx[k0] - s.hzy[k0]
			s.ey[k] = s.ax.caNode[i]*s.ey[k] - s.ax.cbNode[i]*inv*dHz
		}
	}

	th := s.time + s.dt/2

	for _, p := range s.sources {
		if !p.src.Component.IsElectric() {
			continue
		}

		j := p.scale * p.src.Profile.Current(th) * s.dt / s.cfg.Epsilon

		switch p.src.Component {
		case geom.Ex:
			s.ex[p.index] -= j
		case geom.Ey:
			s.ey[p.index] -= j
		case geom.Ez:
			s.ezx[p.index] -= j
		}
	}
}

// view presents the simulation as geom.Fields.
type view struct{ s *Simulation }

func (v view) Time(c geom.Component) float64 { return v.s.ComponentTime(c) }

func (v view) Sample(c geom.Component, p geom.Vec) float64 { return v.s.Sample(c, p) }

// ComponentTime returns the time level of component c.
func (s *Simulation) ComponentTime(c geom.Component) float64 {
	if c.IsElectric() {
		return s.time
	}

	return s.time - s.dt/2
}

// value returns component c at flat grid index k.
func (s *Simulation) value(c geom.Component, k int) float64 {
	switch c {
	case geom.Ex:
		return s.ex[k]
	case geom.Ey:
		return s.ey[k]
	case geom.Ez:
		return s.ezx[k] + s.ezy[k]
	case geom.Hx:
		return s.hx[k]
	case geom.Hy:
		return s.hy[k]
	case geom.Hz:
		return s.hzx[k] + s.hzy[k]
	default:
		return 0
	}
}

// Sample interpolates component c bilinearly between the four surrounding
// nodes. The z coordinate is ignored.
func (s *Simulation) Sample(c geom.Component, p geom.Vec) float64 {
	if !c.Valid() {
		return 0
	}

	off := offsets[c]
	fx := (p.X-s.origin.X)/s.dx - off[0]
	fy := (p.Y-s.origin.Y)/s.dx - off[1]

	i := clampIndex(int(math.Floor(fx)), s.nx-1)
	j := clampIndex(int(math.Floor(fy)), s.ny-1)
	wx := math.Min(math.Max(fx-float64(i), 0), 1)
	wy := math.Min(math.Max(fy-float64(j), 0), 1)

	k := s.idx(i, j)
	k10 := k + s.ny + 1

	return (1-wx)*(1-wy)*s.value(c, k) +
		wx*(1-wy)*s.value(c, k10) +
		(1-wx)*wy*s.value(c, k+1) +
		wx*wy*s.value(c, k10+1)
}

func clampIndex(i, hi int) int {
	if i < 0 {
		return 0
	}

	if i > hi {
		return hi
	}

	return i
}

// Energy returns Σ(ε|E|² + μ|H|²)·dx² over the grid, mixing the staggered
// time levels. It is meant for decay diagnostics, not exact bookkeeping.
func (s *Simulation) Energy() float64 {
	var e, h float64

	for k := range s.ex {
		ez := s.ezx[k] + s.ezy[k]
		hz := s.hzx[k] + s.hzy[k]
		e += s.ex[k]*s.ex[k] + s.ey[k]*s.ey[k] + ez*ez
		h += s.hx[k]*s.hx[k] + s.hy[k]*s.hy[k] + hz*hz
	}

	return (s.cfg.Epsilon*e + s.cfg.Mu*h) * s.dx * s.dx
}
