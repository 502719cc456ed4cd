package fdtd

import (
	"math"

	"github.com/cwbudde/algo-n2f/em/geom"
)

// StopCondition is checked after every step; Run returns once it reports
// true. Conditions may keep state and are not reusable across runs.
type StopCondition func(s *Simulation) bool

// StopAfter stops once the simulation time reaches t.
func StopAfter(t float64) StopCondition {
	return func(s *Simulation) bool { return s.Time() >= t }
}

// StopWhenSourcesEnd stops extra time units after the last source has
// ended. It never fires while a continuous source is present.
func StopWhenSourcesEnd(extra float64) StopCondition {
	return func(s *Simulation) bool {
		end := s.SourcesEnd()
		return !math.IsInf(end, 1) && s.Time() >= end+extra
	}
}

// StopWhenFieldsDecayed samples |c(pt)|² every step and, every dT of
// simulation time, compares the maximum over the last interval with the
// running maximum over all intervals. It stops once the former has fallen
// to decayBy times the latter.
func StopWhenFieldsDecayed(dT float64, c geom.Component, pt geom.Vec, decayBy float64) StopCondition {
	var (
		t0     float64
		maxAbs float64
		curMax float64
	)

	return func(s *Simulation) bool {
		v := s.Sample(c, pt)
		curMax = math.Max(curMax, v*v)

		if s.Time() < t0+dT {
			return false
		}

		t0 = s.Time()
		maxAbs = math.Max(maxAbs, curMax)
		done := maxAbs > 0 && curMax <= decayBy*maxAbs
		curMax = 0

		return done
	}
}

// Any stops as soon as one of conds does. Every condition is evaluated on
// every step so stateful conditions keep sampling.
func Any(conds ...StopCondition) StopCondition {
	return func(s *Simulation) bool {
		stop := false
		for _, c := range conds {
			if c != nil && c(s) {
				stop = true
			}
		}

		return stop
	}
}
