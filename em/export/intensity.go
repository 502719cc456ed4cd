package export

import (
	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-n2f/em/geom"
	"github.com/cwbudde/algo-n2f/em/near2far"
)

// Intensity returns |Ex|²+|Ey|²+|Ez|² for every field.
func Intensity(fields []near2far.Field) []float64 {
	n := len(fields)
	if n == 0 {
		return nil
	}

	out := make([]float64, n)
	re := make([]float64, n)
	im := make([]float64, n)
	pow := make([]float64, n)

	for _, c := range []geom.Component{geom.Ex, geom.Ey, geom.Ez} {
		for i, f := range fields {
			re[i] = real(f[c])
			im[i] = imag(f[c])
		}

		vecmath.Power(pow, re, im)

		for i, p := range pow {
			out[i] += p
		}
	}

	return out
}
