package raw

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Small dense linear algebra used by the color pipeline, built on
// gonum. Matrices are tiny (3×3) so nothing here is performance
// sensitive; gonum buys us a tested Inverse.

// normalize maps v linearly onto [0,1] relative to [lo, hi]:
// normalize(lo, lo, hi) = 0 and normalize(lo, hi, hi) = 1. The result
// is not clamped, out-of-range inputs yield out-of-range outputs.
func normalize(lo, v, hi float64) float64 {
	return (v - lo) / (hi - lo)
}

// weightedAverage returns (1-w)·a + w·b, so w is the fraction of b.
// Both matrices must have the same dimensions.
func weightedAverage(a, b mat.Matrix, w float64) *mat.Dense {
	rows, cols := a.Dims()
	out := mat.NewDense(rows, cols, nil)
	out.Scale(1-w, a)
	var wb mat.Dense
	wb.Scale(w, b)
	out.Add(out, &wb)
	return out
}

// inverse returns a⁻¹, or an error when a is singular.
func inverse(a mat.Matrix) (*mat.Dense, error) {
	var out mat.Dense
	if err := out.Inverse(a); err != nil {
		return nil, err
	}
	return &out, nil
}

// diagonal builds a len(v)×len(v) matrix with v on the diagonal and
// zeros elsewhere.
func diagonal(v []float64) *mat.Dense {
	out := mat.NewDense(len(v), len(v), nil)
	for i, e := range v {
		out.Set(i, i, e)
	}
	return out
}

// mulVec returns a·v as a plain slice.
func mulVec(a mat.Matrix, v []float64) []float64 {
	var prod mat.VecDense
	prod.MulVec(a, mat.NewVecDense(len(v), v))
	out := make([]float64, prod.Len())
	for i := range out {
		out[i] = prod.AtVec(i)
	}
	return out
}

// asMatrix reshapes a flat row-major slice into a (len/cols)×cols
// matrix. Calibration and forward matrices are stored flat in the
// container, one row per output plane.
func asMatrix(data []float64, cols int) *mat.Dense {
	return mat.NewDense(len(data)/cols, cols, data)
}

// xyChromaticity converts an XYZ triple to its (x, y) chromaticity
// coordinates. See http://www.brucelindbloom.com/Eqn_XYZ_to_xyY.html.
func xyChromaticity(xyz []float64) (x, y float64) {
	sum := xyz[0] + xyz[1] + xyz[2]
	return xyz[0] / sum, xyz[1] / sum
}

// mccamyCCT estimates the correlated color temperature in Kelvin of
// the chromaticity (x, y) using McCamy's cubic approximation
// (http://en.wikipedia.org/wiki/Color_temperature#Approximation).
// The maximum absolute error between 2856 K (illuminant A) and 6504 K
// (D65) is under 2 K.
func mccamyCCT(x, y float64) float64 {
	n := (x - 0.3320) / (y - 0.1858)
	return -449*math.Pow(n, 3) + 3525*math.Pow(n, 2) - 6823.3*n + 5520.33
}
