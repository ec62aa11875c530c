package raw

import "math/big"

// Rational is TIFF's RATIONAL type: two LONGs holding a fraction's
// numerator and denominator. The components are unsigned 4-byte values
// widened to int64 to preserve their sign. A zero denominator only
// occurs in malformed files; Float64 then follows IEEE division
// (infinity or NaN) rather than panicking.
type Rational struct {
	Num, Den int64
}

// Float64 returns the quotient Num/Den.
func (r Rational) Float64() float64 {
	return float64(r.Num) / float64(r.Den)
}

// Rat returns the value as a big.Rat. Useful for exact arithmetic and
// pretty-printing.
func (r Rational) Rat() *big.Rat {
	return big.NewRat(r.Num, r.Den)
}

// SRational is TIFF's SRATIONAL type: two signed 4-byte integers
// holding a fraction's numerator and denominator.
type SRational struct {
	Num, Den int32
}

// Float64 returns the quotient Num/Den.
func (r SRational) Float64() float64 {
	return float64(r.Num) / float64(r.Den)
}

// Rat returns the value as a big.Rat.
func (r SRational) Rat() *big.Rat {
	return big.NewRat(int64(r.Num), int64(r.Den))
}

// Float64s converts a rational array element-wise, preserving order.
func Float64s(rs []Rational) []float64 {
	fs := make([]float64, len(rs))
	for i, r := range rs {
		fs[i] = r.Float64()
	}
	return fs
}

// SFloat64s converts a signed rational array element-wise, preserving
// order.
func SFloat64s(rs []SRational) []float64 {
	fs := make([]float64, len(rs))
	for i, r := range rs {
		fs[i] = r.Float64()
	}
	return fs
}
