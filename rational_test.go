package raw_test

import (
	"math"
	"math/big"
	"testing"

	"github.com/douglasdrumond/raw"
	"github.com/stretchr/testify/assert"
)

func TestRationalFloat64(t *testing.T) {
	assert.Equal(t, 0.5, raw.Rational{Num: 1, Den: 2}.Float64())
	assert.Equal(t, 3.0, raw.Rational{Num: 6, Den: 2}.Float64())

	// Components widened from unsigned 32-bit storage.
	assert.Equal(t, float64(4294967295), raw.Rational{Num: 4294967295, Den: 1}.Float64())

	// A zero denominator is a malformed file; IEEE semantics, no panic.
	assert.True(t, math.IsInf(raw.Rational{Num: 1, Den: 0}.Float64(), 1))
	assert.True(t, math.IsNaN(raw.Rational{Num: 0, Den: 0}.Float64()))
}

func TestSRationalFloat64(t *testing.T) {
	assert.Equal(t, -0.5, raw.SRational{Num: -1, Den: 2}.Float64())
	assert.Equal(t, 0.5, raw.SRational{Num: -1, Den: -2}.Float64())
}

func TestRationalRat(t *testing.T) {
	assert.Equal(t, big.NewRat(1, 3), raw.Rational{Num: 1, Den: 3}.Rat())
	assert.Equal(t, big.NewRat(-2, 3), raw.SRational{Num: -2, Den: 3}.Rat())
}

func TestFloat64sPreservesOrderAndLength(t *testing.T) {
	rs := []raw.Rational{
		{Num: 1, Den: 2},
		{Num: 3, Den: 4},
		{Num: 5, Den: 8},
	}
	assert.Equal(t, []float64{0.5, 0.75, 0.625}, raw.Float64s(rs))
	assert.Empty(t, raw.Float64s(nil))

	srs := []raw.SRational{
		{Num: -1, Den: 2},
		{Num: 1, Den: 4},
	}
	assert.Equal(t, []float64{-0.5, 0.25}, raw.SFloat64s(srs))
}
