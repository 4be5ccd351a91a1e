package stable

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStirlingFirstKind(t *testing.T) {
	// with zero discount these are unsigned Stirling numbers of the first kind
	s, err := New(0, 10)
	require.NoError(t, err)

	expect := map[[2]uint32]float64{
		{1, 1}: 1,
		{3, 1}: 2,
		{3, 2}: 3,
		{4, 2}: 11,
		{5, 3}: 35,
		{6, 3}: 225,
	}
	for nt, v := range expect {
		assert.InDelta(t, math.Log(v), s.LogS(nt[0], nt[1]), 1e-9, "S(%d,%d)", nt[0], nt[1])
	}
	assert.True(t, math.IsInf(s.LogS(3, 0), -1))
	assert.True(t, math.IsInf(s.LogS(2, 3), -1))
	assert.Equal(t, 0.0, s.LogS(0, 0))
}

func TestDiscountedRecursion(t *testing.T) {
	a := 0.5
	s, err := New(a, 20)
	require.NoError(t, err)

	// S^2_1 = (1 - a), S^3_1 = (1 - a)(2 - a), S^3_2 = 3 (1 - a)
	assert.InDelta(t, math.Log(1-a), s.LogS(2, 1), 1e-9)
	assert.InDelta(t, math.Log((1-a)*(2-a)), s.LogS(3, 1), 1e-9)
	assert.InDelta(t, math.Log(3*(1-a)), s.LogS(3, 2), 1e-9)

	// ratios agree with the table
	assert.InDelta(t, (1-a)*(2-a)/(1-a), s.V(2, 1), 1e-9)
	assert.InDelta(t, 3*(1-a)/(1-a), s.U(2, 1), 1e-9)
	assert.Equal(t, 1.0, s.U(0, 0))
	assert.Equal(t, 0.0, s.V(0, 0))
	assert.Equal(t, 0.0, s.U(3, 0))
}

func TestBeyondTable(t *testing.T) {
	s, err := New(0.2, 8)
	require.NoError(t, err)

	assert.Equal(t, 1.0, s.U(50, 3))
	assert.InDelta(t, 50-3*0.2, s.V(50, 3), 1e-12)
	assert.False(t, math.IsInf(s.LogS(12, 4), 0))
	assert.Greater(t, s.LogS(12, 4), s.LogS(8, 4))
}

func TestBadDiscount(t *testing.T) {
	_, err := New(1, 10)
	assert.ErrorIs(t, err, ErrDiscount)
	_, err = New(-0.1, 10)
	assert.ErrorIs(t, err, ErrDiscount)
}
