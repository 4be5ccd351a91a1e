package util

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVectorSum(t *testing.T) {
	v := []uint32{3, 4, 5}
	assert.Equal(t, uint32(12), VectorSum(v))
}

func TestLogAdd(t *testing.T) {
	assert.InDelta(t, math.Log(3.0), LogAdd(math.Log(1.0), math.Log(2.0)), 1e-12)
	assert.Equal(t, 1.5, LogAdd(math.Inf(-1), 1.5))
	assert.Equal(t, 1.5, LogAdd(1.5, math.Inf(-1)))
}
