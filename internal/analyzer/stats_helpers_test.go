package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMean(t *testing.T) {
	assert.InDelta(t, 81.25, mean([]float64{85, 70, 90, 80}), 1e-9)
	assert.Equal(t, 0.0, mean(nil))
}

func TestSampleStd(t *testing.T) {
	std := sampleStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	require.NotNil(t, std)
	// Sample estimator divides by n-1.
	assert.InDelta(t, 2.13808993529939, *std, 1e-9)

	assert.Nil(t, sampleStd([]float64{42}))
	assert.Nil(t, sampleStd(nil))
}

func TestPearson(t *testing.T) {
	perfect := pearson([]float64{1, 2, 3}, []float64{2, 4, 6})
	require.NotNil(t, perfect)
	assert.InDelta(t, 1.0, *perfect, 1e-9)

	inverse := pearson([]float64{1, 2, 3}, []float64{6, 4, 2})
	require.NotNil(t, inverse)
	assert.InDelta(t, -1.0, *inverse, 1e-9)

	// Undefined for fewer than two pairs or a constant series.
	assert.Nil(t, pearson([]float64{1}, []float64{2}))
	assert.Nil(t, pearson([]float64{3, 3, 3}, []float64{1, 2, 3}))
}
