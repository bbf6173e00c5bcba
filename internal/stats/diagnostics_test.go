package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLjungBoxDetectsCorrelation(t *testing.T) {
	// A strictly alternating series has autocorrelation near -1 at lag 1.
	residuals := make([]float64, 20)
	for i := range residuals {
		if i%2 == 0 {
			residuals[i] = 1
		} else {
			residuals[i] = -1
		}
	}

	q, p, err := LjungBox(residuals, 2)
	require.NoError(t, err)
	assert.InDelta(t, 40.70, q, 0.01)
	assert.Less(t, p, 1e-6)
}

func TestLjungBoxPassesWhiteResiduals(t *testing.T) {
	// The repeating block {1,-1,-1,1} has lag-1 products that cancel, so
	// only the trailing partial block contributes.
	block := []float64{1, -1, -1, 1}
	residuals := make([]float64, 40)
	for i := range residuals {
		residuals[i] = block[i%4]
	}

	q, p, err := LjungBox(residuals, 1)
	require.NoError(t, err)
	assert.Less(t, q, 0.1)
	assert.Greater(t, p, 0.5)
}

func TestLjungBoxValidation(t *testing.T) {
	_, _, err := LjungBox([]float64{1, 2, 3}, 0)
	assert.Error(t, err)

	_, _, err = LjungBox([]float64{1, 2, 3}, 3)
	assert.Error(t, err, "needs more residuals than lags")
}
