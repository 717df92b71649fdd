package formulas

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// CovarianceMatrix builds the sample covariance matrix from per-asset return
// series. Each element of series is one asset's returns; all series must
// have the same length (at least 2 observations).
func CovarianceMatrix(series [][]float64) (*mat.SymDense, error) {
	obs, err := observationMatrix(series)
	if err != nil {
		return nil, err
	}

	n := len(series)
	cov := mat.NewSymDense(n, nil)
	stat.CovarianceMatrix(cov, obs, nil)
	return cov, nil
}

// CorrelationMatrix builds the Pearson correlation matrix from per-asset
// return series, with the same shape requirements as CovarianceMatrix.
func CorrelationMatrix(series [][]float64) (*mat.SymDense, error) {
	obs, err := observationMatrix(series)
	if err != nil {
		return nil, err
	}

	n := len(series)
	corr := mat.NewSymDense(n, nil)
	stat.CorrelationMatrix(corr, obs, nil)
	return corr, nil
}

// CorrelationFromCovariance converts a covariance matrix to a correlation
// matrix. Off-diagonal values are clamped to [-1, 1] to absorb floating
// point noise; zero-variance assets yield zero correlation rows.
func CorrelationFromCovariance(cov *mat.SymDense) *mat.SymDense {
	n := cov.SymmetricDim()
	corr := mat.NewSymDense(n, nil)

	for i := 0; i < n; i++ {
		corr.SetSym(i, i, 1.0)
		for j := i + 1; j < n; j++ {
			vi := cov.At(i, i)
			vj := cov.At(j, j)
			if vi <= 0 || vj <= 0 {
				corr.SetSym(i, j, 0)
				continue
			}

			c := cov.At(i, j) / (math.Sqrt(vi) * math.Sqrt(vj))
			if c > 1 {
				c = 1
			} else if c < -1 {
				c = -1
			}
			corr.SetSym(i, j, c)
		}
	}

	return corr
}

// observationMatrix reshapes per-asset series into a rows=observations,
// cols=assets matrix as expected by gonum's stat matrix helpers.
func observationMatrix(series [][]float64) (*mat.Dense, error) {
	n := len(series)
	if n == 0 {
		return nil, fmt.Errorf("no return series provided")
	}

	length := len(series[0])
	if length < 2 {
		return nil, fmt.Errorf("return series need at least 2 observations, got %d", length)
	}
	for i, s := range series {
		if len(s) != length {
			return nil, fmt.Errorf("return series %d has length %d, expected %d", i, len(s), length)
		}
	}

	obs := mat.NewDense(length, n, nil)
	for j, s := range series {
		for i, v := range s {
			obs.Set(i, j, v)
		}
	}
	return obs, nil
}
