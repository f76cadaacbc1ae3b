package engine

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// maxCondition is the largest design condition number accepted as non-singular
const maxCondition = 1e12

type olsFit struct {
	beta *mat.VecDense
	sse  float64
}

// fitOLS solves min ||y - X b|| through a QR factorisation of X
func fitOLS(x *mat.Dense, y *mat.VecDense) (*olsFit, error) {
	var qr mat.QR
	qr.Factorize(x)
	if cond := qr.Cond(); math.IsInf(cond, 1) || math.IsNaN(cond) || cond > maxCondition {
		return nil, fitError("singular design matrix: predictors are collinear or constant")
	}

	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, y); err != nil {
		return nil, fitError("singular design matrix: %v", err)
	}

	var fitted, resid mat.VecDense
	fitted.MulVec(x, &beta)
	resid.SubVec(y, &fitted)

	return &olsFit{beta: &beta, sse: mat.Dot(&resid, &resid)}, nil
}

func (f *olsFit) rSquared(y *mat.VecDense) float64 {
	sst := totalSumOfSquares(y)
	if sst == 0 {
		return 0
	}
	return 1 - f.sse/sst
}

func totalSumOfSquares(y *mat.VecDense) float64 {
	n := y.Len()
	mean := mat.Sum(y) / float64(n)
	sst := 0.0
	for i := 0; i < n; i++ {
		d := y.AtVec(i) - mean
		sst += d * d
	}
	return sst
}
