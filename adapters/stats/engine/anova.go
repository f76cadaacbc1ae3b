package engine

import (
	"gonum.org/v1/gonum/stat/distuv"

	"biasev/domain/stats"
)

// perfectFitTolerance bounds SSE/SST below which F statistics are undefined
const perfectFitTolerance = 1e-12

// typeTwoAnova computes type-2 sums of squares for an additive model: each
// term is compared against the model holding every other term.
func typeTwoAnova(d *design) (*stats.AnovaTable, error) {
	full, err := fitOLS(d.x, d.y)
	if err != nil {
		return nil, err
	}

	sst := totalSumOfSquares(d.y)
	if sst == 0 {
		return nil, fitError("target column %q is constant", d.target)
	}
	if full.sse <= perfectFitTolerance*sst {
		return nil, fitError("residual variance is zero; the predictors fit %q exactly", d.target)
	}

	dfResid := d.n() - d.params()
	mse := full.sse / float64(dfResid)

	rows := make([]stats.AnovaRow, 0, len(d.terms)+1)
	for i, term := range d.terms {
		reduced, err := fitOLS(d.withoutTerm(i), d.y)
		if err != nil {
			return nil, err
		}

		ss := reduced.sse - full.sse
		if ss < 0 {
			ss = 0
		}
		f := (ss / float64(term.width)) / mse
		p := 1 - distuv.F{D1: float64(term.width), D2: float64(dfResid)}.CDF(f)

		rows = append(rows, stats.AnovaRow{
			Term:   term.name,
			SumSq:  ss,
			DF:     term.width,
			F:      &f,
			PValue: &p,
		})
	}
	rows = append(rows, stats.AnovaRow{
		Term:  stats.ResidualTerm,
		SumSq: full.sse,
		DF:    dfResid,
	})

	return &stats.AnovaTable{
		Target:     d.target,
		Predictors: d.termNames(),
		NObs:       d.n(),
		Dropped:    d.dropped,
		Rows:       rows,
	}, nil
}
