package engine

import (
	"sort"

	"biasev/domain/dataset"
	"biasev/domain/stats"

	"gonum.org/v1/gonum/mat"
)

// designTerm is one predictor occupying columns [start, start+width) of the design matrix
type designTerm struct {
	name   string
	start  int
	width  int
	levels []string // treatment-coded levels, reference first; nil for numeric terms
}

// design is a response vector and an intercept-first design matrix after listwise deletion
type design struct {
	target  string
	y       *mat.VecDense
	x       *mat.Dense
	terms   []designTerm
	dropped int
}

func (d *design) n() int {
	return d.y.Len()
}

func (d *design) params() int {
	_, c := d.x.Dims()
	return c
}

func (d *design) termNames() []string {
	names := make([]string, len(d.terms))
	for i, t := range d.terms {
		names[i] = t.name
	}
	return names
}

// withoutTerm returns the design matrix with one term's columns removed
func (d *design) withoutTerm(idx int) *mat.Dense {
	drop := d.terms[idx]
	rows, cols := d.x.Dims()
	keep := make([]int, 0, cols-drop.width)
	for c := 0; c < cols; c++ {
		if c >= drop.start && c < drop.start+drop.width {
			continue
		}
		keep = append(keep, c)
	}

	reduced := mat.NewDense(rows, len(keep), nil)
	for j, c := range keep {
		for i := 0; i < rows; i++ {
			reduced.Set(i, j, d.x.At(i, c))
		}
	}
	return reduced
}

// resolvePredictors validates the request against the table
func resolvePredictors(table *dataset.Table, req stats.AnovaRequest) ([]string, error) {
	if table == nil {
		return nil, fitError("no dataset loaded")
	}
	if req.Target == "" {
		return nil, fitError("a target column must be selected")
	}
	if !table.HasColumn(req.Target) {
		return nil, fitError("target column %q does not exist", req.Target)
	}

	predictors := req.Predictors
	if len(predictors) == 0 {
		predictors = make([]string, 0, table.NumColumns()-1)
		for _, column := range table.Columns {
			if column != req.Target {
				predictors = append(predictors, column)
			}
		}
		sort.Strings(predictors)
	}
	if len(predictors) == 0 {
		return nil, fitError("no predictor columns besides %q", req.Target)
	}

	seen := make(map[string]bool, len(predictors))
	for _, p := range predictors {
		switch {
		case p == req.Target:
			return nil, fitError("target column %q cannot also be a predictor", p)
		case !table.HasColumn(p):
			return nil, fitError("predictor column %q does not exist", p)
		case seen[p]:
			return nil, fitError("predictor column %q is listed twice", p)
		}
		seen[p] = true
	}
	return predictors, nil
}

// buildDesign turns table columns into an OLS design. Rows with a missing
// value in any used column are dropped. Non-numeric predictors are
// treatment-coded when allowCategorical is set and rejected otherwise.
func buildDesign(table *dataset.Table, req stats.AnovaRequest, allowCategorical bool) (*design, error) {
	predictors, err := resolvePredictors(table, req)
	if err != nil {
		return nil, err
	}

	targetIdx := table.ColumnIndex(req.Target)
	predictorIdx := make([]int, len(predictors))
	for i, p := range predictors {
		predictorIdx[i] = table.ColumnIndex(p)
	}

	kept := make([][]string, 0, table.NumRows())
	for _, row := range table.Rows {
		complete := !dataset.IsMissing(row[targetIdx])
		for _, idx := range predictorIdx {
			if dataset.IsMissing(row[idx]) {
				complete = false
				break
			}
		}
		if complete {
			kept = append(kept, row)
		}
	}
	if len(kept) == 0 {
		return nil, fitError("no rows without missing values in the selected columns")
	}

	y := mat.NewVecDense(len(kept), nil)
	for i, row := range kept {
		v, ok := dataset.ParseNumber(row[targetIdx])
		if !ok {
			return nil, fitError("target column %q is not numeric (value %q)", req.Target, row[targetIdx])
		}
		y.SetVec(i, v)
	}

	terms := make([]designTerm, len(predictors))
	numeric := make([]bool, len(predictors))
	width := 1
	for t, idx := range predictorIdx {
		numeric[t] = columnIsNumeric(kept, idx)
		term := designTerm{name: predictors[t], start: width, width: 1}
		if !numeric[t] {
			if !allowCategorical {
				return nil, fitError("feature column %q is not numeric", predictors[t])
			}
			term.levels = distinctLevels(kept, idx)
			if len(term.levels) < 2 {
				return nil, fitError("categorical predictor %q has a single level", predictors[t])
			}
			term.width = len(term.levels) - 1
		}
		terms[t] = term
		width += term.width
	}

	if len(kept) <= width {
		return nil, fitError("not enough rows: %d complete observations for %d model parameters", len(kept), width)
	}

	x := mat.NewDense(len(kept), width, nil)
	for i, row := range kept {
		x.Set(i, 0, 1)
		for t, idx := range predictorIdx {
			term := terms[t]
			if numeric[t] {
				v, _ := dataset.ParseNumber(row[idx])
				x.Set(i, term.start, v)
				continue
			}
			for l, level := range term.levels[1:] {
				if row[idx] == level {
					x.Set(i, term.start+l, 1)
				}
			}
		}
	}

	return &design{
		target:  req.Target,
		y:       y,
		x:       x,
		terms:   terms,
		dropped: table.NumRows() - len(kept),
	}, nil
}

func columnIsNumeric(rows [][]string, idx int) bool {
	for _, row := range rows {
		if _, ok := dataset.ParseNumber(row[idx]); !ok {
			return false
		}
	}
	return true
}

func distinctLevels(rows [][]string, idx int) []string {
	set := make(map[string]bool)
	for _, row := range rows {
		set[row[idx]] = true
	}
	levels := make([]string, 0, len(set))
	for level := range set {
		levels = append(levels, level)
	}
	sort.Strings(levels)
	return levels
}
