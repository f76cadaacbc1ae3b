package stats

// ResidualTerm names the residual row of an ANOVA table
const ResidualTerm = "Residual"

// AnovaRequest selects the response column and the predictor columns.
// An empty Predictors list means every column except Target.
type AnovaRequest struct {
	Target     string   `json:"target"`
	Predictors []string `json:"predictors,omitempty"`
}

// AnovaRow is one term of a type-2 ANOVA decomposition.
// F and PValue are nil for the residual row.
type AnovaRow struct {
	Term   string   `json:"term"`
	SumSq  float64  `json:"sum_sq"`
	DF     int      `json:"df"`
	F      *float64 `json:"f,omitempty"`
	PValue *float64 `json:"p_value,omitempty"`
}

// AnovaTable is the result of one significance-test run
type AnovaTable struct {
	Target     string     `json:"target"`
	Predictors []string   `json:"predictors"`
	NObs       int        `json:"n_obs"`
	Dropped    int        `json:"dropped_rows"`
	Rows       []AnovaRow `json:"rows"`
}

// Term returns the row for a term name
func (t *AnovaTable) Term(name string) (AnovaRow, bool) {
	for _, row := range t.Rows {
		if row.Term == name {
			return row, true
		}
	}
	return AnovaRow{}, false
}

// ColumnSummary holds descriptive statistics of a numeric column
type ColumnSummary struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}
