package uncertainty

import (
	"errors"
	"math"
	"sort"

	"gounc/domain/core"
)

// FailureReason aggregates the rows that failed for the same reason
type FailureReason struct {
	Reason  string `json:"reason"`
	Count   int    `json:"count"`
	LastRow int    `json:"last_row"`
	LastErr string `json:"last_error"`
}

// FailureSummary reports every failed row of an evaluation
type FailureSummary struct {
	Count   int             `json:"count"`
	Rows    []int           `json:"rows"`
	Reasons []FailureReason `json:"reasons"`
}

// NewFailureSummary groups row errors by reason. Rows are reported in row
// order and the last error of a reason is the one with the highest row index,
// so the summary never depends on worker scheduling.
func NewFailureSummary(rowErrs map[int]error) FailureSummary {
	rows := make([]int, 0, len(rowErrs))
	for r := range rowErrs {
		rows = append(rows, r)
	}
	sort.Ints(rows)

	byReason := make(map[string]*FailureReason)
	var order []string
	for _, r := range rows {
		err := rowErrs[r]
		reason := FailureReasonOf(err)
		fr, ok := byReason[reason]
		if !ok {
			fr = &FailureReason{Reason: reason}
			byReason[reason] = fr
			order = append(order, reason)
		}
		fr.Count++
		fr.LastRow = r
		fr.LastErr = err.Error()
	}

	summary := FailureSummary{Count: len(rows), Rows: rows}
	for _, reason := range order {
		summary.Reasons = append(summary.Reasons, *byReason[reason])
	}
	return summary
}

// FailureReasonOf classifies a row error: shape mismatches and panics by
// their sentinel, anything else by the message of the innermost wrapped error.
func FailureReasonOf(err error) string {
	for _, sentinel := range []error{core.ErrMetricShape, core.ErrModelPanic} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	var evalErr *core.EvaluationError
	if errors.As(err, &evalErr) {
		err = evalErr.Err
	}
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

// ResultTable holds one row of metric values per design row, aligned by
// position with the design. Failed rows keep their slot with NaN values.
type ResultTable struct {
	metrics    []MetricSpec
	components []Component
	values     []float64 // row-major, rows x len(components)
	failed     []bool
	failures   FailureSummary
	design     core.Hash
}

// NewResultTable assembles a table from per-row outputs. rows[i] is nil for
// a failed row; rowErrs carries the error of every failed row.
func NewResultTable(metrics []MetricSpec, rows []Outputs, rowErrs map[int]error, design core.Hash) *ResultTable {
	comps := Components(metrics)
	t := &ResultTable{
		metrics:    metrics,
		components: comps,
		values:     make([]float64, len(rows)*len(comps)),
		failed:     make([]bool, len(rows)),
		failures:   NewFailureSummary(rowErrs),
		design:     design,
	}
	w := len(comps)
	for i, out := range rows {
		dst := t.values[i*w : (i+1)*w]
		if out == nil {
			t.failed[i] = true
			for j := range dst {
				dst[j] = math.NaN()
			}
			continue
		}
		j := 0
		for _, m := range metrics {
			j += copy(dst[j:], out[m.Name])
		}
	}
	return t
}

// Metrics returns the metric schema
func (t *ResultTable) Metrics() []MetricSpec { return t.metrics }

// Components returns the flattened columns
func (t *ResultTable) Components() []Component {
	out := make([]Component, len(t.components))
	copy(out, t.components)
	return out
}

// Rows is the number of rows, equal to the design's row count
func (t *ResultTable) Rows() int { return len(t.failed) }

// DesignFingerprint identifies the design the table was computed on
func (t *ResultTable) DesignFingerprint() core.Hash { return t.design }

// Failed reports whether row i failed
func (t *ResultTable) Failed(i int) bool { return t.failed[i] }

// Failures returns the failure summary
func (t *ResultTable) Failures() FailureSummary { return t.failures }

// At returns component j of row i
func (t *ResultTable) At(i, j int) float64 {
	return t.values[i*len(t.components)+j]
}

// Column returns a copy of component column j, NaN on failed rows
func (t *ResultTable) Column(j int) []float64 {
	w := len(t.components)
	out := make([]float64, t.Rows())
	for i := range out {
		out[i] = t.values[i*w+j]
	}
	return out
}

// ColumnByName looks a column up by its flattened name
func (t *ResultTable) ColumnByName(name string) ([]float64, bool) {
	for j, c := range t.components {
		if c.Name() == name {
			return t.Column(j), true
		}
	}
	return nil, false
}

// Equal reports whether two tables hold identical values, NaN slots included
func (t *ResultTable) Equal(o *ResultTable) bool {
	if t.Rows() != o.Rows() || len(t.components) != len(o.components) {
		return false
	}
	for i, f := range t.failed {
		if f != o.failed[i] {
			return false
		}
	}
	for i, v := range t.values {
		w := o.values[i]
		if math.IsNaN(v) && math.IsNaN(w) {
			continue
		}
		if v != w {
			return false
		}
	}
	return true
}

// Frame exports the table with a row index and failure flag
func (t *ResultTable) Frame() Frame {
	cols := []string{"row", "failed"}
	for _, c := range t.components {
		cols = append(cols, c.Name())
	}
	w := len(t.components)
	rows := make([][]any, t.Rows())
	for i := range rows {
		r := make([]any, 0, w+2)
		r = append(r, i, t.failed[i])
		for j := 0; j < w; j++ {
			r = append(r, t.values[i*w+j])
		}
		rows[i] = r
	}
	return Frame{Name: "results", Columns: cols, Rows: rows}
}

// FailureFrame exports the failure summary grouped by reason
func (t *ResultTable) FailureFrame() Frame {
	rows := make([][]any, 0, len(t.failures.Reasons))
	for _, r := range t.failures.Reasons {
		rows = append(rows, []any{r.Reason, r.Count, r.LastRow, r.LastErr})
	}
	return Frame{Name: "failures", Columns: []string{"reason", "count", "last_row", "last_error"}, Rows: rows}
}
