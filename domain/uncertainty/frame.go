package uncertainty

// Frame is the tabular export of a stage: named columns over rows of
// float64, int, bool or string cells.
type Frame struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Len is the number of rows
func (f Frame) Len() int { return len(f.Rows) }
