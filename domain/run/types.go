package run

import (
	"gounc/domain/core"
	"gounc/domain/stage"
	"gounc/domain/uncertainty"
)

// Record is the persisted outcome of an uncertainty run: its manifest plus
// the summaries of every stage that completed.
type Record struct {
	Manifest     Manifest                         `json:"manifest"`
	Stages       []stage.Status                   `json:"stages"`
	Failures     uncertainty.FailureSummary       `json:"failures"`
	Distribution []uncertainty.OutputDistribution `json:"distribution,omitempty"`
	Sensitivity  *uncertainty.Sensitivity         `json:"sensitivity,omitempty"`
}

// ID returns the run identifier
func (r *Record) ID() core.RunID { return r.Manifest.RunID }

// Summary is the listing view of a stored run
type Summary struct {
	RunID       core.RunID         `json:"run_id"`
	Model       string             `json:"model"`
	Scheme      uncertainty.Scheme `json:"scheme"`
	Rows        int                `json:"rows"`
	Failed      int                `json:"failed"`
	Fingerprint core.Hash          `json:"fingerprint"`
	CreatedAt   core.Timestamp     `json:"created_at"`
}

// Summarize builds the listing view of r
func (r *Record) Summarize() Summary {
	return Summary{
		RunID:       r.Manifest.RunID,
		Model:       r.Manifest.Model,
		Scheme:      r.Manifest.Design.Scheme,
		Rows:        r.Manifest.Rows,
		Failed:      r.Failures.Count,
		Fingerprint: r.Manifest.Fingerprint,
		CreatedAt:   r.Manifest.CreatedAt,
	}
}
