package run

import (
	"gounc/domain/core"
	"gounc/domain/uncertainty"
)

// Manifest is the replay specification of a run: everything needed to
// regenerate its design and evaluate the same model again.
type Manifest struct {
	RunID             core.RunID             `json:"run_id"`
	Model             string                 `json:"model"`
	Params            []string               `json:"params"`
	Design            uncertainty.DesignMeta `json:"design"`
	Rows              int                    `json:"rows"`
	DesignFingerprint core.Hash              `json:"design_fingerprint"`
	CodeVersion       string                 `json:"code_version"`
	Fingerprint       core.Hash              `json:"fingerprint"` // Hash of all above except RunID
	CreatedAt         core.Timestamp         `json:"created_at"`
}

// NewManifest describes a run of model over design
func NewManifest(runID core.RunID, model string, design *uncertainty.SampleDesign, codeVersion string) *Manifest {
	m := &Manifest{
		RunID:             runID,
		Model:             model,
		Params:            design.Columns(),
		Design:            design.Meta(),
		Rows:              design.Rows(),
		DesignFingerprint: design.Fingerprint(),
		CodeVersion:       codeVersion,
		CreatedAt:         core.Now(),
	}
	m.Fingerprint = m.computeFingerprint()
	return m
}

// computeFingerprint generates a deterministic hash of the replay parameters
func (m *Manifest) computeFingerprint() core.Hash {
	h := &core.Hasher{}
	h.Field("model", m.Model).
		Field("params", m.Params).
		Field("design", m.Design).
		Field("design_fingerprint", m.DesignFingerprint).
		Field("code", m.CodeVersion)
	return h.Sum()
}

// Validate checks if the manifest is complete
func (m *Manifest) Validate() error {
	if m.RunID.IsEmpty() {
		return core.NewValidationError("run_manifest", "run_id cannot be empty")
	}
	if m.Model == "" {
		return core.NewValidationError("run_manifest", "model cannot be empty")
	}
	if len(m.Params) == 0 {
		return core.NewValidationError("run_manifest", "params cannot be empty")
	}
	if m.DesignFingerprint.IsEmpty() {
		return core.NewValidationError("run_manifest", "design_fingerprint cannot be empty")
	}
	if m.Fingerprint != m.computeFingerprint() {
		return core.NewValidationError("run_manifest", "fingerprint does not match contents")
	}
	return nil
}
