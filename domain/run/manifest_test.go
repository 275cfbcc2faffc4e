package run

import (
	"errors"
	"testing"

	"gounc/domain/core"
	"gounc/domain/uncertainty"
)

func testDesign(t *testing.T, seed uint64) *uncertainty.SampleDesign {
	t.Helper()
	in := uncertainty.Fixed("exposures", 0.0)
	in2 := uncertainty.MustInput("scale", func(a uncertainty.Assignment) (float64, error) { return a["x"], nil },
		uncertainty.P("x", uncertainty.IntRange(1, 3)))
	space, err := uncertainty.NewParamSpace(in, in2)
	if err != nil {
		t.Fatalf("NewParamSpace: %v", err)
	}
	meta := uncertainty.DesignMeta{Scheme: uncertainty.SchemeLatin, NBase: 3, Seed: seed}
	design, err := uncertainty.NewSampleDesign(meta, space, []float64{1, 2, 3})
	if err != nil {
		t.Fatalf("NewSampleDesign: %v", err)
	}
	return design
}

func TestManifest_FingerprintDeterministic(t *testing.T) {
	design := testDesign(t, 1)

	m1 := NewManifest(core.NewRunID(), "impact", design, "1.0.0")
	m2 := NewManifest(core.NewRunID(), "impact", design, "1.0.0")

	// Run IDs differ, replay parameters do not
	if m1.Fingerprint != m2.Fingerprint {
		t.Errorf("Fingerprints not identical: %s vs %s", m1.Fingerprint, m2.Fingerprint)
	}
	if m1.Rows != 3 {
		t.Errorf("Rows = %d, want 3", m1.Rows)
	}
	if len(m1.Params) != 1 || m1.Params[0] != "x" {
		t.Errorf("Params = %v, want [x]", m1.Params)
	}
}

func TestManifest_FingerprintUnique(t *testing.T) {
	base := NewManifest(core.NewRunID(), "impact", testDesign(t, 1), "1.0.0")

	testCases := []struct {
		name string
		m    *Manifest
	}{
		{"different model", NewManifest(core.NewRunID(), "costben", testDesign(t, 1), "1.0.0")},
		{"different seed", NewManifest(core.NewRunID(), "impact", testDesign(t, 2), "1.0.0")},
		{"different code", NewManifest(core.NewRunID(), "impact", testDesign(t, 1), "1.0.1")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.m.Fingerprint == base.Fingerprint {
				t.Errorf("Fingerprint should change for %s", tc.name)
			}
		})
	}
}

func TestManifest_Validate(t *testing.T) {
	valid := NewManifest(core.NewRunID(), "impact", testDesign(t, 1), "1.0.0")
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	tampered := *valid
	tampered.Model = "other"
	if err := tampered.Validate(); !errors.Is(err, core.ErrInvalidRecord) {
		t.Errorf("Validate() on tampered manifest = %v, want ErrInvalidRecord", err)
	}

	missing := *valid
	missing.RunID = ""
	if err := missing.Validate(); !errors.Is(err, core.ErrInvalidRecord) {
		t.Errorf("Validate() without run id = %v, want ErrInvalidRecord", err)
	}
}

func TestRecord_Summarize(t *testing.T) {
	m := NewManifest(core.NewRunID(), "impact", testDesign(t, 1), "1.0.0")
	r := &Record{Manifest: *m, Failures: uncertainty.FailureSummary{Count: 2}}

	s := r.Summarize()
	if s.RunID != r.ID() || s.Failed != 2 || s.Rows != 3 || s.Scheme != uncertainty.SchemeLatin {
		t.Errorf("Summarize() = %+v", s)
	}
}
