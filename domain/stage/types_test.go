package stage

import (
	"testing"
)

func TestDownstream(t *testing.T) {
	tests := []struct {
		stage Name
		want  []Name
	}{
		{Sample, []Name{Evaluate, Distribution, Sensitivity}},
		{Evaluate, []Name{Distribution, Sensitivity}},
		{Distribution, nil},
		{Sensitivity, nil},
	}

	for _, tt := range tests {
		got := tt.stage.Downstream()
		if len(got) != len(tt.want) {
			t.Errorf("%s: Downstream() = %v, want %v", tt.stage, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%s: Downstream() = %v, want %v", tt.stage, got, tt.want)
				break
			}
		}
	}
}
