package core

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunID_Unique(t *testing.T) {
	const n = 5000
	seen := make(map[RunID]bool, n)
	for i := 0; i < n; i++ {
		id := NewRunID()
		require.False(t, id.IsEmpty())
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestParseRunID(t *testing.T) {
	valid := NewRunID()

	tests := []struct {
		name    string
		input   string
		want    RunID
		wantErr bool
	}{
		{"canonical", valid.String(), valid, false},
		{"padded", "  " + valid.String() + " ", valid, false},
		{"upper case", strings.ToUpper(valid.String()), valid, false},
		{"not a uuid", "run-123", "", true},
		{"empty", "", "", true},
		{"blank", "   ", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRunID(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimestamp_JSON(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 30, 0, 123456789, time.FixedZone("CET", 3600))
	ts := NewTimestamp(at)
	assert.Equal(t, time.UTC, ts.Time().Location())
	assert.Equal(t, 123456000, ts.Time().Nanosecond())
	assert.Equal(t, "2024-03-01T11:30:00Z", ts.String())

	b, err := json.Marshal(ts)
	require.NoError(t, err)
	var back Timestamp
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, ts.Time().Equal(back.Time()))
	assert.True(t, NewTimestamp(at.Add(-time.Second)).Before(ts))
}
