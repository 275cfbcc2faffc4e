package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// RunID identifies one uncertainty run: its design, results and
// sensitivity. It is a UUID v7 string, so ids sort by creation time.
type RunID string

// NewRunID creates a time-ordered run identifier
func NewRunID() RunID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return RunID(id.String())
}

func (id RunID) String() string { return string(id) }

// IsEmpty reports whether the id is unset
func (id RunID) IsEmpty() bool { return id == "" }

// ParseRunID accepts any UUID, ignoring surrounding space, and returns it
// in canonical lower-case form
func ParseRunID(s string) (RunID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("run ID %q is not a UUID: %w", s, err)
	}
	return RunID(u.String()), nil
}
