package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Contract errors, raised before any evaluation starts
	ErrParameterMismatch  = errors.New("parameter mismatch")
	ErrInvalidSampleCount = errors.New("invalid sample count")
	ErrUnknownScheme      = errors.New("unknown sampling scheme")

	// Evaluation errors
	ErrEvaluation    = errors.New("evaluation failed")
	ErrMetricShape   = fmt.Errorf("%w: metric shape mismatch", ErrEvaluation)
	ErrModelPanic    = fmt.Errorf("%w: model panicked", ErrEvaluation)
	ErrAllRowsFailed = errors.New("all rows failed")

	// Stage ordering errors
	ErrNoDesign         = errors.New("no sample design")
	ErrNoResults        = errors.New("no evaluation results")
	ErrStaleSensitivity = errors.New("stale sensitivity inputs")
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrRunNotFound      = errors.New("run not found")
	ErrInvalidRecord    = errors.New("invalid run record")
)

// EvaluationError records a single row whose model evaluation failed.
// It is collected into the failure summary and never returned by the
// orchestrator on its own.
type EvaluationError struct {
	Row int
	Err error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrEvaluation) match every row failure.
func (e *EvaluationError) Is(target error) bool {
	return target == ErrEvaluation
}

// Error constructors with context
func NewParameterMismatchError(input string, missing, extra []string) error {
	return fmt.Errorf("%w for input %q: missing %v, unexpected %v", ErrParameterMismatch, input, missing, extra)
}

func NewDuplicateParameterError(name string) error {
	return fmt.Errorf("%w: parameter %q declared more than once", ErrParameterMismatch, name)
}

func NewInvalidSampleCountError(n int) error {
	return fmt.Errorf("%w: n_samples must be a positive integer, got %d", ErrInvalidSampleCount, n)
}

func NewStaleSensitivityError(reason string) error {
	return fmt.Errorf("%w: %s", ErrStaleSensitivity, reason)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidRecord, field, reason)
}

func NewAllRowsFailedError(rows int, last error) error {
	return fmt.Errorf("%w: %d of %d rows, last error: %v", ErrAllRowsFailed, rows, rows, last)
}

// Error checking helpers
func IsContractError(err error) bool {
	return errors.Is(err, ErrParameterMismatch) ||
		errors.Is(err, ErrInvalidSampleCount) ||
		errors.Is(err, ErrUnknownScheme)
}

func IsStageError(err error) bool {
	return errors.Is(err, ErrNoDesign) ||
		errors.Is(err, ErrNoResults) ||
		errors.Is(err, ErrStaleSensitivity)
}
