package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/donaldgifford/deal-finder/internal/search"
	"github.com/donaldgifford/deal-finder/pkg/llm"
)

// ErrCancelled is returned when a run observes cancellation or its deadline
// at a suspension point. The context error is wrapped alongside it.
var ErrCancelled = errors.New("run cancelled")

// Failure reasons reported on the terminal event and in metrics.
const (
	ReasonCancelled     = "cancelled"
	ReasonConfiguration = "configuration"
	ReasonPlanning      = "planning"
	ReasonModelContract = "model_contract"
	ReasonModelCall     = "model_call"
	ReasonSearch        = "search"
	ReasonBadRequest    = "bad_request"
	ReasonInternal      = "internal"
)

// PlanningError is returned when search queries cannot be generated.
type PlanningError struct {
	Err error
}

func (e *PlanningError) Error() string {
	return fmt.Sprintf("planning search queries: %v", e.Err)
}

func (e *PlanningError) Unwrap() error {
	return e.Err
}

// ConfigurationError is returned when a pipeline tunable is missing or out
// of range. It is raised before a run starts, never mid-run.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid pipeline configuration: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// StageError attributes a run failure to the stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FailureReason classifies a run error for reporting.
func FailureReason(err error) string {
	var (
		cfgErr  *ConfigurationError
		planErr *PlanningError
		fetch   *search.FetchError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCancelled), errors.Is(err, context.Canceled):
		return ReasonCancelled
	case errors.As(err, &cfgErr):
		return ReasonConfiguration
	case errors.Is(err, ErrEmptyRequest), errors.Is(err, ErrNoProducts):
		return ReasonBadRequest
	case errors.As(err, &planErr):
		return ReasonPlanning
	case llm.IsContractError(err):
		return ReasonModelContract
	case errors.As(err, &fetch):
		return ReasonSearch
	}

	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return ReasonModelCall
	}
	return ReasonInternal
}

// cancelled wraps the context error with ErrCancelled.
func cancelled(ctx context.Context) error {
	return fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
}
