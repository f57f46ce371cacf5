package llm

import (
	"errors"
	"fmt"
)

// Contract violations.
var (
	ErrEmptyResponse = errors.New("empty response")
	ErrMissingField  = errors.New("missing required field")
	ErrOutOfRange    = errors.New("value out of valid range")
	ErrNoToolCall    = errors.New("response contained no tool call")
)

// ContractError is returned when a model response cannot be parsed into the
// shape a call expects.
type ContractError struct {
	Call string
	// Raw is the offending response, truncated.
	Raw string
	Err error
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("%s: model response violates contract: %v", e.Call, e.Err)
}

func (e *ContractError) Unwrap() error {
	return e.Err
}

// IsContractError reports whether err is or wraps a *ContractError.
func IsContractError(err error) bool {
	var ce *ContractError
	return errors.As(err, &ce)
}

func contractErr(call, raw string, err error) *ContractError {
	const maxRaw = 500
	if len(raw) > maxRaw {
		raw = raw[:maxRaw]
	}
	return &ContractError{Call: call, Raw: raw, Err: err}
}
