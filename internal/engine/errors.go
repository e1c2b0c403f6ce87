package engine

import (
  "errors"
  "fmt"
)

// Request-level validation errors. These are rejected before any work begins.
var (
  ErrNoVariableIDs       = errors.New("no variable ids provided")
  ErrMissingApplication  = errors.New("missing application id")
)

// PersistenceError is the one failure class that aborts a whole calculation
// request: if the result/audit write itself fails, audit integrity cannot be
// guaranteed, so nothing is reported as partially done. Per-variable
// compose/execution failures never surface as this; they are folded into the
// Summary instead.
type PersistenceError struct {
  Op  string
  Err error
}

func (e *PersistenceError) Error() string {
  return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
  return e.Err
}

func IsPersistenceError(err error) bool {
  var pe *PersistenceError
  return errors.As(err, &pe)
}

// Failure stages recorded in per-variable failure reasons and audit rows.
const (
  stageCompose = "compose"
  stageExecute = "execute"
)

// FragmentFailure is a per-variable failure. It is data, not an error value:
// expected per-variable conditions travel through the Summary, never through
// the error return.
type FragmentFailure struct {
  VariableID int64  `json:"variable_id"`
  Reason     string `json:"reason"`
}

func composeFailure(variableID int64, reason string) FragmentFailure {
  return FragmentFailure{VariableID: variableID, Reason: stageCompose + ": " + reason}
}

func executeFailure(variableID int64, reason string) FragmentFailure {
  return FragmentFailure{VariableID: variableID, Reason: stageExecute + ": " + reason}
}
