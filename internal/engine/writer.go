package engine

import (
  "context"
  "sort"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/Qubdi/Tobias/internal/logger"
  "github.com/Qubdi/Tobias/internal/repos"
  "github.com/Qubdi/Tobias/internal/types"
)

// Summary is what the caller gets back: every requested variable id appears
// in exactly one of Succeeded, Failed or Unresolved.
type Summary struct {
  ApplicationID string            `json:"application_id"`
  BatchID       uuid.UUID         `json:"batch_id"`
  Succeeded     []int64           `json:"succeeded"`
  Failed        []FragmentFailure `json:"failed"`
  Unresolved    []int64           `json:"unresolved"`
}

// Writer persists the outcome of one calculation request: an upserted result
// row per success, and one append-only execution row per attempt, success or
// failure, unresolved included. Everything lands in a single transaction:
// if any audit write fails the whole request fails, because a calculation
// without its audit trail must not be visible.
type Writer struct {
  db            *gorm.DB
  log           *logger.Logger
  variableRepo  repos.VariableRepo
  resultRepo    repos.VariableResultRepo
  executionRepo repos.VariableExecutionRepo
}

func NewWriter(db *gorm.DB, baseLog *logger.Logger, variableRepo repos.VariableRepo, resultRepo repos.VariableResultRepo, executionRepo repos.VariableExecutionRepo) *Writer {
  return &Writer{
    db:            db,
    log:           baseLog.With("component", "Writer"),
    variableRepo:  variableRepo,
    resultRepo:    resultRepo,
    executionRepo: executionRepo,
  }
}

func (w *Writer) Commit(
  ctx context.Context,
  applicationID string,
  batchID uuid.UUID,
  executedBy string,
  outcome BatchOutcome,
  resolved map[int64]*types.VariableVersion,
  unresolved []int64,
) (*Summary, error) {
  summary := &Summary{
    ApplicationID: applicationID,
    BatchID:       batchID,
    Succeeded:     []int64{},
    Failed:        append([]FragmentFailure{}, outcome.Failed...),
    Unresolved:    append([]int64{}, unresolved...),
  }

  err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    now := time.Now().UTC()

    for _, success := range outcome.Succeeded {
      result := &types.VariableResult{
        ApplicationID: applicationID,
        VariableID:    success.VariableID,
        Value:         success.Value,
        CalculatedBy:  executedBy,
        CalculatedAt:  now,
      }
      stored, err := w.resultRepo.Upsert(ctx, tx, result)
      if err != nil {
        return &PersistenceError{Op: "result upsert", Err: err}
      }

      variableID := success.VariableID
      execution := &types.VariableExecution{
        BatchID:       batchID,
        ApplicationID: applicationID,
        VariableID:    &variableID,
        ExecutedBy:    executedBy,
        Status:        types.ExecutionStatusSuccess,
        ResultID:      &stored.ID,
        ExecutedAt:    now,
      }
      if version, ok := resolved[success.VariableID]; ok {
        execution.VersionID = &version.ID
      }
      if _, err := w.executionRepo.Create(ctx, tx, []*types.VariableExecution{execution}); err != nil {
        return &PersistenceError{Op: "execution append", Err: err}
      }
      summary.Succeeded = append(summary.Succeeded, success.VariableID)
    }

    // Failures keep their prior result row, if any: only a successful
    // recomputation may overwrite a value.
    for _, failure := range outcome.Failed {
      variableID := failure.VariableID
      execution := &types.VariableExecution{
        BatchID:       batchID,
        ApplicationID: applicationID,
        VariableID:    &variableID,
        ExecutedBy:    executedBy,
        Status:        types.ExecutionStatusFailure,
        ErrorDetail:   failure.Reason,
        ExecutedAt:    now,
      }
      if version, ok := resolved[failure.VariableID]; ok {
        execution.VersionID = &version.ID
      }
      if _, err := w.executionRepo.Create(ctx, tx, []*types.VariableExecution{execution}); err != nil {
        return &PersistenceError{Op: "execution append", Err: err}
      }
    }

    // Unresolved ids are audited too, as failure-kind executions with no
    // version reference. An id with no variables row at all cannot carry a
    // variable reference either: the column is constrained to variables(id),
    // so such rows go in with a null variable id and a distinct detail.
    known := make(map[int64]bool, len(unresolved))
    if len(unresolved) > 0 {
      variables, err := w.variableRepo.GetByIDs(ctx, tx, unresolved)
      if err != nil {
        return &PersistenceError{Op: "unresolved lookup", Err: err}
      }
      for _, v := range variables {
        known[v.ID] = true
      }
    }
    for _, id := range unresolved {
      execution := &types.VariableExecution{
        BatchID:       batchID,
        ApplicationID: applicationID,
        ExecutedBy:    executedBy,
        Status:        types.ExecutionStatusFailure,
        ErrorDetail:   "variable not found",
        ExecutedAt:    now,
      }
      if known[id] {
        variableID := id
        execution.VariableID = &variableID
        execution.ErrorDetail = "no active version"
      }
      if _, err := w.executionRepo.Create(ctx, tx, []*types.VariableExecution{execution}); err != nil {
        return &PersistenceError{Op: "execution append", Err: err}
      }
    }

    return nil
  })
  if err != nil {
    w.log.Error("Commit failed, rolling back calculation outcome", "error", err, "application_id", applicationID, "batch_id", batchID)
    return nil, err
  }

  sort.Slice(summary.Succeeded, func(i, j int) bool { return summary.Succeeded[i] < summary.Succeeded[j] })
  sort.Slice(summary.Failed, func(i, j int) bool { return summary.Failed[i].VariableID < summary.Failed[j].VariableID })
  return summary, nil
}
