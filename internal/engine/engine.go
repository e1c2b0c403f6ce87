package engine

import (
  "context"
  "fmt"
  "sort"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/Qubdi/Tobias/internal/logger"
  "github.com/Qubdi/Tobias/internal/repos"
  "github.com/Qubdi/Tobias/internal/types"
)

// Config bounds the executor. Zero values fall back to the defaults in
// NewExecutor.
type Config struct {
  BatchTimeout        time.Duration
  FragmentTimeout     time.Duration
  FragmentConcurrency int
}

type versionResolver interface {
  Resolve(ctx context.Context, tx *gorm.DB, variableIDs []int64) (map[int64]*types.VariableVersion, []int64, error)
}

type batchExecutor interface {
  Execute(ctx context.Context, unit *BatchUnit) BatchOutcome
}

type outcomeWriter interface {
  Commit(ctx context.Context, applicationID string, batchID uuid.UUID, executedBy string, outcome BatchOutcome, resolved map[int64]*types.VariableVersion, unresolved []int64) (*Summary, error)
}

// Engine is the calculation core: resolve -> compose -> execute -> commit.
// One request is handled end-to-end by one goroutine; the only internal
// parallelism is the executor's per-fragment fallback.
type Engine struct {
  log      *logger.Logger
  resolver versionResolver
  composer *Composer
  executor batchExecutor
  writer   outcomeWriter
}

func New(
  db *gorm.DB,
  baseLog *logger.Logger,
  variableRepo repos.VariableRepo,
  versionRepo repos.VariableVersionRepo,
  resultRepo repos.VariableResultRepo,
  executionRepo repos.VariableExecutionRepo,
  cfg Config,
) *Engine {
  log := baseLog.With("component", "Engine")
  return &Engine{
    log:      log,
    resolver: NewResolver(variableRepo, versionRepo, baseLog),
    composer: NewComposer(),
    executor: NewExecutor(db, baseLog, cfg.BatchTimeout, cfg.FragmentTimeout, cfg.FragmentConcurrency),
    writer:   NewWriter(db, baseLog, variableRepo, resultRepo, executionRepo),
  }
}

// Calculate is the sole public entry point. It rejects an empty request
// before any work begins, then walks every requested id to one of three
// terminal states. Per-variable failures come back inside the Summary; only
// request validation and store-level failures come back as errors.
func (e *Engine) Calculate(ctx context.Context, applicationID string, variableIDs []int64, executedBy string) (*Summary, error) {
  if applicationID == "" {
    return nil, ErrMissingApplication
  }
  if len(variableIDs) == 0 {
    return nil, ErrNoVariableIDs
  }

  ids := dedupeIDs(variableIDs)
  batchID := uuid.New()
  log := e.log.With("application_id", applicationID, "batch_id", batchID)
  log.Info("Calculating variables", "variable_ids", ids, "executed_by", executedBy)

  resolved, unresolved, err := e.resolver.Resolve(ctx, nil, ids)
  if err != nil {
    return nil, fmt.Errorf("resolve variable versions: %w", err)
  }

  unit, composeFailures := e.composer.Compose(applicationID, resolved)

  var outcome BatchOutcome
  if len(unit.Fragments) > 0 {
    outcome = e.executor.Execute(ctx, unit)
  }
  outcome.Failed = append(composeFailures, outcome.Failed...)

  summary, err := e.writer.Commit(ctx, applicationID, batchID, executedBy, outcome, resolved, unresolved)
  if err != nil {
    return nil, err
  }

  log.Info("Calculation finished",
    "succeeded", len(summary.Succeeded),
    "failed", len(summary.Failed),
    "unresolved", len(summary.Unresolved),
  )
  return summary, nil
}

func dedupeIDs(variableIDs []int64) []int64 {
  seen := make(map[int64]bool, len(variableIDs))
  ids := make([]int64, 0, len(variableIDs))
  for _, id := range variableIDs {
    if seen[id] {
      continue
    }
    seen[id] = true
    ids = append(ids, id)
  }
  sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
  return ids
}
