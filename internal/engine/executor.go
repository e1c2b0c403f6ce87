package engine

import (
  "context"
  "database/sql"
  "errors"
  "fmt"
  "sort"
  "sync"
  "time"

  "golang.org/x/sync/errgroup"
  "gorm.io/gorm"

  "github.com/Qubdi/Tobias/internal/logger"
)

// SucceededVariable is one computed value out of a batch.
type SucceededVariable struct {
  VariableID int64  `json:"variable_id"`
  Value      string `json:"value"`
}

// BatchOutcome reports the terminal state of every fragment that entered the
// executor: each variable id lands in exactly one of Succeeded or Failed.
type BatchOutcome struct {
  Succeeded []SucceededVariable
  Failed    []FragmentFailure
}

// Executor runs a composed BatchUnit against the backing store. It first
// attempts the whole batch as one statement inside a single transaction; if
// that fails, it falls back to running each fragment individually so the
// failing variable(s) can be isolated while their siblings still succeed.
// No fragment is ever retried beyond that one fallback pass.
type Executor struct {
  db                  *gorm.DB
  log                 *logger.Logger
  batchTimeout        time.Duration
  fragmentTimeout     time.Duration
  fragmentConcurrency int
  run                 statementRunner
}

// statementRunner executes one composed statement under a timeout. Tests swap
// it out to simulate store behavior the sqlite harness cannot produce, such
// as a statement that only finishes after its deadline.
type statementRunner func(ctx context.Context, timeout time.Duration, sqlText, applicationID string) ([]valueRow, error)

func NewExecutor(db *gorm.DB, baseLog *logger.Logger, batchTimeout, fragmentTimeout time.Duration, fragmentConcurrency int) *Executor {
  if batchTimeout <= 0 {
    batchTimeout = 30 * time.Second
  }
  if fragmentTimeout <= 0 {
    fragmentTimeout = 10 * time.Second
  }
  if fragmentConcurrency <= 0 {
    fragmentConcurrency = 4
  }
  e := &Executor{
    db:                  db,
    log:                 baseLog.With("component", "Executor"),
    batchTimeout:        batchTimeout,
    fragmentTimeout:     fragmentTimeout,
    fragmentConcurrency: fragmentConcurrency,
  }
  e.run = e.runStatement
  return e
}

type valueRow struct {
  ApplicationID string         `gorm:"column:application_id"`
  VariableID    int64          `gorm:"column:variable_id"`
  Value         sql.NullString `gorm:"column:value"`
}

func (e *Executor) Execute(ctx context.Context, unit *BatchUnit) BatchOutcome {
  var outcome BatchOutcome
  if len(unit.Fragments) == 0 {
    return outcome
  }

  rows, err := e.run(ctx, e.batchTimeout, unit.BatchSQL(), unit.ApplicationID)
  if err == nil {
    return collectOutcome(unit.Fragments, rows)
  }

  e.log.Warn("Whole-batch execution failed, isolating fragments", "error", err, "fragments", len(unit.Fragments))
  return e.executeFragments(ctx, unit)
}

// executeFragments is the fallback path: each fragment runs on its own, with
// its own timeout, so one malformed fragment cannot abort its siblings.
// Fragments are independent pure reads, so running them concurrently is safe;
// result persistence happens later, serialized by the writer.
func (e *Executor) executeFragments(ctx context.Context, unit *BatchUnit) BatchOutcome {
  var (
    mu      sync.Mutex
    outcome BatchOutcome
  )

  g, gctx := errgroup.WithContext(ctx)
  g.SetLimit(e.fragmentConcurrency)
  for _, fragment := range unit.Fragments {
    f := fragment
    g.Go(func() error {
      rows, err := e.run(gctx, e.fragmentTimeout, unit.FragmentSQL(f), unit.ApplicationID)
      mu.Lock()
      defer mu.Unlock()
      if err != nil {
        outcome.Failed = append(outcome.Failed, executeFailure(f.VariableID, failureReason(err, e.fragmentTimeout)))
        return nil
      }
      partial := collectOutcome([]Fragment{f}, rows)
      outcome.Succeeded = append(outcome.Succeeded, partial.Succeeded...)
      outcome.Failed = append(outcome.Failed, partial.Failed...)
      return nil
    })
  }
  _ = g.Wait()

  sort.Slice(outcome.Succeeded, func(i, j int) bool { return outcome.Succeeded[i].VariableID < outcome.Succeeded[j].VariableID })
  sort.Slice(outcome.Failed, func(i, j int) bool { return outcome.Failed[i].VariableID < outcome.Failed[j].VariableID })
  return outcome
}

// runStatement executes one composed statement in its own transaction so the
// connection is never held past a single execute-and-commit cycle. The
// application id rides along as a bound parameter.
func (e *Executor) runStatement(ctx context.Context, timeout time.Duration, sqlText, applicationID string) ([]valueRow, error) {
  tctx, cancel := context.WithTimeout(ctx, timeout)
  defer cancel()

  var rows []valueRow
  err := e.db.WithContext(tctx).Transaction(func(tx *gorm.DB) error {
    return tx.Raw(sqlText, sql.Named("app_id", applicationID)).Scan(&rows).Error
  })
  if err != nil {
    return nil, err
  }
  return rows, nil
}

func collectOutcome(fragments []Fragment, rows []valueRow) BatchOutcome {
  values := make(map[int64]string, len(rows))
  seen := make(map[int64]bool, len(rows))
  for _, row := range rows {
    values[row.VariableID] = row.Value.String
    seen[row.VariableID] = true
  }

  var outcome BatchOutcome
  for _, f := range fragments {
    if !seen[f.VariableID] {
      outcome.Failed = append(outcome.Failed, executeFailure(f.VariableID, "fragment returned no value"))
      continue
    }
    outcome.Succeeded = append(outcome.Succeeded, SucceededVariable{VariableID: f.VariableID, Value: values[f.VariableID]})
  }
  return outcome
}

func failureReason(err error, timeout time.Duration) string {
  if errors.Is(err, context.DeadlineExceeded) {
    return fmt.Sprintf("timed out after %s", timeout)
  }
  return err.Error()
}
