package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/Qubdi/Tobias/internal/logger"
  "github.com/Qubdi/Tobias/internal/types"
)

// VariableExecutionRepo is append-only: execution rows are audit records and
// are never updated or deleted here.
type VariableExecutionRepo interface {
  Create(ctx context.Context, tx *gorm.DB, executions []*types.VariableExecution) ([]*types.VariableExecution, error)
  GetByApplicationID(ctx context.Context, tx *gorm.DB, applicationID string) ([]*types.VariableExecution, error)
  GetByBatchID(ctx context.Context, tx *gorm.DB, batchID uuid.UUID) ([]*types.VariableExecution, error)
}

type variableExecutionRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewVariableExecutionRepo(db *gorm.DB, baseLog *logger.Logger) VariableExecutionRepo {
  repoLog := baseLog.With("repo", "VariableExecutionRepo")
  return &variableExecutionRepo{db: db, log: repoLog}
}

func (er *variableExecutionRepo) Create(ctx context.Context, tx *gorm.DB, executions []*types.VariableExecution) ([]*types.VariableExecution, error) {
  transaction := tx
  if transaction == nil {
    transaction = er.db
  }

  if len(executions) == 0 {
    return []*types.VariableExecution{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&executions).Error; err != nil {
    return nil, err
  }

  return executions, nil
}

func (er *variableExecutionRepo) GetByApplicationID(ctx context.Context, tx *gorm.DB, applicationID string) ([]*types.VariableExecution, error) {
  transaction := tx
  if transaction == nil {
    transaction = er.db
  }

  var results []*types.VariableExecution
  if err := transaction.WithContext(ctx).
    Where("application_id = ?", applicationID).
    Order("id ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (er *variableExecutionRepo) GetByBatchID(ctx context.Context, tx *gorm.DB, batchID uuid.UUID) ([]*types.VariableExecution, error) {
  transaction := tx
  if transaction == nil {
    transaction = er.db
  }

  var results []*types.VariableExecution
  if err := transaction.WithContext(ctx).
    Where("batch_id = ?", batchID).
    Order("id ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}
