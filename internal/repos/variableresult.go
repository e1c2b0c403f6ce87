package repos

import (
  "context"
  "errors"
  "gorm.io/gorm"
  "gorm.io/gorm/clause"
  "github.com/Qubdi/Tobias/internal/logger"
  "github.com/Qubdi/Tobias/internal/types"
)

type VariableResultRepo interface {
  Upsert(ctx context.Context, tx *gorm.DB, result *types.VariableResult) (*types.VariableResult, error)
  GetByApplicationAndVariableID(ctx context.Context, tx *gorm.DB, applicationID string, variableID int64) (*types.VariableResult, error)
  GetByApplicationID(ctx context.Context, tx *gorm.DB, applicationID string) ([]*types.VariableResult, error)
}

type variableResultRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewVariableResultRepo(db *gorm.DB, baseLog *logger.Logger) VariableResultRepo {
  repoLog := baseLog.With("repo", "VariableResultRepo")
  return &variableResultRepo{db: db, log: repoLog}
}

// Upsert writes the result for (application_id, variable_id) as a single
// atomic insert-or-update guarded by the unique index, so concurrent
// recomputations of the same pair can never produce duplicate rows. The
// returned row carries the surviving primary key.
func (vr *variableResultRepo) Upsert(ctx context.Context, tx *gorm.DB, result *types.VariableResult) (*types.VariableResult, error) {
  transaction := tx
  if transaction == nil {
    transaction = vr.db
  }

  if err := transaction.WithContext(ctx).
    Clauses(clause.OnConflict{
      Columns:   []clause.Column{{Name: "application_id"}, {Name: "variable_id"}},
      DoUpdates: clause.AssignmentColumns([]string{"value", "calculated_by", "calculated_at"}),
    }).
    Create(result).Error; err != nil {
    return nil, err
  }

  // On the conflict path the driver does not report the existing row's id,
  // so re-read the pair to hand callers the persisted row.
  stored, err := vr.GetByApplicationAndVariableID(ctx, transaction, result.ApplicationID, result.VariableID)
  if err != nil {
    return nil, err
  }
  if stored == nil {
    return result, nil
  }
  return stored, nil
}

func (vr *variableResultRepo) GetByApplicationAndVariableID(ctx context.Context, tx *gorm.DB, applicationID string, variableID int64) (*types.VariableResult, error) {
  transaction := tx
  if transaction == nil {
    transaction = vr.db
  }

  var result types.VariableResult
  if err := transaction.WithContext(ctx).
    Where("application_id = ? AND variable_id = ?", applicationID, variableID).
    First(&result).Error; err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, nil
    }
    return nil, err
  }
  return &result, nil
}

func (vr *variableResultRepo) GetByApplicationID(ctx context.Context, tx *gorm.DB, applicationID string) ([]*types.VariableResult, error) {
  transaction := tx
  if transaction == nil {
    transaction = vr.db
  }

  var results []*types.VariableResult
  if err := transaction.WithContext(ctx).
    Where("application_id = ?", applicationID).
    Order("variable_id ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}
