package repos

import (
  "context"
  "errors"
  "gorm.io/gorm"
  "github.com/Qubdi/Tobias/internal/logger"
  "github.com/Qubdi/Tobias/internal/types"
)

type VariableRepo interface {
  Create(ctx context.Context, tx *gorm.DB, variables []*types.Variable) ([]*types.Variable, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, variableIDs []int64) ([]*types.Variable, error)
  GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.Variable, error)
  NameExists(ctx context.Context, tx *gorm.DB, name string) (bool, error)
  ListActive(ctx context.Context, tx *gorm.DB) ([]*types.Variable, error)
  SetActive(ctx context.Context, tx *gorm.DB, variableID int64, active bool) error
}

type variableRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewVariableRepo(db *gorm.DB, baseLog *logger.Logger) VariableRepo {
  repoLog := baseLog.With("repo", "VariableRepo")
  return &variableRepo{db: db, log: repoLog}
}

func (vr *variableRepo) Create(ctx context.Context, tx *gorm.DB, variables []*types.Variable) ([]*types.Variable, error) {
  transaction := tx
  if transaction == nil {
    transaction = vr.db
  }

  if len(variables) == 0 {
    return []*types.Variable{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&variables).Error; err != nil {
    return nil, err
  }

  return variables, nil
}

func (vr *variableRepo) GetByIDs(ctx context.Context, tx *gorm.DB, variableIDs []int64) ([]*types.Variable, error) {
  transaction := tx
  if transaction == nil {
    transaction = vr.db
  }

  var results []*types.Variable

  if len(variableIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("id IN ?", variableIDs).
    Find(&results).Error; err != nil {
      return nil, err
  }
  return results, nil
}

func (vr *variableRepo) GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.Variable, error) {
  transaction := tx
  if transaction == nil {
    transaction = vr.db
  }

  var result types.Variable
  if err := transaction.WithContext(ctx).
    Where("name = ?", name).
    First(&result).Error; err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, nil
    }
    return nil, err
  }
  return &result, nil
}

func (vr *variableRepo) NameExists(ctx context.Context, tx *gorm.DB, name string) (bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = vr.db
  }

  var count int64

  if err := transaction.WithContext(ctx).
    Model(&types.Variable{}).
    Where("name = ?", name).
    Count(&count).Error; err != nil {
    return false, err
  }
  exists := count > 0
  return exists, nil
}

func (vr *variableRepo) ListActive(ctx context.Context, tx *gorm.DB) ([]*types.Variable, error) {
  transaction := tx
  if transaction == nil {
    transaction = vr.db
  }

  var results []*types.Variable
  if err := transaction.WithContext(ctx).
    Where("is_active = ?", true).
    Order("id ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (vr *variableRepo) SetActive(ctx context.Context, tx *gorm.DB, variableID int64, active bool) error {
  transaction := tx
  if transaction == nil {
    transaction = vr.db
  }

  res := transaction.WithContext(ctx).
    Model(&types.Variable{}).
    Where("id = ?", variableID).
    Update("is_active", active)
  if res.Error != nil {
    return res.Error
  }
  if res.RowsAffected == 0 {
    return gorm.ErrRecordNotFound
  }
  return nil
}
