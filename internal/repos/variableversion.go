package repos

import (
  "context"
  "gorm.io/gorm"
  "github.com/Qubdi/Tobias/internal/logger"
  "github.com/Qubdi/Tobias/internal/types"
)

type VariableVersionRepo interface {
  Create(ctx context.Context, tx *gorm.DB, versions []*types.VariableVersion) ([]*types.VariableVersion, error)
  GetByVariableID(ctx context.Context, tx *gorm.DB, variableID int64) ([]*types.VariableVersion, error)
  GetLatestByVariableIDs(ctx context.Context, tx *gorm.DB, variableIDs []int64) ([]*types.VariableVersion, error)
  MaxVersionNumber(ctx context.Context, tx *gorm.DB, variableID int64) (int, error)
}

type variableVersionRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewVariableVersionRepo(db *gorm.DB, baseLog *logger.Logger) VariableVersionRepo {
  repoLog := baseLog.With("repo", "VariableVersionRepo")
  return &variableVersionRepo{db: db, log: repoLog}
}

func (vr *variableVersionRepo) Create(ctx context.Context, tx *gorm.DB, versions []*types.VariableVersion) ([]*types.VariableVersion, error) {
  transaction := tx
  if transaction == nil {
    transaction = vr.db
  }

  if len(versions) == 0 {
    return []*types.VariableVersion{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&versions).Error; err != nil {
    return nil, err
  }

  return versions, nil
}

func (vr *variableVersionRepo) GetByVariableID(ctx context.Context, tx *gorm.DB, variableID int64) ([]*types.VariableVersion, error) {
  transaction := tx
  if transaction == nil {
    transaction = vr.db
  }

  var results []*types.VariableVersion
  if err := transaction.WithContext(ctx).
    Where("variable_id = ?", variableID).
    Order("version_number ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

// GetLatestByVariableIDs returns, for each requested variable id that has at
// least one active version, the version with the highest version number.
// Variables without any active version are simply absent from the result.
func (vr *variableVersionRepo) GetLatestByVariableIDs(ctx context.Context, tx *gorm.DB, variableIDs []int64) ([]*types.VariableVersion, error) {
  transaction := tx
  if transaction == nil {
    transaction = vr.db
  }

  var results []*types.VariableVersion
  if len(variableIDs) == 0 {
    return results, nil
  }

  latest := transaction.WithContext(ctx).
    Model(&types.VariableVersion{}).
    Select("variable_id, MAX(version_number) AS max_version").
    Where("variable_id IN ?", variableIDs).
    Where("is_active = ?", true).
    Group("variable_id")

  if err := transaction.WithContext(ctx).
    Model(&types.VariableVersion{}).
    Joins("JOIN (?) AS latest ON latest.variable_id = variable_versions.variable_id AND latest.max_version = variable_versions.version_number", latest).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (vr *variableVersionRepo) MaxVersionNumber(ctx context.Context, tx *gorm.DB, variableID int64) (int, error) {
  transaction := tx
  if transaction == nil {
    transaction = vr.db
  }

  var max int
  if err := transaction.WithContext(ctx).
    Model(&types.VariableVersion{}).
    Where("variable_id = ?", variableID).
    Select("COALESCE(MAX(version_number), 0)").
    Scan(&max).Error; err != nil {
    return 0, err
  }
  return max, nil
}
