package services

import (
  "context"
  "fmt"
  "time"

  "gorm.io/gorm"

  "github.com/Qubdi/Tobias/internal/logger"
  "github.com/Qubdi/Tobias/internal/repos"
  "github.com/Qubdi/Tobias/internal/types"
)

type CreateVariableInput struct {
  Name            string
  Description     string
  CalculationType string
  SQLScript       string
  CreatedBy       string
}

type UpdateVariableInput struct {
  SQLScript    string
  ChangeReason string
  EditedBy     string
}

type VariableService interface {
  Create(ctx context.Context, tx *gorm.DB, input CreateVariableInput) (*types.Variable, error)
  Get(ctx context.Context, tx *gorm.DB, variableID int64) (*types.Variable, error)
  ListActive(ctx context.Context, tx *gorm.DB) ([]*types.Variable, error)
  ListVersions(ctx context.Context, tx *gorm.DB, variableID int64) ([]*types.VariableVersion, error)
  Update(ctx context.Context, tx *gorm.DB, variableID int64, input UpdateVariableInput) (*types.VariableVersion, error)
  Deactivate(ctx context.Context, tx *gorm.DB, variableID int64) (*types.Variable, error)
}

type variableService struct {
  db           *gorm.DB
  log          *logger.Logger
  variableRepo repos.VariableRepo
  versionRepo  repos.VariableVersionRepo
}

func NewVariableService(
  db *gorm.DB,
  baseLog *logger.Logger,
  variableRepo repos.VariableRepo,
  versionRepo repos.VariableVersionRepo,
) VariableService {
  return &variableService{
    db:           db,
    log:          baseLog.With("service", "VariableService"),
    variableRepo: variableRepo,
    versionRepo:  versionRepo,
  }
}

func validCalculationType(calculationType string) bool {
  switch calculationType {
  case types.CalculationTypeLive, types.CalculationTypeDWH, types.CalculationTypeHybrid:
    return true
  }
  return false
}

// Create stores the variable together with its first version in one
// transaction, so no variable can exist without version 1.
func (s *variableService) Create(ctx context.Context, tx *gorm.DB, input CreateVariableInput) (*types.Variable, error) {
  if input.Name == "" {
    return nil, fmt.Errorf("missing variable name")
  }
  if input.SQLScript == "" {
    return nil, fmt.Errorf("missing sql script")
  }
  if !validCalculationType(input.CalculationType) {
    return nil, fmt.Errorf("invalid calculation type %q", input.CalculationType)
  }

  transaction := tx
  if transaction == nil {
    transaction = s.db
  }

  var created *types.Variable
  err := transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
    // Names stay reserved even for deactivated variables, so the check runs
    // over every row regardless of is_active.
    exists, err := s.variableRepo.NameExists(ctx, txx, input.Name)
    if err != nil {
      return err
    }
    if exists {
      return fmt.Errorf("variable %q already exists", input.Name)
    }

    variable := &types.Variable{
      Name:            input.Name,
      Description:     input.Description,
      CalculationType: input.CalculationType,
      IsActive:        true,
      CreatedBy:       input.CreatedBy,
    }
    if _, err := s.variableRepo.Create(ctx, txx, []*types.Variable{variable}); err != nil {
      return err
    }

    version := &types.VariableVersion{
      VariableID:    variable.ID,
      VersionNumber: 1,
      SQLScript:     input.SQLScript,
      ChangeReason:  "Initial version",
      EditedBy:      input.CreatedBy,
      EditedAt:      time.Now().UTC(),
      IsActive:      true,
    }
    if _, err := s.versionRepo.Create(ctx, txx, []*types.VariableVersion{version}); err != nil {
      return err
    }

    created = variable
    return nil
  })
  if err != nil {
    s.log.Warn("Create variable failed", "error", err, "name", input.Name)
    return nil, err
  }
  return created, nil
}

func (s *variableService) Get(ctx context.Context, tx *gorm.DB, variableID int64) (*types.Variable, error) {
  variables, err := s.variableRepo.GetByIDs(ctx, tx, []int64{variableID})
  if err != nil {
    return nil, err
  }
  if len(variables) == 0 || variables[0] == nil {
    return nil, fmt.Errorf("variable not found")
  }
  return variables[0], nil
}

func (s *variableService) ListActive(ctx context.Context, tx *gorm.DB) ([]*types.Variable, error) {
  return s.variableRepo.ListActive(ctx, tx)
}

// ListVersions works for deactivated variables too: history stays queryable
// after a soft delete.
func (s *variableService) ListVersions(ctx context.Context, tx *gorm.DB, variableID int64) ([]*types.VariableVersion, error) {
  if _, err := s.Get(ctx, tx, variableID); err != nil {
    return nil, err
  }
  return s.versionRepo.GetByVariableID(ctx, tx, variableID)
}

// Update never touches existing versions: it appends a new one, numbered one
// above the current maximum. Read-max and insert run in one transaction, and
// the (variable_id, version_number) unique index backstops concurrent
// updaters, so numbers stay contiguous per variable.
func (s *variableService) Update(ctx context.Context, tx *gorm.DB, variableID int64, input UpdateVariableInput) (*types.VariableVersion, error) {
  if input.SQLScript == "" {
    return nil, fmt.Errorf("missing sql script")
  }

  transaction := tx
  if transaction == nil {
    transaction = s.db
  }

  var created *types.VariableVersion
  err := transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
    variable, err := s.Get(ctx, txx, variableID)
    if err != nil {
      return err
    }
    if !variable.IsActive {
      return fmt.Errorf("variable not found")
    }

    maxVersion, err := s.versionRepo.MaxVersionNumber(ctx, txx, variableID)
    if err != nil {
      return err
    }

    version := &types.VariableVersion{
      VariableID:    variableID,
      VersionNumber: maxVersion + 1,
      SQLScript:     input.SQLScript,
      ChangeReason:  input.ChangeReason,
      EditedBy:      input.EditedBy,
      EditedAt:      time.Now().UTC(),
      IsActive:      true,
    }
    if _, err := s.versionRepo.Create(ctx, txx, []*types.VariableVersion{version}); err != nil {
      return err
    }

    created = version
    return nil
  })
  if err != nil {
    s.log.Warn("Update variable failed", "error", err, "variable_id", variableID)
    return nil, err
  }
  return created, nil
}

// Deactivate is the only deletion there is: the row stays, the name stays
// reserved, versions/results/executions stay queryable.
func (s *variableService) Deactivate(ctx context.Context, tx *gorm.DB, variableID int64) (*types.Variable, error) {
  variable, err := s.Get(ctx, tx, variableID)
  if err != nil {
    return nil, err
  }
  if err := s.variableRepo.SetActive(ctx, tx, variableID, false); err != nil {
    return nil, err
  }
  variable.IsActive = false
  return variable, nil
}
