package engine

import (
  "context"
  "sort"
  "gorm.io/gorm"
  "github.com/Qubdi/Tobias/internal/logger"
  "github.com/Qubdi/Tobias/internal/repos"
  "github.com/Qubdi/Tobias/internal/types"
)

// Resolver maps requested variable ids to their current version: the highest
// numbered active version of an active variable. Ids that cannot be resolved
// are reported back, not treated as errors; the caller decides what partial
// resolution means. Pure read, no side effects.
type Resolver struct {
  variableRepo repos.VariableRepo
  versionRepo  repos.VariableVersionRepo
  log          *logger.Logger
}

func NewResolver(variableRepo repos.VariableRepo, versionRepo repos.VariableVersionRepo, baseLog *logger.Logger) *Resolver {
  return &Resolver{
    variableRepo: variableRepo,
    versionRepo:  versionRepo,
    log:          baseLog.With("component", "Resolver"),
  }
}

func (r *Resolver) Resolve(ctx context.Context, tx *gorm.DB, variableIDs []int64) (map[int64]*types.VariableVersion, []int64, error) {
  resolved := make(map[int64]*types.VariableVersion, len(variableIDs))
  if len(variableIDs) == 0 {
    return resolved, nil, nil
  }

  variables, err := r.variableRepo.GetByIDs(ctx, tx, variableIDs)
  if err != nil {
    return nil, nil, err
  }
  activeVariables := make(map[int64]bool, len(variables))
  for _, v := range variables {
    if v.IsActive {
      activeVariables[v.ID] = true
    }
  }

  versions, err := r.versionRepo.GetLatestByVariableIDs(ctx, tx, variableIDs)
  if err != nil {
    return nil, nil, err
  }
  for _, version := range versions {
    if !activeVariables[version.VariableID] {
      continue
    }
    resolved[version.VariableID] = version
  }

  var unresolved []int64
  for _, id := range variableIDs {
    if _, ok := resolved[id]; !ok {
      unresolved = append(unresolved, id)
    }
  }
  sort.Slice(unresolved, func(i, j int) bool { return unresolved[i] < unresolved[j] })

  if len(unresolved) > 0 {
    r.log.Debug("Some variable ids could not be resolved", "unresolved", unresolved)
  }
  return resolved, unresolved, nil
}
