package services

import (
  "context"

  "github.com/Qubdi/Tobias/internal/engine"
  "github.com/Qubdi/Tobias/internal/logger"
)

// CalculationService fronts the engine for the transport layer. The caller's
// identity is opaque here; it is only carried through to the audit rows.
type CalculationService interface {
  Calculate(ctx context.Context, applicationID string, variableIDs []int64, calculatedBy string) (*engine.Summary, error)
}

type calculationService struct {
  log    *logger.Logger
  engine calculationEngine
}

type calculationEngine interface {
  Calculate(ctx context.Context, applicationID string, variableIDs []int64, executedBy string) (*engine.Summary, error)
}

func NewCalculationService(baseLog *logger.Logger, eng *engine.Engine) CalculationService {
  return &calculationService{
    log:    baseLog.With("service", "CalculationService"),
    engine: eng,
  }
}

func (s *calculationService) Calculate(ctx context.Context, applicationID string, variableIDs []int64, calculatedBy string) (*engine.Summary, error) {
  if calculatedBy == "" {
    calculatedBy = "system"
  }
  return s.engine.Calculate(ctx, applicationID, variableIDs, calculatedBy)
}
