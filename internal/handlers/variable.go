package handlers

import (
  "errors"
  "net/http"
  "strconv"
  "github.com/gin-gonic/gin"
  "github.com/Qubdi/Tobias/internal/engine"
  "github.com/Qubdi/Tobias/internal/logger"
  "github.com/Qubdi/Tobias/internal/services"
)

type VariableHandler struct {
  log                *logger.Logger
  variableService    services.VariableService
  calculationService services.CalculationService
}

func NewVariableHandler(log *logger.Logger, vsvc services.VariableService, csvc services.CalculationService) *VariableHandler {
  return &VariableHandler{
    log:                log.With("handler", "VariableHandler"),
    variableService:    vsvc,
    calculationService: csvc,
  }
}

func (vh *VariableHandler) CreateVariable(c *gin.Context) {
  var req struct {
    Name            string      `json:"name"`
    Description     string      `json:"description"`
    CalculationType string      `json:"calculation_type"`
    SQLScript       string      `json:"sql_script"`
    CreatedBy       string      `json:"created_by"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  variable, err := vh.variableService.Create(c.Request.Context(), nil, services.CreateVariableInput{
    Name:            req.Name,
    Description:     req.Description,
    CalculationType: req.CalculationType,
    SQLScript:       req.SQLScript,
    CreatedBy:       req.CreatedBy,
  })
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    return
  }
  c.JSON(http.StatusOK, variable)
}

func (vh *VariableHandler) ListVariables(c *gin.Context) {
  variables, err := vh.variableService.ListActive(c.Request.Context(), nil)
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    return
  }
  c.JSON(http.StatusOK, variables)
}

func (vh *VariableHandler) GetVariable(c *gin.Context) {
  variableID, ok := pathID(c)
  if !ok {
    return
  }
  variable, err := vh.variableService.Get(c.Request.Context(), nil, variableID)
  if err != nil {
    c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
    return
  }
  c.JSON(http.StatusOK, variable)
}

func (vh *VariableHandler) ListVariableVersions(c *gin.Context) {
  variableID, ok := pathID(c)
  if !ok {
    return
  }
  versions, err := vh.variableService.ListVersions(c.Request.Context(), nil, variableID)
  if err != nil {
    c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
    return
  }
  c.JSON(http.StatusOK, versions)
}

func (vh *VariableHandler) UpdateVariable(c *gin.Context) {
  variableID, ok := pathID(c)
  if !ok {
    return
  }
  var req struct {
    SQLScript    string      `json:"sql_script"`
    ChangeReason string      `json:"change_reason"`
    EditedBy     string      `json:"edited_by"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  version, err := vh.variableService.Update(c.Request.Context(), nil, variableID, services.UpdateVariableInput{
    SQLScript:    req.SQLScript,
    ChangeReason: req.ChangeReason,
    EditedBy:     req.EditedBy,
  })
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    return
  }
  c.JSON(http.StatusOK, version)
}

func (vh *VariableHandler) DeleteVariable(c *gin.Context) {
  variableID, ok := pathID(c)
  if !ok {
    return
  }
  variable, err := vh.variableService.Deactivate(c.Request.Context(), nil, variableID)
  if err != nil {
    c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
    return
  }
  c.JSON(http.StatusOK, gin.H{"message": "Variable " + variable.Name + " marked as inactive"})
}

func (vh *VariableHandler) CalculateVariables(c *gin.Context) {
  var req struct {
    ApplicationID string      `json:"application_id"`
    VariableIDs   []int64     `json:"variable_ids"`
    CalculatedBy  string      `json:"calculated_by"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  summary, err := vh.calculationService.Calculate(c.Request.Context(), req.ApplicationID, req.VariableIDs, req.CalculatedBy)
  if err != nil {
    if errors.Is(err, engine.ErrNoVariableIDs) || errors.Is(err, engine.ErrMissingApplication) {
      c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
      return
    }
    vh.log.Error("Calculation failed", "error", err, "application_id", req.ApplicationID)
    c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
    return
  }
  c.JSON(http.StatusOK, summary)
}

func pathID(c *gin.Context) (int64, bool) {
  id, err := strconv.ParseInt(c.Param("id"), 10, 64)
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid variable id"})
    return 0, false
  }
  return id, true
}
