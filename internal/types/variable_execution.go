package types

import (
  "time"
  "github.com/google/uuid"
)

const (
  ExecutionStatusSuccess = "success"
  ExecutionStatusFailure = "failure"
)

// VariableExecution is the append-only audit trail: exactly one row per
// calculation attempt, success or failure. VariableID is nullable so a
// failure that happens before a variable could be identified is still
// recordable. BatchID groups every row written by one calculate request.
type VariableExecution struct {
  ID            int64            `gorm:"primaryKey;autoIncrement" json:"id"`
  BatchID       uuid.UUID        `gorm:"type:uuid;not null;index;column:batch_id" json:"batch_id"`
  ApplicationID string           `gorm:"size:50;not null;index;column:application_id" json:"application_id"`
  VariableID    *int64           `gorm:"index;column:variable_id" json:"variable_id,omitempty"`
  Variable      *Variable        `gorm:"constraint:OnDelete:CASCADE;foreignKey:VariableID;references:ID" json:"variable,omitempty"`
  VersionID     *int64           `gorm:"column:version_id" json:"version_id,omitempty"`
  Version       *VariableVersion `gorm:"constraint:OnDelete:SET NULL;foreignKey:VersionID;references:ID" json:"version,omitempty"`
  ExecutedBy    string           `gorm:"size:50;column:executed_by" json:"executed_by"`
  Status        string           `gorm:"size:10;not null;column:status" json:"status"`
  ErrorDetail   string           `gorm:"type:text;column:error_detail" json:"error_detail,omitempty"`
  ResultID      *int64           `gorm:"column:result_id" json:"result_id,omitempty"`
  Result        *VariableResult  `gorm:"constraint:OnDelete:SET NULL;foreignKey:ResultID;references:ID" json:"result,omitempty"`
  ExecutedAt    time.Time        `gorm:"not null;column:executed_at" json:"executed_at"`
}

func (VariableExecution) TableName() string {
  return "variable_executions"
}
