package types

import (
  "time"
)

// VariableResult holds the current computed value of one variable for one
// application. The unique (application_id, variable_id) index makes the
// recomputation upsert atomic: last writer wins, never a duplicate row.
type VariableResult struct {
  ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
  ApplicationID string    `gorm:"size:50;not null;uniqueIndex:uq_app_variable,priority:1;column:application_id" json:"application_id"`
  VariableID    int64     `gorm:"not null;index;uniqueIndex:uq_app_variable,priority:2;column:variable_id" json:"variable_id"`
  Variable      *Variable `gorm:"constraint:OnDelete:CASCADE;foreignKey:VariableID;references:ID" json:"variable,omitempty"`
  Value         string    `gorm:"type:text;column:value" json:"value"`
  CalculatedBy  string    `gorm:"size:50;column:calculated_by" json:"calculated_by"`
  CalculatedAt  time.Time `gorm:"not null;column:calculated_at" json:"calculated_at"`
}

func (VariableResult) TableName() string {
  return "variable_results"
}
