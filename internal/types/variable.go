package types

import (
  "time"
)

// Calculation types a variable can declare.
const (
  CalculationTypeLive   = "live"
  CalculationTypeDWH    = "dwh"
  CalculationTypeHybrid = "hybrid"
)

type Variable struct {
  ID              int64             `gorm:"primaryKey;autoIncrement" json:"id"`
  Name            string            `gorm:"size:100;uniqueIndex;not null;column:name" json:"name"`
  Description     string            `gorm:"type:text;column:description" json:"description"`
  CalculationType string            `gorm:"size:10;not null;column:calculation_type" json:"calculation_type"`
  IsActive        bool              `gorm:"not null;default:true;column:is_active" json:"is_active"`
  CreatedBy       string            `gorm:"size:50;column:created_by" json:"created_by"`
  CreatedAt       time.Time         `gorm:"not null" json:"created_at"`
  Versions        []VariableVersion `gorm:"constraint:OnDelete:CASCADE;foreignKey:VariableID;references:ID" json:"versions,omitempty"`
  Results         []VariableResult  `gorm:"constraint:OnDelete:CASCADE;foreignKey:VariableID;references:ID" json:"results,omitempty"`
}

func (Variable) TableName() string {
  return "variables"
}
