package types

import (
  "time"
)

// VariableVersion is one immutable revision of a variable's SQL script.
// Version numbers are assigned by the service, never by the caller, and are
// contiguous per variable. Updates append a new row; existing rows are never
// mutated.
type VariableVersion struct {
  ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
  VariableID    int64     `gorm:"not null;index;uniqueIndex:uq_variable_version,priority:1;column:variable_id" json:"variable_id"`
  Variable      *Variable `gorm:"constraint:OnDelete:CASCADE;foreignKey:VariableID;references:ID" json:"variable,omitempty"`
  VersionNumber int       `gorm:"not null;uniqueIndex:uq_variable_version,priority:2;column:version_number" json:"version_number"`
  SQLScript     string    `gorm:"type:text;not null;column:sql_script" json:"sql_script"`
  ChangeReason  string    `gorm:"type:text;column:change_reason" json:"change_reason"`
  EditedBy      string    `gorm:"size:50;column:edited_by" json:"edited_by"`
  EditedAt      time.Time `gorm:"not null;column:edited_at" json:"edited_at"`
  IsActive      bool      `gorm:"not null;default:true;column:is_active" json:"is_active"`
}

func (VariableVersion) TableName() string {
  return "variable_versions"
}
