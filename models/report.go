package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// RiskLevel is the coarse severity of a report
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// ComplianceReport is the aggregated outcome of one analysis
type ComplianceReport struct {
	ChecklistID      string                 `json:"checklist_id"`
	ChecklistVersion string                 `json:"checklist_version"`
	Results          []ClassificationResult `json:"results"`
	OverallScore     int                    `json:"overall_score"`
	RiskLevel        RiskLevel              `json:"risk_level"`
	CriticalIssues   []string               `json:"critical_issues"`
	Recommendations  []string               `json:"recommendations"`
	AnalyzedAt       time.Time              `json:"analyzed_at"`
}

// Value implements driver.Valuer for JSONB
func (r ComplianceReport) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements sql.Scanner for JSONB
func (r *ComplianceReport) Scan(value interface{}) error {
	var bytes []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported report column type %T", value)
	}
	if len(bytes) == 0 {
		return nil
	}
	return json.Unmarshal(bytes, r)
}
