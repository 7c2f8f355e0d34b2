// Package compliance turns per-item classification results into a scored report.
package compliance

import (
	"fmt"
	"math"
	"time"

	"tendercheck-backend/models"
)

const (
	maxCriticalIssues = 5

	criticalScore = 50
	highScore     = 70
	mediumScore   = 85

	criticalMandatoryMissing = 2
)

// Aggregate builds the report for checklist from results.
//
// Results are projected onto the checklist order. Items without a result are
// reported as missing and flagged for review; results for unknown items are
// dropped and for duplicate item ids the first one wins.
func Aggregate(results []models.ClassificationResult, checklist models.Checklist) models.ComplianceReport {
	byID := make(map[string]models.ClassificationResult, len(results))
	for _, r := range results {
		if _, dup := byID[r.ItemID]; !dup {
			byID[r.ItemID] = r
		}
	}

	report := models.ComplianceReport{
		ChecklistID:      checklist.ID,
		ChecklistVersion: checklist.Version,
		Results:          make([]models.ClassificationResult, 0, len(checklist.Items)),
		CriticalIssues:   []string{},
		Recommendations:  []string{},
		AnalyzedAt:       time.Now().UTC(),
	}

	var achieved, total float64
	var missing, inconsistent, mandatoryMissing int
	for _, item := range checklist.Items {
		r, ok := byID[item.ID]
		if !ok {
			r = models.ClassificationResult{
				ItemID:      item.ID,
				Status:      models.StatusMissing,
				Confidence:  0,
				Evidence:    []string{},
				Notes:       "Geen beoordeling beschikbaar; handmatige controle vereist.",
				NeedsReview: true,
			}
		}
		report.Results = append(report.Results, r)

		w := item.EffectiveWeight()
		total += w
		achieved += r.Status.Score() * w

		switch r.Status {
		case models.StatusMissing:
			missing++
			if item.Mandatory {
				mandatoryMissing++
			}
			if len(report.CriticalIssues) < maxCriticalIssues {
				report.CriticalIssues = append(report.CriticalIssues, criticalIssue(item))
			}
		case models.StatusInconsistent:
			inconsistent++
		}
	}

	if total > 0 {
		report.OverallScore = int(math.Round(100 * achieved / total))
	}
	report.RiskLevel = Risk(report.OverallScore, mandatoryMissing)

	if missing > 0 {
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("%d eisen ontbreken en moeten worden aangevuld.", missing))
	}
	if inconsistent > 0 {
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("%d eisen zijn inconsistent en vereisen verduidelijking.", inconsistent))
	}
	return report
}

// Risk maps a score and the number of missing mandatory items to a risk level
func Risk(score, mandatoryMissing int) models.RiskLevel {
	switch {
	case mandatoryMissing >= criticalMandatoryMissing || score < criticalScore:
		return models.RiskCritical
	case mandatoryMissing >= 1 || score < highScore:
		return models.RiskHigh
	case score < mediumScore:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

func criticalIssue(item models.ChecklistItem) string {
	issue := "Ontbrekende vereiste: " + item.ID
	if item.Mandatory {
		issue += " (verplicht)"
	}
	if item.Question != "" {
		issue += " - " + item.Question
	}
	return issue
}
