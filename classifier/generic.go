package classifier

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"tendercheck-backend/lexicon"
	"tendercheck-backend/models"
)

// genericDetector scores an item by the share of its question keywords
// that occur literally in the submission
type genericDetector struct{}

func (genericDetector) Detect(item models.ChecklistItem, text string) (models.ClassificationResult, bool) {
	if strings.TrimSpace(text) == "" {
		return result(models.StatusMissing, genericAbsent,
			"Vereiste niet aangetroffen: de inschrijving bevat geen tekst.", nil), true
	}

	terms := lexicon.Terms(item.Question)
	if len(terms) == 0 {
		res := result(models.StatusInconsistent, genericIndeterminate,
			"Geen kernwoorden af te leiden uit de vraag; handmatige beoordeling nodig.", nil)
		res.NeedsReview = true
		return res, true
	}

	lower := strings.ToLower(text)
	var found []string
	for _, term := range terms {
		if strings.Contains(lower, term) {
			found = append(found, term)
		}
	}
	coverage := float64(len(found)) / float64(len(terms))
	percentage := math.Round(coverage * 100)

	switch {
	case coverage >= genericPresentRatio:
		return result(models.StatusPresent, math.Min(percentage, genericCap),
			fmt.Sprintf("Vereiste aangetroffen (%d/%d kernwoorden).", len(found), len(terms)),
			evidenceLines(text, literal(found))), true
	case coverage >= genericPartialRatio:
		return result(models.StatusInconsistent, math.Min(percentage, genericCap),
			fmt.Sprintf("Vereiste gedeeltelijk aangetroffen (%d/%d kernwoorden).", len(found), len(terms)),
			evidenceLines(text, literal(found))), true
	default:
		return result(models.StatusMissing, genericAbsent,
			"Vereiste niet aangetroffen in de inschrijving.", nil), true
	}
}

// literal turns plain terms into case-insensitive patterns
func literal(terms []string) patterns {
	exprs := make([]string, len(terms))
	for i, t := range terms {
		exprs[i] = regexp.QuoteMeta(t)
	}
	return compile(exprs...)
}
