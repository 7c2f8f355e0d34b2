package models

// ItemStatus is the verdict for a single checklist item
type ItemStatus string

const (
	StatusPresent       ItemStatus = "present"
	StatusMissing       ItemStatus = "missing"
	StatusInconsistent  ItemStatus = "inconsistent"
	StatusNotApplicable ItemStatus = "not-applicable"
)

// Score returns the aggregation weight of a status
func (s ItemStatus) Score() float64 {
	switch s {
	case StatusPresent:
		return 1.0
	case StatusInconsistent:
		return 0.5
	default:
		return 0.0
	}
}

// ClassificationResult is the classifier verdict for one (submission, item) pair
type ClassificationResult struct {
	ItemID           string     `json:"item_id"`
	Status           ItemStatus `json:"status"`
	Confidence       float64    `json:"confidence"` // 0-100, certainty of the classifier
	Evidence         []string   `json:"evidence"`
	SourceReferences []string   `json:"source_references,omitempty"`
	Notes            string     `json:"notes"`
	NeedsReview      bool       `json:"needs_review"`
}
