package models

// ChecklistItem is one discrete compliance requirement
type ChecklistItem struct {
	ID               string   `json:"id" yaml:"id"`
	Question         string   `json:"question" yaml:"question"`
	Category         string   `json:"category" yaml:"category"`
	Mandatory        bool     `json:"mandatory" yaml:"mandatory"`
	Weight           float64  `json:"weight" yaml:"weight"` // 0-100, zero means unspecified
	Guidance         string   `json:"guidance" yaml:"guidance"`
	ExampleEvidence  []string `json:"example_evidence" yaml:"examples"`
	StatuteReference string   `json:"statute_reference,omitempty" yaml:"statute_reference,omitempty"`
	Archetype        string   `json:"archetype,omitempty" yaml:"archetype,omitempty"`
	Keywords         []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// EffectiveWeight returns the weight used for scoring
func (i ChecklistItem) EffectiveWeight() float64 {
	if i.Weight <= 0 {
		return 1
	}
	return i.Weight
}

// Checklist is an ordered set of items with a name and version
type Checklist struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description" yaml:"description"`
	Version     string          `json:"version" yaml:"version"`
	Extends     string          `json:"extends,omitempty" yaml:"extends,omitempty"`
	Items       []ChecklistItem `json:"items" yaml:"items"`
}

// Item looks up an item by id
func (c Checklist) Item(id string) (ChecklistItem, bool) {
	for _, item := range c.Items {
		if item.ID == id {
			return item, true
		}
	}
	return ChecklistItem{}, false
}
