package corpus

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"tendercheck-backend/models"
)

// ErrUnknownChecklist is returned for a checklist id that is not defined
var ErrUnknownChecklist = errors.New("unknown checklist")

// DefaultChecklistID is used when a request names no checklist
const DefaultChecklistID = "basis-aanbesteding"

// Checklists is an ordered, immutable set of checklist definitions
type Checklists struct {
	order []string
	byID  map[string]models.Checklist
}

// DefaultChecklists returns the embedded checklist definitions
func DefaultChecklists() *Checklists {
	data, err := seedFS.ReadFile("data/checklists.yaml")
	if err != nil {
		panic(fmt.Sprintf("embedded checklists missing: %v", err))
	}
	c, err := ParseChecklists(data)
	if err != nil {
		panic(fmt.Sprintf("embedded checklists invalid: %v", err))
	}
	return c
}

// LoadChecklists reads checklist definitions from a YAML file
func LoadChecklists(path string) (*Checklists, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checklists file: %w", err)
	}
	return ParseChecklists(data)
}

// ParseChecklists decodes checklist definitions and resolves "extends":
// an extending checklist gets the base items first, followed by its own.
func ParseChecklists(data []byte) (*Checklists, error) {
	var defs []models.Checklist
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("failed to parse checklists: %w", err)
	}

	c := &Checklists{byID: make(map[string]models.Checklist, len(defs))}
	for _, def := range defs {
		if def.ID == "" {
			return nil, errors.New("checklist without id")
		}
		if _, dup := c.byID[def.ID]; dup {
			return nil, fmt.Errorf("duplicate checklist %q", def.ID)
		}
		if def.Extends != "" {
			base, ok := c.byID[def.Extends]
			if !ok {
				return nil, fmt.Errorf("checklist %q extends %q which is not defined before it", def.ID, def.Extends)
			}
			items := make([]models.ChecklistItem, 0, len(base.Items)+len(def.Items))
			items = append(items, base.Items...)
			def.Items = append(items, def.Items...)
		}
		if err := validateItems(def); err != nil {
			return nil, err
		}
		c.order = append(c.order, def.ID)
		c.byID[def.ID] = def
	}
	return c, nil
}

func validateItems(def models.Checklist) error {
	seen := make(map[string]bool, len(def.Items))
	for _, item := range def.Items {
		if item.ID == "" || item.Question == "" {
			return fmt.Errorf("checklist %q: every item needs an id and a question", def.ID)
		}
		if seen[item.ID] {
			return fmt.Errorf("checklist %q: duplicate item %q", def.ID, item.ID)
		}
		if item.Weight < 0 || item.Weight > 100 {
			return fmt.Errorf("checklist %q: item %q weight %.0f outside 0-100", def.ID, item.ID, item.Weight)
		}
		seen[item.ID] = true
	}
	return nil
}

// Get returns the checklist with the given id
func (c *Checklists) Get(id string) (models.Checklist, error) {
	checklist, ok := c.byID[id]
	if !ok {
		return models.Checklist{}, fmt.Errorf("%w: %s", ErrUnknownChecklist, id)
	}
	return checklist, nil
}

// All returns the checklists in definition order
func (c *Checklists) All() []models.Checklist {
	all := make([]models.Checklist, 0, len(c.order))
	for _, id := range c.order {
		all = append(all, c.byID[id])
	}
	return all
}
