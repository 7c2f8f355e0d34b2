// Package classifier decides per checklist item whether a submission meets
// the requirement.
//
// Well-known item archetypes have a specialised Detector; everything else
// falls back to keyword coverage of the item's question. Retrieved legal
// context only enriches the notes and source references, it never changes
// the verdict.
package classifier

import (
	"log"
	"strings"
	"time"

	"tendercheck-backend/models"
)

// Archetypes with a built-in detector
const (
	ArchetypeSignedDeclaration   = "signed-declaration"
	ArchetypeRegistrationExtract = "registration-extract"
	ArchetypeWorkPlan            = "work-plan"
	ArchetypePriceSchedule       = "price-schedule"
	ArchetypeReferences          = "references"
)

// DefaultRecencyMonths is the maximum age of a registration extract
const DefaultRecencyMonths = 6

// Registry maps item archetypes to detectors. Items without an explicit
// archetype are matched on their id through aliases.
type Registry struct {
	detectors map[string]Detector
	aliases   map[string]string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		detectors: make(map[string]Detector),
		aliases:   make(map[string]string),
	}
}

// Register adds a detector for archetype; itemIDs are matched
// case-insensitively for items that do not name an archetype.
func (r *Registry) Register(archetype string, d Detector, itemIDs ...string) {
	r.detectors[archetype] = d
	for _, id := range itemIDs {
		r.aliases[strings.ToLower(id)] = archetype
	}
}

// Lookup finds the detector for item
func (r *Registry) Lookup(item models.ChecklistItem) (Detector, bool) {
	archetype := item.Archetype
	if archetype == "" {
		archetype = r.aliases[strings.ToLower(item.ID)]
	}
	d, ok := r.detectors[archetype]
	return d, ok
}

// Classifier combines the registry with the generic fallback
type Classifier struct {
	registry      *Registry
	generic       Detector
	recencyMonths int
	now           func() time.Time
}

// Option configures a Classifier
type Option func(*Classifier)

// WithRegistry replaces the built-in detectors
func WithRegistry(r *Registry) Option {
	return func(c *Classifier) {
		c.registry = r
	}
}

// WithRecencyMonths sets the maximum age of a registration extract
func WithRecencyMonths(months int) Option {
	return func(c *Classifier) {
		if months > 0 {
			c.recencyMonths = months
		}
	}
}

// WithClock sets the time source for recency checks
func WithClock(now func() time.Time) Option {
	return func(c *Classifier) {
		c.now = now
	}
}

// New creates a classifier with the built-in detectors
func New(opts ...Option) *Classifier {
	c := &Classifier{
		generic:       genericDetector{},
		recencyMonths: DefaultRecencyMonths,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = DefaultRegistry(c.recencyMonths, c.now)
	}
	return c
}

// DefaultRegistry returns the built-in detectors keyed by archetype, with
// the item ids of the standard checklists as aliases.
func DefaultRegistry(recencyMonths int, now func() time.Time) *Registry {
	r := NewRegistry()
	r.Register(ArchetypeSignedDeclaration, newSignedDeclaration(), "UEA", "ESPD")
	r.Register(ArchetypeRegistrationExtract, newRegistrationExtract(recencyMonths, now), "KvK")
	r.Register(ArchetypeWorkPlan, newWorkPlan(), "Plan", "PlanVanAanpak")
	r.Register(ArchetypePriceSchedule, newPriceSchedule(), "Prijsblad")
	r.Register(ArchetypeReferences, newReferences(), "Referenties")
	return r
}

// Classify determines the status of item in submission. It never panics and
// always returns a result for item.ID.
func (c *Classifier) Classify(item models.ChecklistItem, bestek, submission string, legalContext []models.LegalChunk) models.ClassificationResult {
	res, ok := models.ClassificationResult{}, false
	if d, found := c.registry.Lookup(item); found {
		res, ok = c.detect(d, item, submission)
	}
	if !ok {
		res, ok = c.detect(c.generic, item, submission)
	}
	if !ok {
		res = models.ClassificationResult{
			Status:      models.StatusInconsistent,
			Confidence:  genericIndeterminate,
			Notes:       "Beoordeling niet mogelijk; handmatige controle vereist.",
			NeedsReview: true,
		}
	}

	res.ItemID = item.ID
	if res.Status == models.StatusMissing {
		res.Evidence = nil
	}
	res.SourceReferences = sourceReferences(item, legalContext)
	res.Notes = annotate(res.Notes, item, bestek, legalContext)
	return res
}

// detect runs d, treating a panic as "cannot judge"
func (c *Classifier) detect(d Detector, item models.ChecklistItem, submission string) (res models.ClassificationResult, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Warning: detector for item %s panicked: %v", item.ID, r)
			res, ok = models.ClassificationResult{}, false
		}
	}()
	return d.Detect(item, submission)
}

// sourceReferences lists the item's statute first, then the retrieved chunks
func sourceReferences(item models.ChecklistItem, legalContext []models.LegalChunk) []string {
	var refs []string
	seen := make(map[string]bool)
	add := func(ref string) {
		if ref != "" && !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	add(item.StatuteReference)
	for _, chunk := range legalContext {
		add(chunk.Citation())
	}
	return refs
}

// annotate appends the legal basis and whether the bestek states the requirement
func annotate(notes string, item models.ChecklistItem, bestek string, legalContext []models.LegalChunk) string {
	parts := []string{notes}
	if len(legalContext) > 0 {
		best := legalContext[0]
		parts = append(parts, "Juridische grondslag: "+best.Citation()+": "+best.Text)
	}
	if mentionsItem(bestek, item) {
		parts = append(parts, "Het bestek stelt deze eis expliciet.")
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func mentionsItem(bestek string, item models.ChecklistItem) bool {
	if strings.TrimSpace(bestek) == "" {
		return false
	}
	lower := strings.ToLower(bestek)
	for _, kw := range item.Keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
