package classifier

import (
	"fmt"
	"time"

	"tendercheck-backend/models"
)

// Detector recognises one archetype of checklist item in submission text.
// ok is false when the detector cannot judge the input; the classifier then
// uses the generic strategy.
type Detector interface {
	Detect(item models.ChecklistItem, submission string) (result models.ClassificationResult, ok bool)
}

// DetectorFunc adapts a function to Detector
type DetectorFunc func(item models.ChecklistItem, submission string) (models.ClassificationResult, bool)

// Detect calls f
func (f DetectorFunc) Detect(item models.ChecklistItem, submission string) (models.ClassificationResult, bool) {
	return f(item, submission)
}

func result(status models.ItemStatus, confidence float64, notes string, evidence []string) models.ClassificationResult {
	return models.ClassificationResult{
		Status:     status,
		Confidence: confidence,
		Notes:      notes,
		Evidence:   evidence,
	}
}

// signedDeclaration detects a declaration (UEA/ESPD) and its signature
type signedDeclaration struct {
	terms     patterns
	signature patterns
}

func newSignedDeclaration() *signedDeclaration {
	return &signedDeclaration{
		terms: compile(
			`uniform\s+europees\s+aanbestedingsdocument`,
			`\buea\b`,
			`\bespd\b`,
			`european\s+single\s+procurement\s+document`,
		),
		signature: signaturePatterns,
	}
}

var signaturePatterns = compile(`ondertekend`, `handtekening`, `getekend`, `\bsignature\b`, `\bsigned\b`)

func (d *signedDeclaration) Detect(_ models.ChecklistItem, text string) (models.ClassificationResult, bool) {
	if !d.terms.in(text) {
		return result(models.StatusMissing, declarationAbsent,
			"Geen UEA gevonden in de inschrijving.", nil), true
	}
	evidence := evidenceLines(text, d.terms)
	if d.signature.in(text) {
		return result(models.StatusPresent, declarationSigned,
			"UEA aangetroffen en ondertekend.", evidence), true
	}
	return result(models.StatusInconsistent, declarationUnsigned,
		"UEA aangetroffen, maar ondertekening niet gevonden.", evidence), true
}

// registrationExtract detects a trade register extract and checks its date
type registrationExtract struct {
	terms  patterns
	months int
	now    func() time.Time
}

func newRegistrationExtract(months int, now func() time.Time) *registrationExtract {
	return &registrationExtract{
		terms: compile(
			`kamer\s+van\s+koophandel`,
			`\bkvk\b`,
			`handelsregister`,
			`uittreksel`,
		),
		months: months,
		now:    now,
	}
}

func (d *registrationExtract) Detect(_ models.ChecklistItem, text string) (models.ClassificationResult, bool) {
	if !d.terms.in(text) {
		return result(models.StatusMissing, registrationAbsent,
			"Geen KvK-uittreksel gevonden.", nil), true
	}
	evidence := evidenceLines(text, d.terms)

	dates := findDates(text)
	if len(dates) == 0 {
		return result(models.StatusInconsistent, registrationNoDate,
			"KvK-uittreksel aangetroffen, maar geen datum gevonden. Controleer de actualiteit.", evidence), true
	}

	now := d.now()
	cutoff := now.AddDate(0, -d.months, 0)
	latest := foundDate{}
	for _, fd := range dates {
		if !fd.valid || fd.date.After(now.Add(24*time.Hour)) {
			continue
		}
		if !latest.valid || fd.date.After(latest.date) {
			latest = fd
		}
	}

	switch {
	case latest.valid && !latest.date.Before(cutoff):
		return result(models.StatusPresent, registrationRecent,
			fmt.Sprintf("Recent KvK-uittreksel aangetroffen (%s, niet ouder dan %d maanden).", latest.raw, d.months), evidence), true
	case latest.valid:
		return result(models.StatusInconsistent, registrationStale,
			fmt.Sprintf("KvK-uittreksel aangetroffen, maar ouder dan %d maanden (%s).", d.months, latest.raw), evidence), true
	default:
		return result(models.StatusInconsistent, registrationStale,
			fmt.Sprintf("KvK-uittreksel aangetroffen, maar de datum (%s) is niet plausibel.", dates[0].raw), evidence), true
	}
}

// workPlan detects a plan of approach and measures how many of the expected
// elements it covers
type workPlan struct {
	terms    patterns
	elements patterns
}

func newWorkPlan() *workPlan {
	return &workPlan{
		terms: compile(
			`plan\s+van\s+aanpak`,
			`projectplan`,
			`uitvoeringsplan`,
			`werkplan`,
			`\baanpak\b`,
		),
		elements: compile(
			`planning|fasering`,
			`methodiek|werkwijze`,
			`risico`,
			`kwaliteit`,
			`organisatie|projectteam`,
		),
	}
}

func (d *workPlan) Detect(_ models.ChecklistItem, text string) (models.ClassificationResult, bool) {
	if !d.terms.in(text) {
		return result(models.StatusMissing, planAbsent,
			"Geen plan van aanpak gevonden.", nil), true
	}
	evidence := evidenceLines(text, d.terms)

	found := d.elements.count(text)
	ratio := float64(found) / float64(len(d.elements))
	notes := fmt.Sprintf("Plan van aanpak aangetroffen met %d van %d verwachte onderdelen.", found, len(d.elements))

	switch {
	case ratio >= planCompleteRatio:
		return result(models.StatusPresent, planComplete, notes, evidence), true
	case ratio >= planPartialRatio:
		return result(models.StatusInconsistent, planPartial, notes+" Onderdelen ontbreken.", evidence), true
	default:
		return result(models.StatusInconsistent, planSketchy, notes+" Het plan is onvolledig.", evidence), true
	}
}

// priceSchedule detects a price sheet, monetary amounts and a signature
type priceSchedule struct {
	sheet   patterns
	amounts patterns
}

func newPriceSchedule() *priceSchedule {
	return &priceSchedule{
		sheet: compile(
			`prijsblad`,
			`prijsopgave`,
			`prijsformulier`,
			`kostenoverzicht`,
			`inschrijvingsbiljet`,
			`\bofferte\b`,
		),
		amounts: compile(
			`€\s*\d`,
			`\b\d+(?:[.,]\d{3})*(?:[.,]\d{2})?\s*(?:euro|eur)\b`,
			`\bbtw\b`,
			`\b(?:sub)?totaal\b`,
		),
	}
}

func (d *priceSchedule) Detect(_ models.ChecklistItem, text string) (models.ClassificationResult, bool) {
	hasSheet := d.sheet.in(text)
	hasAmounts := d.amounts.in(text)
	signed := signaturePatterns.in(text)

	switch {
	case hasSheet && hasAmounts && signed:
		return result(models.StatusPresent, priceSignedWithAmounts,
			"Prijsblad aangetroffen met bedragen en ondertekening.", evidenceLines(text, d.sheet)), true
	case hasSheet && hasAmounts:
		return result(models.StatusInconsistent, priceWithAmounts,
			"Prijsblad met bedragen aangetroffen, maar ondertekening niet gevonden.", evidenceLines(text, d.sheet)), true
	case hasSheet && signed:
		return result(models.StatusInconsistent, priceSignedNoAmounts,
			"Ondertekend prijsblad aangetroffen, maar geen bedragen gevonden.", evidenceLines(text, d.sheet)), true
	case hasAmounts && !hasSheet:
		return result(models.StatusInconsistent, priceAmountsOnly,
			"Prijsinformatie aangetroffen, maar geen herkenbaar prijsblad.", evidenceLines(text, d.amounts)), true
	case hasSheet:
		return result(models.StatusInconsistent, priceSheetOnly,
			"Prijsblad genoemd, maar zonder bedragen of ondertekening.", evidenceLines(text, d.sheet)), true
	default:
		return result(models.StatusMissing, priceAbsent,
			"Geen prijsblad of prijsinformatie gevonden.", nil), true
	}
}

// references detects client references with contact details and contract value
type references struct {
	terms   patterns
	contact patterns
	value   patterns
}

func newReferences() *references {
	return &references{
		terms: compile(
			`referentie`,
			`opdrachtgever`,
			`uitgevoerde\s+projecten`,
			`\bervaring\b`,
		),
		contact: compile(
			`contactpersoon`,
			`telefoon`,
			`\btel\.?\s*:?\s*\+?\d`,
			`e-?mail`,
			`[\w.+-]+@[\w-]+\.[\w.]+`,
			`\b0\d{1,3}[- ]?\d{6,8}\b`,
		),
		value: compile(
			`€\s*\d`,
			`opdrachtwaarde|contractwaarde|\bwaarde\b`,
			`\bomvang\b`,
		),
	}
}

func (d *references) Detect(_ models.ChecklistItem, text string) (models.ClassificationResult, bool) {
	if !d.terms.in(text) {
		return result(models.StatusMissing, referencesAbsent,
			"Geen referenties gevonden.", nil), true
	}
	evidence := evidenceLines(text, d.terms)
	hasContact := d.contact.in(text)
	hasValue := d.value.in(text)

	switch {
	case hasContact && hasValue:
		return result(models.StatusPresent, referencesComplete,
			"Referenties met contactgegevens en opdrachtwaarde aangetroffen.", evidence), true
	case hasContact:
		return result(models.StatusInconsistent, referencesWithContact,
			"Referenties met contactgegevens aangetroffen, maar opdrachtwaarde ontbreekt.", evidence), true
	case hasValue:
		return result(models.StatusInconsistent, referencesWithValue,
			"Referenties met opdrachtwaarde aangetroffen, maar contactgegevens ontbreken.", evidence), true
	default:
		return result(models.StatusInconsistent, referencesBare,
			"Referenties genoemd, maar niet verifieerbaar (contactgegevens en waarde ontbreken).", evidence), true
	}
}
