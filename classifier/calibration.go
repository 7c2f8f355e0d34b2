package classifier

// Confidence constants of the detectors. They are heuristic calibration
// values: within a detector, more evidence never yields a lower status, and
// never a lower confidence for the same status.
const (
	// signed declaration (UEA)
	declarationSigned   = 85
	declarationUnsigned = 70
	declarationAbsent   = 90

	// registration extract (KvK)
	registrationRecent = 85
	registrationStale  = 75
	registrationNoDate = 60
	registrationAbsent = 90

	// work plan
	planComplete = 80
	planPartial  = 65
	planSketchy  = 55
	planAbsent   = 85

	// price schedule
	priceSignedWithAmounts = 85
	priceWithAmounts       = 70
	priceSignedNoAmounts   = 65
	priceAmountsOnly       = 60
	priceSheetOnly         = 55
	priceAbsent            = 90

	// references
	referencesComplete    = 85
	referencesWithContact = 70
	referencesWithValue   = 65
	referencesBare        = 60
	referencesAbsent      = 90

	// generic fallback
	genericCap           = 85
	genericAbsent        = 85
	genericIndeterminate = 30

	// thresholds
	planCompleteRatio   = 0.75
	planPartialRatio    = 0.40
	genericPresentRatio = 0.7
	genericPartialRatio = 0.3
)

// maxEvidence bounds the number of evidence lines per result
const maxEvidence = 3
