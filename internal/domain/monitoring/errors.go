package monitoring

import "errors"

var (
	// ErrPatientNotFound is returned by any accessor given an unknown patient id.
	ErrPatientNotFound = errors.New("patient not found")

	// ErrInvalidTrend is returned when a trend override value is not one of
	// the recognised enum values. The patient's state is left unchanged.
	ErrInvalidTrend = errors.New("invalid trend")

	// ErrModelUnavailable indicates the classifier artifact could not be
	// loaded. It is recovered at startup by falling back to the rule-based
	// classifier and is never surfaced to a request.
	ErrModelUnavailable = errors.New("model unavailable")
)
