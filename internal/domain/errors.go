package domain

import "errors"

// ErrModelUnavailable indicates the trained model artifact is missing,
// unreadable, or structurally incompatible. Detected once at load time;
// the facade falls back to the rule cascade for the process lifetime.
var ErrModelUnavailable = errors.New("model artifact unavailable")

// ErrNotInitialized indicates the prediction core was never constructed.
var ErrNotInitialized = errors.New("prediction service not initialized")

// ValidationError describes a malformed or out-of-range input field.
// Surfaced as a 4xx with field-level detail; never reaches a backend.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// DegradedExplanation is the explanation attached to the conservative
// fallback result returned when a backend fails mid-prediction.
const DegradedExplanation = "Error in prediction calculation"
