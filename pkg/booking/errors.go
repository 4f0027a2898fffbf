package booking

import "errors"

// User-facing validation messages.
const (
	MsgSelectItem     = "Please select an item."
	MsgSelectService  = "Please select a service."
	MsgRequiredFields = "Please fill in all required fields."
	MsgInvalidDate    = "Please choose a valid date."
	MsgPastDate       = "Please choose a date from today onwards."
	MsgSubmitFailed   = "We could not submit your booking. Please try again."
)

var (
	ErrSessionNotFound    = errors.New("booking session not found")
	ErrSubmissionInFlight = errors.New("submission already in progress")
	ErrAlreadySubmitted   = errors.New("booking already submitted")
	ErrUnknownMode        = errors.New("unknown booking mode")
	ErrNoWhatsApp         = errors.New("no WhatsApp contact configured")
)

// validationError is the only user-facing error kind: a required input is missing or unusable.
type validationError struct {
	message string
}

func (e validationError) Error() string { return e.message }

func newValidationError(msg string) error {
	return validationError{message: msg}
}

// IsValidation helps callers distinguish between user input problems and infrastructure failures.
func IsValidation(err error) bool {
	var v validationError
	return errors.As(err, &v)
}
