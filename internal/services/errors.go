package services

import "errors"

// Error categories the handler layer maps onto HTTP status codes. Services
// wrap these with fmt.Errorf("%w: ...") so the category survives while the
// message stays specific.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
)
