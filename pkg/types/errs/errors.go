package errs

import "errors"

var (
	ErrRecordNotFound      = errors.New("record not found")
	ErrObjectNotFound      = errors.New("object not found")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrValidation          = errors.New("validation error")
	ErrUnclassified        = errors.New("no pairwise match")
)

// Terminal reports whether err must not be retried: the outcome will not
// change on a repeated call.
func Terminal(err error) bool {
	return errors.Is(err, ErrRecordNotFound) ||
		errors.Is(err, ErrObjectNotFound) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrUnclassified)
}
