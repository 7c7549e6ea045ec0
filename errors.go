package wildcard

import "errors"

// Standard errors returned during construction and expansion.
var (
	// Construction errors
	ErrNoPath          = errors.New("wildcard: no path or parts given")
	ErrConflictingPath = errors.New("wildcard: path and parts conflict")
	ErrAmbiguousParts  = errors.New("wildcard: parts given without absolute")

	// Pattern errors
	ErrBadPattern  = errors.New("wildcard: bad pattern")
	ErrBadTemplate = errors.New("wildcard: bad derivation template")
)
