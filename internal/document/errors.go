package document

import "errors"

// Sentinel errors for range-addressed operations. Callers branch with
// errors.Is: ErrInvalidRange indicates internal misuse (a caller computed a
// range the document cannot resolve), ErrNoSelection is the expected failure
// when a mutating operation is invoked on a collapsed selection.
var (
	ErrInvalidRange = errors.New("document: invalid range")
	ErrNoSelection  = errors.New("document: no selection")
)
