package extract

import "errors"

// Sentinel kinds for extraction errors.
var (
	ErrMalformedPage = errors.New("malformed results page")
)
