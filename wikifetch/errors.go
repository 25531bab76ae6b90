package wikifetch

import "errors"

var (
	// ErrAllAPIsFailed is returned when every strategy in the fallback list
	// has been exhausted without producing a payload.
	ErrAllAPIsFailed = errors.New("wikifetch: all api strategies failed")

	// ErrHTTPStatus wraps a non-success HTTP status. The status code is
	// appended to the message.
	ErrHTTPStatus = errors.New("wikifetch: unexpected http status")

	// ErrAPIError is returned when the Action API answers 200 but reports
	// an error object in the JSON body.
	ErrAPIError = errors.New("wikifetch: api reported an error")

	// ErrTooLarge is returned when a response body exceeds Config.MaxBytes.
	ErrTooLarge = errors.New("wikifetch: response exceeds size limit")

	// ErrInvalidLanguage is returned for malformed language codes, before
	// any network I/O happens.
	ErrInvalidLanguage = errors.New("wikifetch: invalid language code")

	// ErrInvalidTitle is returned for empty page titles.
	ErrInvalidTitle = errors.New("wikifetch: empty page title")

	// ErrUnknownStyle is returned for an API style outside rest|action|auto.
	ErrUnknownStyle = errors.New("wikifetch: unknown api style")
)
