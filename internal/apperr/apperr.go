package apperr

import "errors"

// Error taxonomy for the fill pipeline. Every failure is terminal for the request;
// callers classify with errors.Is.
var (
	// ErrConfiguration means a venue configuration lookup missed (fee, token, address).
	ErrConfiguration = errors.New("configuration error")

	// ErrMissingCredential means a required credential is absent: the instamint
	// badge for funding, or the client's API key or signing key.
	ErrMissingCredential = errors.New("missing credential")

	// ErrParse means numeric, symbol, key or address input was malformed.
	ErrParse = errors.New("parse error")

	// ErrSerialization means the intent violates the canonical format constraints.
	ErrSerialization = errors.New("serialization error")

	// ErrUpstream wraps any collaborator failure (venue API, secrets, network status).
	ErrUpstream = errors.New("upstream error")
)

// Code returns a stable, lower_snake code for err, used in responses and metric labels.
func Code(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrConfiguration):
		return "configuration_error"
	case errors.Is(err, ErrMissingCredential):
		return "missing_credential"
	case errors.Is(err, ErrParse):
		return "parse_error"
	case errors.Is(err, ErrSerialization):
		return "serialization_error"
	case errors.Is(err, ErrUpstream):
		return "upstream_error"
	default:
		return "internal_error"
	}
}
