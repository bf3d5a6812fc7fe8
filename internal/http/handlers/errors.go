// Package handlers implements the HTTP endpoints of the quote backend.
//
// This file defines the machine-readable error codes placed in the "error"
// field of failure envelopes. Clients branch on these values; the human
// situation is conveyed by status code and, for validation, per-field details.
package handlers

const (
	// CodeValidation marks a 400 response caused by invalid input; the
	// envelope carries a per-field "details" list.
	CodeValidation = "validation_error"
	// CodeBadRequest marks malformed requests (unparseable JSON and similar).
	CodeBadRequest = "bad_request"
	// CodeNotFound marks a 404 for a missing or retired resource.
	CodeNotFound = "not_found"
	// CodeUnauthorized marks a missing or wrong admin credential.
	CodeUnauthorized = "unauthorized"
	// CodeMethodNotAllowed marks a known path hit with the wrong verb.
	CodeMethodNotAllowed = "method_not_allowed"
	// CodePayloadTooLarge marks a 413 from the request size guard.
	CodePayloadTooLarge = "payload_too_large"
	// CodeRateLimited marks a 429 from the rate limiter.
	CodeRateLimited = "rate_limited"
	// CodeInternal marks an unexpected server-side failure; the envelope's
	// errorId correlates the response with server logs.
	CodeInternal = "internal_error"
)
