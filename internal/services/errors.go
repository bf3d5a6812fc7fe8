// Package services defines the business logic for quote submission, pricing
// lookups, and testimonials. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the handler
// layer.
package services

import "errors"

var (
	// ErrQuoteNotFound indicates that the requested quote does not exist.
	ErrQuoteNotFound = errors.New("quote not found")

	// ErrNegativeTotal is returned when a submission carries a negative
	// total price.
	ErrNegativeTotal = errors.New("total price must be non-negative")

	// ErrBreakdownMismatch is returned when the signed sum of the itemized
	// breakdown does not equal the submitted total.
	ErrBreakdownMismatch = errors.New("breakdown does not sum to total price")

	// ErrEmptySnapshot is returned when a submission carries no input data.
	ErrEmptySnapshot = errors.New("input snapshot is empty")

	// ErrInvalidStatus is returned when a status sync names an unknown
	// workflow state.
	ErrInvalidStatus = errors.New("invalid quote status")

	// ErrInvalidTestimonial is returned when a testimonial is missing its
	// author or body, or carries a rating outside 1..5.
	ErrInvalidTestimonial = errors.New("testimonial requires author, body, and rating 1..5")
)
