package service

import "errors"

// Every error returned by Service matches one of these with errors.Is.
var (
	// ErrSessionInvalid means the handle is unknown or expired, the caller
	// has to log in again.
	ErrSessionInvalid = errors.New("invalid or expired session")
	// ErrCaptchaSolveFailed means no usable code was recognized within the
	// attempt budget.
	ErrCaptchaSolveFailed = errors.New("captcha solving failed")
	// ErrLoginFailed means the portal rejected the credentials or the code.
	ErrLoginFailed = errors.New("login failed")
	// ErrUpstreamUnavailable means the portal did not answer successfully.
	ErrUpstreamUnavailable = errors.New("portal unavailable")
	// ErrExtractionDegraded is never returned, it is surfaced as
	// Report.Warning when the markup did not have the expected shape.
	ErrExtractionDegraded = errors.New("report markup did not match the expected shape")
)
