package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrInvalidRequest marks a precondition violation detected before any provider call.
var ErrInvalidRequest = errors.New("invalid request")

// ErrProvider marks a failed provider round trip: transport error, empty text,
// or text that does not conform to the declared schema.
var ErrProvider = errors.New("provider error")

// ErrUnsupportedAttachment is returned by a provider that cannot relay the attachment's media type.
var ErrUnsupportedAttachment = errors.New("unsupported attachment type")
