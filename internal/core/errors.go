package core

import "errors"

// Error codes attached to log events and protocol error replies.
const (
	ErrCodeInvalidIdentity  = "invalid_identity"
	ErrCodeIdentityTaken    = "identity_taken"
	ErrCodeUnknownRecipient = "unknown_recipient"
	ErrCodeMalformedLine    = "malformed_line"
	ErrCodeUnauthenticated  = "unauthenticated"
)

var (
	// ErrInvalidIdentity rejects an empty identity or one containing
	// protocol structural characters.
	ErrInvalidIdentity = errors.New("invalid identity")
	// ErrIdentityTaken rejects a LOGIN for an identity already mapped to a
	// live connection.
	ErrIdentityTaken = errors.New("identity already taken")
)
