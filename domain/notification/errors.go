package notification

import "errors"

var (
	// ErrNoRecipients is returned when no To recipients are provided
	ErrNoRecipients = errors.New("at least one recipient is required")

	// ErrInvalidRecipient is returned when a recipient has no email address
	ErrInvalidRecipient = errors.New("recipient must have an email address")

	// ErrNoSessionDate is returned when the session date is missing
	ErrNoSessionDate = errors.New("session date is required")

	// ErrNoPreset is returned when the sonification preset name is missing
	ErrNoPreset = errors.New("preset name is required")

	// ErrNoRenderURL is returned when the render URL is missing
	ErrNoRenderURL = errors.New("render URL is required")

	// ErrRecipientNotFound is returned when a recipient lookup fails
	ErrRecipientNotFound = errors.New("recipient not found")

	// ErrAmbiguousRecipient is returned when multiple recipients match a query
	ErrAmbiguousRecipient = errors.New("multiple recipients match query")

	// ErrSendFailed is returned when the email fails to send
	ErrSendFailed = errors.New("failed to send email")
)
