package domain

import "errors"

var (
	// ErrInvalidInput indicates a blank or malformed field.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidWeight indicates a weight outside the accepted range.
	ErrInvalidWeight = errors.New("invalid weight")
	// ErrDuplicateUsername indicates the username is already registered.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials is returned for both unknown users and wrong
	// passwords so callers cannot tell the two apart.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrPermissionDenied indicates the text-message permission is not granted.
	ErrPermissionDenied = errors.New("sms permission denied")
	// ErrInvalidRecipient indicates a phone number that fails validation.
	ErrInvalidRecipient = errors.New("invalid recipient")
	// ErrTransport indicates the text-message transport failed.
	ErrTransport = errors.New("transport error")
	// ErrStorage wraps failures of the underlying persistence layer.
	ErrStorage = errors.New("storage error")
)
