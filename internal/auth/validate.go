package auth

import "errors"

// ValidationError represents a specific type of identity validation failure.
type ValidationError struct {
	Type    ValidationErrorType
	Message string
	Err     error
}

// ValidationErrorType categorizes validation failures.
type ValidationErrorType int

const (
	// ErrTypeNoUsername indicates no account e-mail was configured.
	ErrTypeNoUsername ValidationErrorType = iota
	// ErrTypeNoPassword indicates no password source produced a value.
	ErrTypeNoPassword
)

var errMissingCredential = errors.New("missing credential")

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidateUsername checks only the account name. It needs no password
// lookup, so it can run before any network access is allowed.
func (id Identity) ValidateUsername() error {
	if id.Username == "" {
		return &ValidationError{Type: ErrTypeNoUsername, Message: "username not set", Err: errMissingCredential}
	}
	return nil
}

// Validate checks that both halves of the identity are present.
func (id Identity) Validate() error {
	if err := id.ValidateUsername(); err != nil {
		return err
	}
	if id.Password == "" {
		return &ValidationError{Type: ErrTypeNoPassword, Message: "password not set", Err: errMissingCredential}
	}
	return nil
}
