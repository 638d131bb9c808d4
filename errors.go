package mayray

import "errors"

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrParse is returned when a request cannot be parsed
	ErrParse = errors.New("parse request")
	// ErrBodyConsumed is returned when a request body is read a second time
	ErrBodyConsumed = errors.New("request body already consumed")
	// ErrSecretConsumed is returned when a secret is taken a second time
	ErrSecretConsumed = errors.New("secret already consumed")
	// ErrSecretWiped is returned when a secret is read after it was wiped
	ErrSecretWiped = errors.New("secret wiped")
)
