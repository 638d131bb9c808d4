package http

import (
	"errors"

	"github.com/sagarc03/mayray"
)

var (
	// ErrEmptyRequest is returned when the connection ends before a single
	// byte of the request line was read.
	ErrEmptyRequest = errors.New("empty request")
	// ErrTLSOnPlainPort is returned when the first byte looks like a TLS
	// handshake record, i.e. an HTTPS client talking to a plaintext port.
	ErrTLSOnPlainPort = errors.New("tls handshake on plaintext port")
	// ErrMalformedRequestLine is returned when the request line does not
	// consist of method, resource and version.
	ErrMalformedRequestLine = errors.New("malformed request line")
	// ErrUnknownMethod is returned when the request method is not recognized.
	ErrUnknownMethod = errors.New("unknown request method")
	// ErrHeaderTooLarge is returned when the header section exceeds the limit.
	ErrHeaderTooLarge = errors.New("request header too large")
)

// ParseError describes why a request could not be parsed. It matches
// mayray.ErrParse and the more specific cause with errors.Is.
type ParseError struct {
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	return "parse request: " + e.Msg
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{mayray.ErrParse}
	}
	return []error{mayray.ErrParse, e.Err}
}
