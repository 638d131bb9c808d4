package http

import "github.com/sagarc03/mayray"

// NotFound is the response for resources no route matches.
func NotFound() []byte {
	return PlainText(mayray.StatusNotFound, "Resource not found")
}

// BadRequest is the response for requests that could not be parsed.
func BadRequest() []byte {
	return PlainText(mayray.StatusBadRequest, "Did not understand request")
}

// ServerError is the response for failures on the server side.
func ServerError(msg string) []byte {
	return PlainText(mayray.StatusInternalServerError, msg)
}
