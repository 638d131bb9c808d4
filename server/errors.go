package server

import "errors"

// ErrShutdownTimeout is returned by Serve when in-flight connections did not
// finish within the shutdown timeout and had to be closed.
var ErrShutdownTimeout = errors.New("server: shutdown timed out")
