package mayray

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"
)

// Request is the request line, the headers and the body of a client request.
// Its fields are not modified after construction.
type Request struct {
	Method   Method
	Resource string
	Version  string

	ctx      context.Context
	headers  map[string]string
	body     io.Reader
	consumed atomic.Bool
}

// NewRequest creates a Request. Header names are compared case-insensitively;
// when a name occurs twice the last value wins. body is positioned right after
// the blank line that ends the header section and may be nil. ctx is scoped to
// the connection the request arrived on.
func NewRequest(ctx context.Context, method Method, resource, version string, headers map[string]string, body io.Reader) *Request {
	h := make(map[string]string, len(headers))
	for k, v := range headers {
		h[strings.ToLower(k)] = v
	}
	if body == nil {
		body = strings.NewReader("")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &Request{
		ctx:      ctx,
		Method:   method,
		Resource: resource,
		Version:  version,
		headers:  h,
		body:     body,
	}
}

// Context returns the context of the connection the request arrived on.
func (r *Request) Context() context.Context {
	return r.ctx
}

// Header returns the value of the named header and whether it was present.
func (r *Request) Header(name string) (string, bool) {
	v, ok := r.headers[strings.ToLower(name)]
	return v, ok
}

// Headers returns a copy of the headers keyed by lower-case name.
func (r *Request) Headers() map[string]string {
	h := make(map[string]string, len(r.headers))
	for k, v := range r.headers {
		h[k] = v
	}
	return h
}

// ContentLength parses the Content-Length header.
func (r *Request) ContentLength() (int64, error) {
	v, ok := r.Header("Content-Length")
	if !ok {
		return 0, fmt.Errorf("content length: header missing: %w", ErrInvalidInput)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("content length: invalid value %q: %w", v, ErrInvalidInput)
	}
	return n, nil
}

// Body hands out the body stream. It succeeds once per request.
func (r *Request) Body() (io.Reader, error) {
	if r.consumed.Swap(true) {
		return nil, ErrBodyConsumed
	}
	return r.body, nil
}

// Path returns the resource without its query string.
func (r *Request) Path() string {
	p, _, _ := strings.Cut(r.Resource, "?")
	return p
}

// Query returns the parameters of the resource's query string.
func (r *Request) Query() map[string]string {
	return ParseQuery(r.Resource)
}
