package mayray

import (
	"fmt"
	"regexp"
)

// Handler turns a request into the complete bytes of a response.
type Handler interface {
	Respond(req *Request) []byte
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(req *Request) []byte

func (f HandlerFunc) Respond(req *Request) []byte {
	return f(req)
}

// Route pairs a resource pattern with the handler that answers it.
// Name is used in logs only.
type Route struct {
	Name    string
	Pattern *regexp.Regexp
	Handler Handler
}

// NewRoute compiles pattern so that it has to match the whole resource,
// including the query string.
func NewRoute(name, pattern string, handler Handler) (Route, error) {
	re, err := regexp.Compile(`\A(?:` + pattern + `)\z`)
	if err != nil {
		return Route{}, fmt.Errorf("compile route %q: %w", name, err)
	}
	return Route{Name: name, Pattern: re, Handler: handler}, nil
}

// MustRoute is like NewRoute but panics if the pattern does not compile.
func MustRoute(name, pattern string, handler Handler) Route {
	r, err := NewRoute(name, pattern, handler)
	if err != nil {
		panic(err)
	}
	return r
}

// Routes is an ordered, immutable route table.
type Routes struct {
	routes []Route
}

// NewRoutes copies routes into a new table, keeping their order.
func NewRoutes(routes ...Route) Routes {
	rs := make([]Route, len(routes))
	copy(rs, routes)
	return Routes{routes: rs}
}

// Match returns the first route whose pattern matches resource.
func (t Routes) Match(resource string) (Route, bool) {
	for _, r := range t.routes {
		if r.Pattern.MatchString(resource) {
			return r, true
		}
	}
	return Route{}, false
}

// Len returns the number of routes.
func (t Routes) Len() int {
	return len(t.routes)
}
