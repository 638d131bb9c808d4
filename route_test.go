package mayray_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/mayray"
)

func respondWith(body string) mayray.Handler {
	return mayray.HandlerFunc(func(*mayray.Request) []byte {
		return []byte(body)
	})
}

func testRoutes() mayray.Routes {
	return mayray.NewRoutes(
		mayray.MustRoute("root", "/", respondWith("root")),
		mayray.MustRoute("list", `/list\?.+`, respondWith("list")),
		mayray.MustRoute("get", `/get\?.+`, respondWith("get")),
		mayray.MustRoute("ada", "/ada.*", respondWith("ada")),
		mayray.MustRoute("catch ada name", "/ada/name", respondWith("never")),
	)
}

func TestRoutes_Match(t *testing.T) {
	routes := testRoutes()

	tests := []struct {
		resource string
		want     string
		found    bool
	}{
		{resource: "/", want: "root", found: true},
		{resource: "/list?dir=demo", want: "list", found: true},
		{resource: "/get?dir=demo&pass=x", want: "get", found: true},
		{resource: "/ada", want: "ada", found: true},
		{resource: "/ada/name", want: "ada", found: true},
		{resource: "/list", found: false},
		{resource: "/list?", found: false},
		{resource: "/doesnotexist", found: false},
		{resource: "/x/", found: false},
		{resource: "", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.resource, func(t *testing.T) {
			route, ok := routes.Match(tt.resource)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.want, string(route.Handler.Respond(nil)))
			}
		})
	}
}

func TestRoutes_FullMatchNotPrefix(t *testing.T) {
	routes := mayray.NewRoutes(mayray.MustRoute("coffee", "/coffee", respondWith("tea")))

	_, ok := routes.Match("/coffee")
	assert.True(t, ok)

	_, ok = routes.Match("/coffeepot")
	assert.False(t, ok)

	_, ok = routes.Match("/api/coffee")
	assert.False(t, ok)
}

func TestRoutes_AlternationIsAnchored(t *testing.T) {
	routes := mayray.NewRoutes(mayray.MustRoute("alt", "/a|/b", respondWith("ab")))

	_, ok := routes.Match("/b")
	assert.True(t, ok)

	_, ok = routes.Match("/a/extra")
	assert.False(t, ok)
}

func TestRoutes_ConcurrentMatch(t *testing.T) {
	routes := testRoutes()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				route, ok := routes.Match("/list?dir=demo")
				assert.True(t, ok)
				assert.Equal(t, "list", route.Name)
			}
		}()
	}
	wg.Wait()
}

func TestNewRoute_InvalidPattern(t *testing.T) {
	_, err := mayray.NewRoute("broken", "/list(", respondWith(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")

	assert.Panics(t, func() {
		mayray.MustRoute("broken", "/list(", respondWith(""))
	})
}

func TestNewRoutes_CopiesInput(t *testing.T) {
	input := []mayray.Route{mayray.MustRoute("root", "/", respondWith("root"))}
	routes := mayray.NewRoutes(input...)
	input[0] = mayray.MustRoute("other", "/other", respondWith("other"))

	_, ok := routes.Match("/")
	assert.True(t, ok)
	assert.Equal(t, 1, routes.Len())
}
