package mayray_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sagarc03/mayray"
)

func TestParseQuery(t *testing.T) {
	tt := []struct {
		Name     string
		Resource string
		Want     map[string]string
	}{
		{Name: "no query", Resource: "/list", Want: map[string]string{}},
		{Name: "empty query", Resource: "/list?", Want: map[string]string{}},
		{Name: "single pair", Resource: "/list?dir=demo", Want: map[string]string{"dir": "demo"}},
		{
			Name:     "two pairs",
			Resource: "/get?dir=demo&pass=secret",
			Want:     map[string]string{"dir": "demo", "pass": "secret"},
		},
		{Name: "pair without equal sign is skipped", Resource: "/list?dir&pass=x", Want: map[string]string{"pass": "x"}},
		{Name: "empty value", Resource: "/list?dir=", Want: map[string]string{"dir": ""}},
		{Name: "value keeps further equal signs", Resource: "/list?pass=a=b", Want: map[string]string{"pass": "a=b"}},
		{Name: "percent encoded value", Resource: "/list?dir=my%20dir", Want: map[string]string{"dir": "my dir"}},
		{Name: "plus decodes to space", Resource: "/list?dir=my+dir", Want: map[string]string{"dir": "my dir"}},
		{Name: "invalid escape kept verbatim", Resource: "/list?pass=100%", Want: map[string]string{"pass": "100%"}},
		{Name: "last value wins", Resource: "/list?dir=a&dir=b", Want: map[string]string{"dir": "b"}},
		{Name: "empty key is skipped", Resource: "/list?=x", Want: map[string]string{}},
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			assert.Equal(t, tc.Want, mayray.ParseQuery(tc.Resource))
		})
	}
}
