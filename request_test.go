package mayray_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/mayray"
)

func TestRequest_HeaderCaseInsensitive(t *testing.T) {
	req := mayray.NewRequest(context.Background(), mayray.MethodGet, "/", "HTTP/1.1",
		map[string]string{"Content-Type": "text/plain", "X-Custom": "1"}, nil)

	for _, name := range []string{"Content-Type", "content-type", "CONTENT-TYPE"} {
		v, ok := req.Header(name)
		assert.True(t, ok, name)
		assert.Equal(t, "text/plain", v)
	}

	_, ok := req.Header("Host")
	assert.False(t, ok)

	assert.Equal(t, map[string]string{"content-type": "text/plain", "x-custom": "1"}, req.Headers())
}

func TestRequest_ContentLength(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    int64
		wantErr bool
	}{
		{name: "valid", headers: map[string]string{"Content-Length": "12"}, want: 12},
		{name: "padded", headers: map[string]string{"content-length": " 3 "}, want: 3},
		{name: "missing", headers: map[string]string{}, wantErr: true},
		{name: "not a number", headers: map[string]string{"Content-Length": "abc"}, wantErr: true},
		{name: "negative", headers: map[string]string{"Content-Length": "-1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := mayray.NewRequest(context.Background(), mayray.MethodPost, "/", "HTTP/1.1", tt.headers, nil)
			got, err := req.ContentLength()
			if tt.wantErr {
				assert.ErrorIs(t, err, mayray.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequest_BodyConsumedOnce(t *testing.T) {
	req := mayray.NewRequest(context.Background(), mayray.MethodPost, "/", "HTTP/1.1", nil, strings.NewReader("hello"))

	body, err := req.Body()
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = req.Body()
	assert.ErrorIs(t, err, mayray.ErrBodyConsumed)
}

func TestRequest_PathAndQuery(t *testing.T) {
	req := mayray.NewRequest(context.Background(), mayray.MethodGet, "/list?dir=demo&pass=x", "HTTP/1.1", nil, nil)

	assert.Equal(t, "/list", req.Path())
	assert.Equal(t, map[string]string{"dir": "demo", "pass": "x"}, req.Query())

	plain := mayray.NewRequest(context.Background(), mayray.MethodGet, "/coffee", "HTTP/1.1", nil, nil)
	assert.Equal(t, "/coffee", plain.Path())
	assert.Empty(t, plain.Query())
}
