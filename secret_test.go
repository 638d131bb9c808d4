package mayray_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/mayray"
)

func TestSecret_TakeOnce(t *testing.T) {
	s := mayray.NewSecret([]byte("changeit"))

	v, err := s.Take()
	require.NoError(t, err)
	assert.Equal(t, []byte("changeit"), v)

	v, err = s.Take()
	assert.ErrorIs(t, err, mayray.ErrSecretConsumed)
	assert.Nil(t, v)
}

func TestSecret_TakeAfterWipe(t *testing.T) {
	s := mayray.NewSecret([]byte("changeit"))
	s.Wipe()

	_, err := s.Take()
	assert.ErrorIs(t, err, mayray.ErrSecretWiped)
	assert.True(t, s.IsEmpty())

	// wiping twice is fine
	assert.NotPanics(t, s.Wipe)
}

func TestSecret_CopiesInput(t *testing.T) {
	input := []byte("changeit")
	s := mayray.NewSecret(input)
	input[0] = 'X'

	v, err := s.Take()
	require.NoError(t, err)
	assert.Equal(t, []byte("changeit"), v)

	// scrubbing the taken copy does not touch the secret state
	mayray.Zero(v)
	assert.Equal(t, make([]byte, 8), v)
	assert.False(t, s.IsEmpty())
}

func TestSecret_Redacted(t *testing.T) {
	s := mayray.NewSecret([]byte("changeit"))

	assert.Equal(t, "[REDACTED]", s.String())

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("config", "password", s)

	assert.NotContains(t, buf.String(), "changeit")
	assert.Contains(t, buf.String(), "[REDACTED]")
}

func TestSecret_NilIsEmpty(t *testing.T) {
	var s *mayray.Secret
	assert.True(t, s.IsEmpty())
}
