package mayray

import (
	"log/slog"
	"sync"
)

// Secret holds a password that can be taken exactly once.
//
// Take returns a copy of the value; the caller owns that copy and should
// scrub it with Zero when done. Any later Take fails with ErrSecretConsumed,
// and once Wipe has zeroed the backing bytes every Take fails with
// ErrSecretWiped.
type Secret struct {
	mu    sync.Mutex
	value []byte
	taken bool
	wiped bool
}

// NewSecret copies value into a new Secret.
func NewSecret(value []byte) *Secret {
	v := make([]byte, len(value))
	copy(v, value)
	return &Secret{value: v}
}

// Take returns a copy of the secret value. It succeeds once.
func (s *Secret) Take() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.wiped {
		return nil, ErrSecretWiped
	}
	if s.taken {
		return nil, ErrSecretConsumed
	}
	s.taken = true

	v := make([]byte, len(s.value))
	copy(v, s.value)
	return v, nil
}

// Wipe zeroes the backing bytes. It is safe to call more than once.
func (s *Secret) Wipe() {
	s.mu.Lock()
	defer s.mu.Unlock()

	Zero(s.value)
	s.value = nil
	s.wiped = true
}

// IsEmpty reports whether the secret holds no bytes.
func (s *Secret) IsEmpty() bool {
	if s == nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.value) == 0
}

func (s *Secret) String() string {
	return "[REDACTED]"
}

// LogValue keeps the value out of structured logs.
func (s *Secret) LogValue() slog.Value {
	return slog.StringValue("[REDACTED]")
}

// Zero overwrites b with zeros.
func Zero(b []byte) {
	clear(b)
}
