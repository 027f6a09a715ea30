package security

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Credentials seals access codes for storage and matches login attempts against the stored value.
// It is the single place where credential comparison happens.
type Credentials interface {
	// Seal returns the value to store for a freshly issued access code.
	Seal(code string) (string, error)
	// Match reports whether attempt matches the stored value.
	Match(stored, attempt string) bool
}

// PlainCredentials stores access codes as issued and compares them exactly (case-sensitive).
type PlainCredentials struct{}

func (PlainCredentials) Seal(code string) (string, error) { return code, nil }

func (PlainCredentials) Match(stored, attempt string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(attempt)) == 1
}

// Hasher hashes and verifies access codes using bcrypt. Callers must not log or
// persist plaintext codes when it is in use.
type Hasher struct {
	Cost int
}

// NewHasher returns a Hasher with the given bcrypt cost (4-31). Cost 12 is a
// reasonable default for interactive login.
func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{Cost: cost}
}

// Seal produces a bcrypt hash of code.
func (h *Hasher) Seal(code string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(code), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Match verifies attempt against a bcrypt hash. A stored value that is not a bcrypt
// hash (records written before bcrypt was enabled) is compared exactly.
func (h *Hasher) Match(stored, attempt string) bool {
	if !strings.HasPrefix(stored, "$2") {
		return PlainCredentials{}.Match(stored, attempt)
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(attempt)) == nil
}

// NewCredentials returns the credential scheme named by scheme ("plain" or "bcrypt").
func NewCredentials(scheme string, cost int) Credentials {
	if scheme == "bcrypt" {
		return NewHasher(cost)
	}
	return PlainCredentials{}
}
