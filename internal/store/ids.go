package store

import (
	"crypto/rand"
	stderrors "errors"
	"time"

	"github.com/oklog/ulid/v2"
)

var errIDExhausted = stderrors.New("could not generate a unique contact id")

// NewULIDGenerator returns an id generator backed by monotonic ULID entropy.
// The generator is not safe for concurrent use; the store calls it under its lock.
func NewULIDGenerator() func(time.Time) (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return func(t time.Time) (string, error) {
		id, err := ulid.New(clampULIDTime(t), entropy)
		if err != nil {
			return "", err
		}
		return id.String(), nil
	}
}

// clampULIDTime returns t in epoch milliseconds, limited to the 48-bit range
// a ULID can hold.
func clampULIDTime(t time.Time) uint64 {
	ms := t.UnixMilli()
	if ms < 0 {
		return 0
	}
	return min(uint64(ms), ulid.MaxTime())
}
