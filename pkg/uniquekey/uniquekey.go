// Package uniquekey allocates the first free key produced by a candidate
// generator, checking each candidate against a backing store.
package uniquekey

import (
	"context"
	"errors"
	"fmt"
)

// DefaultMaxAttempts bounds how many candidates Allocate tries.
const DefaultMaxAttempts = 16

// ErrExhausted is returned when every candidate was already taken.
var ErrExhausted = errors.New("no free key after max attempts")

// Generator returns the candidate for the given zero-based attempt.
type Generator func(attempt int) string

// TakenFunc reports whether key already exists in the backing store.
type TakenFunc func(ctx context.Context, key string) (bool, error)

// Allocate walks the generator until taken reports a free key.
func Allocate(ctx context.Context, next Generator, taken TakenFunc, maxAttempts int) (string, error) {
	if next == nil {
		return "", errors.New("candidate generator required")
	}
	if taken == nil {
		return "", errors.New("existence check required")
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate := next(attempt)
		if candidate == "" {
			continue
		}
		exists, err := taken(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check key %q: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", ErrExhausted
}
