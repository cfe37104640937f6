// Package slug derives URL-safe slugs from display names and allocates
// ones that are unique within a definition.
package slug

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// ErrEmptyName is returned when the source name normalizes to nothing
// usable, including names made entirely of punctuation.
var ErrEmptyName = errors.New("slug: name is empty")

const (
	maxLen         = 100
	suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	suffixLen      = 4
	maxAttempts    = 100
)

// Make normalizes name into a slug: lowercased, runs of characters
// outside [a-z0-9] collapsed to single hyphens, edge hyphens stripped,
// truncated to 100 characters.
func Make(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	s := b.String()
	if len(s) > maxLen {
		s = strings.TrimRight(s[:maxLen], "-")
	}
	if s == "" {
		return "", ErrEmptyName
	}
	return s, nil
}

// ExistsFunc probes whether a slug is already taken inside a definition.
type ExistsFunc func(ctx context.Context, definitionID, slug string) (bool, error)

// Unique returns a slug for name that no other instance of the
// definition holds. On collision it retries with a short random
// suffix; after too many collisions it falls back to a timestamp
// suffix that is not probed again.
func Unique(ctx context.Context, name, definitionID string, exists ExistsFunc) (string, error) {
	base, err := Make(name)
	if err != nil {
		return "", err
	}
	candidate := base
	for i := 0; i < maxAttempts; i++ {
		taken, err := exists(ctx, definitionID, candidate)
		if err != nil {
			return "", fmt.Errorf("slug: probe %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		suffix, err := nanoid.Generate(suffixAlphabet, suffixLen)
		if err != nil {
			return "", fmt.Errorf("slug: %w", err)
		}
		candidate = base + "-" + suffix
	}
	return base + "-" + strconv.FormatInt(time.Now().UnixMilli(), 36), nil
}
