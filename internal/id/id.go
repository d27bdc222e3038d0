// Package id normalizes externally supplied identifiers and generates new ones.
package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Normalize maps a canonical UUID string to its binary form. Any other input,
// including the nil UUID, reports false; malformed input never panics.
func Normalize(raw string) (uuid.UUID, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) != 36 {
		return uuid.Nil, false
	}
	parsed, err := uuid.Parse(raw)
	if err != nil || parsed == uuid.Nil {
		return uuid.Nil, false
	}
	return parsed, true
}

// Generator creates time-ordered UUIDv7 identifiers.
type Generator struct{}

// NewGenerator creates a new Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// NewID returns a UUIDv7.
func (Generator) NewID() (uuid.UUID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("generate uuid7: %w", err)
	}
	return id, nil
}
