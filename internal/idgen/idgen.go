// Package idgen provides short, URL-safe unique ID generation backed by nanoid.
// Each row kind carries its own prefix so an ID is self-describing in logs.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet defines the character set used for the random portion of the ID.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters generated (excluding the prefix).
var Length = 14

// Instance returns a new instance ID.
func Instance() (string, error) { return generate("ei-") }

// Edge returns a new relation edge ID.
func Edge() (string, error) { return generate("er-") }

// Attachment returns a new attachment ID.
func Attachment() (string, error) { return generate("ef-") }

func generate(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}
