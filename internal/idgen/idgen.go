// Package idgen provides short, URL-safe block ids backed by nanoid.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet defines the character set used for generated ids.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_-"

// Length is the number of characters in a block id.
var Length = 10

// Generate returns a new block id.
func Generate() (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return id, nil
}
