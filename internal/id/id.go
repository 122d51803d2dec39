// Package id generates prefixed unique identifiers for domain records.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// LocalPrefix marks identifiers assigned locally before the record has been
// mirrored to the sync server. The server replaces them with its own IDs.
const LocalPrefix = "local"

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "bk-V1StGXR8_Z5jdHi6B-myT").
//
// NanoIDs are URL-friendly and compact (21 characters vs UUID's 36).
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
// Use only when entropy exhaustion should crash the program (e.g., during initialization).
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// IsLocal reports whether the ID was assigned locally and has not yet been
// replaced by a server-assigned identity.
func IsLocal(id string) bool {
	return strings.HasPrefix(id, LocalPrefix+"-")
}
