// Package id generates the opaque identifiers assigned to stored entities.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes used for each entity kind.
const (
	PrefixCategory    = "cat"
	PrefixSubcategory = "sub"
	PrefixCourse      = "course"
	PrefixChapter     = "chapter"
	PrefixUser        = "user"
	PrefixSession     = "session"
	PrefixToken       = "token"
	PrefixAudit       = "audit"
)

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "course-V1StGXR8_Z5jdHi6B-myT").
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
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// HasPrefix reports whether id was generated with prefix.
func HasPrefix(id, prefix string) bool {
	return strings.HasPrefix(id, prefix+"-")
}
