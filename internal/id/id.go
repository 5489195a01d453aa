// Package id generates the prefixed identifiers this service hands out for
// unified entities, lists and activity records.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefix names the kind of record an identifier belongs to.
type Prefix string

const (
	Unified  Prefix = "ue"
	Custom   Prefix = "custom"
	Imported Prefix = "list"
	Activity Prefix = "act"
)

// nanoid's default alphabet and length.
const bodyLen = 21

// Generate returns "<prefix>-<nanoid>", e.g. "ue-V1StGXR8_Z5jdHi6B-myT".
// It fails only when the system entropy source does.
func Generate(p Prefix) (string, error) {
	body, err := gonanoid.New(bodyLen)
	if err != nil {
		return "", fmt.Errorf("generate %s id: %w", p, err)
	}
	return string(p) + "-" + body, nil
}

// MustGenerate is Generate for callers with no error path.
func MustGenerate(p Prefix) string {
	s, err := Generate(p)
	if err != nil {
		panic(err)
	}
	return s
}

// Is reports whether s was generated with prefix p. Nanoid bodies may
// contain '-', so only the first separator counts.
func Is(s string, p Prefix) bool {
	prefix, body, ok := strings.Cut(s, "-")
	return ok && body != "" && Prefix(prefix) == p
}

// IsList reports whether s names a custom or imported list.
func IsList(s string) bool {
	return Is(s, Custom) || Is(s, Imported)
}
