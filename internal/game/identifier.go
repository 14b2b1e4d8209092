package game

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultNamespace is assumed when an identifier omits its namespace.
const DefaultNamespace = "minecraft"

// Identifier is a namespaced registry key, e.g. "minecraft:wheat".
type Identifier string

// ParseIdentifier normalises and validates a raw identifier.
//
// The input is NFC-normalised, trimmed and lower-cased. A missing namespace
// defaults to DefaultNamespace. Both parts must be non-empty and use only
// [a-z0-9_.-] (the path may also contain '/').
func ParseIdentifier(raw string) (Identifier, error) {
	s := strings.ToLower(strings.TrimSpace(norm.NFC.String(raw)))
	if s == "" {
		return "", fmt.Errorf("identifier is empty")
	}

	ns, path, found := strings.Cut(s, ":")
	if !found {
		ns, path = DefaultNamespace, s
	}
	if ns == "" || path == "" {
		return "", fmt.Errorf("identifier %q: namespace and path must be non-empty", raw)
	}
	if !validPart(ns, false) {
		return "", fmt.Errorf("identifier %q: invalid namespace %q", raw, ns)
	}
	if !validPart(path, true) {
		return "", fmt.Errorf("identifier %q: invalid path %q", raw, path)
	}

	return Identifier(ns + ":" + path), nil
}

// MustIdentifier is ParseIdentifier for literals. Panics on invalid input.
func MustIdentifier(raw string) Identifier {
	id, err := ParseIdentifier(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// Namespace returns the part before the colon.
func (id Identifier) Namespace() string {
	ns, _, found := strings.Cut(string(id), ":")
	if !found {
		return DefaultNamespace
	}
	return ns
}

// Path returns the part after the colon.
func (id Identifier) Path() string {
	_, path, found := strings.Cut(string(id), ":")
	if !found {
		return string(id)
	}
	return path
}

func (id Identifier) String() string {
	return string(id)
}

func validPart(s string, allowSlash bool) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '.' || r == '-':
		case r == '/' && allowSlash:
		default:
			return false
		}
	}
	return true
}
