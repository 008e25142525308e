package protocol

import (
	"fmt"
	"strings"
)

// DefaultNamespace is assumed for identifiers written without one.
const DefaultNamespace = "minecraft"

// Ident is a namespaced resource location such as "minecraft:brand".
type Ident struct {
	Namespace string
	Path      string
}

// ParseIdent validates s and splits it into namespace and path.
// A missing namespace defaults to DefaultNamespace.
func ParseIdent(s string) (Ident, error) {
	ns, path, found := strings.Cut(s, ":")
	if !found {
		ns, path = DefaultNamespace, s
	}
	if ns == "" {
		ns = DefaultNamespace
	}
	for i := 0; i < len(ns); i++ {
		if !validNamespaceChar(ns[i]) {
			return Ident{}, fmt.Errorf("%w: %q: bad namespace character %q", ErrInvalidIdent, s, ns[i])
		}
	}
	if path == "" {
		return Ident{}, fmt.Errorf("%w: %q: empty path", ErrInvalidIdent, s)
	}
	for i := 0; i < len(path); i++ {
		if !validPathChar(path[i]) {
			return Ident{}, fmt.Errorf("%w: %q: bad path character %q", ErrInvalidIdent, s, path[i])
		}
	}
	return Ident{Namespace: ns, Path: path}, nil
}

// MustIdent is like ParseIdent but panics on invalid input.
// Intended for identifiers known at compile time.
func MustIdent(s string) Ident {
	id, err := ParseIdent(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the canonical namespace:path form.
func (id Ident) String() string {
	return id.Namespace + ":" + id.Path
}

func validNamespaceChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' || c == '-' || c == '.'
}

func validPathChar(c byte) bool {
	return validNamespaceChar(c) || c == '/'
}
