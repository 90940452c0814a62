package letta

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// ID prefixes used by the Letta API for common resource types.
const (
	PrefixAgent   = "agent"
	PrefixBlock   = "block"
	PrefixMessage = "message"
	PrefixRun     = "run"
	PrefixTool    = "tool"
)

// ID is a Letta resource identifier: an optional resource-type prefix joined
// to a UUID with a dash, e.g. "agent-550e8400-e29b-41d4-a716-446655440000".
// A bare UUID with no prefix is also a valid ID. The zero value represents an
// absent identifier.
type ID struct {
	prefix string
	uuid   uuid.UUID
}

// NewID generates a fresh identifier with the given prefix.
func NewID(prefix string) ID {
	return ID{prefix: prefix, uuid: uuid.New()}
}

// ParseID parses an identifier in either "prefix-uuid" or bare UUID form.
// Prefixes must be non-empty, contain at least one letter or digit, consist
// only of letters, digits, underscores and dashes, and not start or end with
// a dash.
func ParseID(s string) (ID, error) {
	if u, err := uuid.Parse(s); err == nil {
		return ID{uuid: u}, nil
	}
	// A canonical UUID occupies the last 36 characters, preceded by a dash
	// that separates it from the prefix.
	if len(s) > 36 && s[len(s)-37] == '-' {
		if u, err := uuid.Parse(s[len(s)-36:]); err == nil {
			prefix := s[:len(s)-37]
			if validIDPrefix(prefix) {
				return ID{prefix: prefix, uuid: u}, nil
			}
		}
	}
	return ID{}, fmt.Errorf("%w: %q", ErrInvalidID, s)
}

// MustParseID is like ParseID but panics on invalid input. Intended for
// tests and package-level variables.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func validIDPrefix(prefix string) bool {
	if prefix == "" || strings.HasPrefix(prefix, "-") || strings.HasSuffix(prefix, "-") {
		return false
	}
	hasAlnum := false
	for _, r := range prefix {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			hasAlnum = true
		case r == '_' || r == '-':
		default:
			return false
		}
	}
	return hasAlnum
}

// Prefix returns the resource-type prefix, or "" for a bare UUID.
func (id ID) Prefix() string { return id.prefix }

// UUID returns the UUID part of the identifier.
func (id ID) UUID() uuid.UUID { return id.uuid }

// IsBare reports whether the identifier has no prefix.
func (id ID) IsBare() bool { return id.prefix == "" }

// IsZero reports whether the identifier is the zero value.
func (id ID) IsZero() bool { return id.prefix == "" && id.uuid == uuid.Nil }

// String returns the canonical "prefix-uuid" form, or the bare UUID when no
// prefix is set.
func (id ID) String() string {
	if id.prefix == "" {
		return id.uuid.String()
	}
	return id.prefix + "-" + id.uuid.String()
}

// MarshalText implements encoding.TextMarshaler so IDs serialize as plain
// JSON strings.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(b []byte) error {
	parsed, err := ParseID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
