package domain

import "strings"

const (
	minPrincipalLen = 1
	maxPrincipalLen = 90
)

// Principal is a validated, opaque identifier for a voter or an administrator.
type Principal string

// ParsePrincipal validates s and returns it as a Principal. Identifiers are
// case sensitive on the wire, so mixed case input is rejected instead of folded.
func ParsePrincipal(s string) (Principal, error) {
	if len(s) < minPrincipalLen || len(s) > maxPrincipalLen {
		return "", ErrInvalidPrincipal.Withf("invalid principal %q: length must be between %d and %d", s, minPrincipalLen, maxPrincipalLen)
	}
	for i := 0; i < len(s); i++ {
		if !isPrincipalChar(s[i]) {
			return "", ErrInvalidPrincipal.Withf("invalid principal %q: unexpected character %q", s, s[i])
		}
	}
	if strings.ContainsRune("_-.", rune(s[0])) || strings.ContainsRune("_-.", rune(s[len(s)-1])) {
		return "", ErrInvalidPrincipal.Withf("invalid principal %q: must start and end with a letter or digit", s)
	}
	return Principal(s), nil
}

func isPrincipalChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '_' || c == '-' || c == '.':
		return true
	}
	return false
}

func (p Principal) String() string {
	return string(p)
}
