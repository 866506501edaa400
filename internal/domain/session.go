// Package domain contains entity types without logic, just meta-data
// and the validation rules that keep them well-formed.
package domain

import "errors"

const (
	MaxDisplayNameLen  = 36
	DefaultDisplayName = "Anonymous"
)

var (
	ErrNameTooLong = errors.New("display name too long")
)

// SessionID identifies one listening session. It is short but random,
// so it doubles as the capability needed to join.
type SessionID string

// HostSecret proves host authority for a session. Issued once at
// creation and never rotated.
type HostSecret string

// SanitizeDisplayName applies the default for empty names and rejects
// names over the limit. Truncation is deliberate policy for join flows;
// callers that want a hard error check the length themselves.
func SanitizeDisplayName(name string) (string, error) {
	if name == "" {
		return DefaultDisplayName, nil
	}
	if len(name) > MaxDisplayNameLen {
		return "", ErrNameTooLong
	}
	return name, nil
}
