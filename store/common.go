package store

import "strings"

// DefaultUserID is assumed when the caller supplies no usable user id.
const DefaultUserID = "guest"

// NormalizeUserID reduces a raw user id to a safe key: alphanumerics plus
// "-", "_", ".", ":", capped at 64 characters, defaulting to guest.
func NormalizeUserID(userID string) string {
	raw := strings.TrimSpace(userID)
	if raw == "" {
		return DefaultUserID
	}

	var b strings.Builder
	for _, ch := range raw {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
			b.WriteRune(ch)
		case ch == '-' || ch == '_' || ch == '.' || ch == ':':
			b.WriteRune(ch)
		}
	}

	cleaned := b.String()
	if len(cleaned) > 64 {
		cleaned = cleaned[:64]
	}
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return DefaultUserID
	}
	return cleaned
}

// NormalizeText lowercases and collapses whitespace, the canonical form used
// for memory fact dedup keys.
func NormalizeText(value string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(value))), " ")
}

func clipRunes(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}
