package observability

import (
	"strings"
	"unicode"
)

// Length caps for logged request fields. Routes are chi patterns and user
// IDs are short prefixed ULIDs, so the caps are tighter than the generic
// field limit.
const (
	maxFieldLen  = 256
	maxMethodLen = 10
	maxRouteLen  = 128
	maxUserIDLen = 40
)

// sanitizeString strips control characters and caps the length so request
// fields cannot inject extra log lines.
func sanitizeString(value string, limit int) string {
	if limit <= 0 {
		limit = maxFieldLen
	}
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, value)
	if runes := []rune(cleaned); len(runes) > limit {
		return string(runes[:limit])
	}
	return cleaned
}

// SanitizeRoute normalises a route pattern for logging.
func SanitizeRoute(route string) string {
	if route == "" {
		return "/"
	}
	return sanitizeString(route, maxRouteLen)
}

// SanitizeMethod normalises an HTTP method for logging.
func SanitizeMethod(method string) string {
	return sanitizeString(method, maxMethodLen)
}

// SanitizeUserID caps identifiers so logs never carry oversized or
// attacker-shaped user IDs.
func SanitizeUserID(uid string) string {
	if uid == "" {
		return ""
	}
	return sanitizeString(uid, maxUserIDLen)
}
