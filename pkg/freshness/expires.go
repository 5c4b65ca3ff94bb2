package freshness

import (
	"strings"
	"time"
)

// ParseExpires parses an Expires header value in RFC 1123 format
// (e.g. "Thu, 01 Dec 1994 16:00:00 GMT").
// It returns false when the value is empty or cannot be parsed.
func ParseExpires(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	expires, err := time.Parse(time.RFC1123, value)
	if err != nil {
		return time.Time{}, false
	}

	return expires.UTC(), true
}
