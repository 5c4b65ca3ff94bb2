package freshness

import (
	"net/http"
	"strings"
	"time"
)

// Options controls how a response's TTL is resolved.
type Options struct {
	// UseResponseHeaders enables Cache-Control and Expires lookups.
	UseResponseHeaders bool

	// DefaultTTL is the configured TTL in seconds. It is also the ceiling:
	// response headers can shorten the TTL but never extend it.
	DefaultTTL int64
}

// HeaderTTL derives a TTL in seconds from response headers.
//
// Precedence: s-maxage, max-age, then Expires relative to now. An Expires
// in the past yields Absent. A malformed Cache-Control header is skipped
// (resolution continues with Expires) and its *DirectiveError is returned
// next to the TTL.
func HeaderTTL(h http.Header, now time.Time) (int64, error) {
	var parseErr error

	if values := h.Values("Cache-Control"); len(values) > 0 {
		directives, err := ParseCacheControl(strings.Join(values, ","))
		switch {
		case err != nil:
			parseErr = err
		case directives.SMaxAge != Absent:
			return directives.SMaxAge, nil
		case directives.MaxAge != Absent:
			return directives.MaxAge, nil
		}
	}

	if expires, ok := ParseExpires(h.Get("Expires")); ok {
		seconds := int64(expires.Sub(now) / time.Second)
		if seconds < 0 {
			return Absent, parseErr
		}
		return seconds, parseErr
	}

	return Absent, parseErr
}

// Resolve returns the effective TTL in seconds for a response.
// The returned error is informational only; the TTL is always usable.
func Resolve(h http.Header, opts Options, now time.Time) (int64, error) {
	ttl := Absent
	var err error
	if opts.UseResponseHeaders {
		ttl, err = HeaderTTL(h, now)
	}

	if ttl == Absent || opts.DefaultTTL < ttl {
		ttl = opts.DefaultTTL
	}

	return ttl, err
}
