// Package freshness parses HTTP freshness information (Cache-Control and
// Expires response headers) and turns it into a time-to-live.
package freshness

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Absent marks a numeric directive or TTL that is not known.
const Absent int64 = -1

// ErrMalformedDirective is wrapped by every DirectiveError.
var ErrMalformedDirective = errors.New("malformed cache-control directive")

// DirectiveError reports a numeric directive whose value is not a
// non-negative integer. The header carrying it cannot be used to determine
// freshness.
type DirectiveError struct {
	Directive string
	Value     string
	Err       error
}

// Error implements the error interface.
func (e *DirectiveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s=%q: %v", ErrMalformedDirective, e.Directive, e.Value, e.Err)
	}
	return fmt.Sprintf("%s: %s=%q", ErrMalformedDirective, e.Directive, e.Value)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *DirectiveError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMalformedDirective, e.Err}
	}
	return []error{ErrMalformedDirective}
}

// Directives is the parsed form of a Cache-Control header.
type Directives struct {
	NoCache        bool
	NoStore        bool
	NoTransform    bool
	MustRevalidate bool
	Private        bool
	Public         bool

	// MaxAge and SMaxAge are seconds, or Absent.
	MaxAge  int64
	SMaxAge int64
}

// NoDirectives returns an empty directive set.
func NoDirectives() Directives {
	return Directives{MaxAge: Absent, SMaxAge: Absent}
}

// ParseCacheControl parses a Cache-Control header value.
//
// Directive names are matched case-insensitively with hyphens ignored, so
// "s-maxage" and "smax-age" select the same directive. Unknown directives
// are skipped. A max-age or s-maxage value that is not a non-negative
// integer fails the whole parse with a *DirectiveError.
func ParseCacheControl(value string) (Directives, error) {
	d := NoDirectives()

	for _, token := range splitDirectives(value) {
		name, arg, _ := strings.Cut(token, "=")
		name = strings.TrimSpace(name)
		arg = strings.TrimSpace(arg)
		if name == "" {
			continue
		}

		switch normalizeName(name) {
		case "nocache":
			d.NoCache = true
		case "nostore":
			d.NoStore = true
		case "notransform":
			d.NoTransform = true
		case "mustrevalidate":
			d.MustRevalidate = true
		case "private":
			d.Private = true
		case "public":
			d.Public = true
		case "maxage":
			seconds, err := parseSeconds(name, arg)
			if err != nil {
				return NoDirectives(), err
			}
			d.MaxAge = seconds
		case "smaxage":
			seconds, err := parseSeconds(name, arg)
			if err != nil {
				return NoDirectives(), err
			}
			d.SMaxAge = seconds
		}
	}

	return d, nil
}

// splitDirectives splits on commas that are not inside a quoted string.
func splitDirectives(value string) []string {
	var (
		tokens  []string
		start   int
		quoted  bool
		escaped bool
	)
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case escaped:
			escaped = false
		case quoted && c == '\\':
			escaped = true
		case c == '"':
			quoted = !quoted
		case c == ',' && !quoted:
			tokens = append(tokens, strings.TrimSpace(value[start:i]))
			start = i + 1
		}
	}
	if rest := strings.TrimSpace(value[start:]); rest != "" {
		tokens = append(tokens, rest)
	}
	return tokens
}

func normalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "-", "")
}

func parseSeconds(name, arg string) (int64, error) {
	raw := arg
	if len(arg) >= 2 && arg[0] == '"' && arg[len(arg)-1] == '"' {
		arg = arg[1 : len(arg)-1]
	}
	if arg == "" || strings.TrimLeft(arg, "0123456789") != "" {
		return Absent, &DirectiveError{Directive: name, Value: raw}
	}
	seconds, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return Absent, &DirectiveError{Directive: name, Value: raw, Err: err}
	}
	return seconds, nil
}
