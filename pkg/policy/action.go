package policy

import (
	"net/http"
	"net/url"
	"strings"
)

// Action is a per-request caching override.
type Action int

const (
	// ActionNone applies the normal caching logic.
	ActionNone Action = iota

	// ActionBypass disables caching for the request.
	ActionBypass

	// ActionRefresh forwards the request and replaces the cached response.
	ActionRefresh
)

const (
	// ActionHeader is the request header carrying an override.
	ActionHeader = "X-Gravitee-Cache"

	// ActionQueryParam is the query parameter carrying an override.
	// It is only read when the header is absent or empty.
	ActionQueryParam = "cache"
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionBypass:
		return "bypass"
	case ActionRefresh:
		return "refresh"
	default:
		return "none"
	}
}

// ParseAction parses an override value case-insensitively.
// Unknown values yield ActionNone.
func ParseAction(value string) Action {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "refresh":
		return ActionRefresh
	case "bypass", "by_pass":
		return ActionBypass
	default:
		return ActionNone
	}
}

// ResolveAction reads the override from r and removes it so it is not
// forwarded upstream. The header wins over the query parameter.
func ResolveAction(r *http.Request) Action {
	if value := r.Header.Get(ActionHeader); value != "" {
		r.Header.Del(ActionHeader)
		return ParseAction(value)
	}

	value, ok := removeQueryParam(r, ActionQueryParam)
	if !ok {
		return ActionNone
	}
	return ParseAction(value)
}

// removeQueryParam deletes every occurrence of name from the raw query,
// keeping the other parameters in their original order and encoding.
// It returns the first value found.
func removeQueryParam(r *http.Request, name string) (string, bool) {
	if r.URL == nil || r.URL.RawQuery == "" {
		return "", false
	}

	var (
		value string
		found bool
		kept  []string
	)
	for _, part := range strings.Split(r.URL.RawQuery, "&") {
		key, raw, _ := strings.Cut(part, "=")
		if unescape(key) != name {
			kept = append(kept, part)
			continue
		}
		if !found {
			value = unescape(raw)
			found = true
		}
	}

	if found {
		r.URL.RawQuery = strings.Join(kept, "&")
		if r.RequestURI != "" {
			r.RequestURI = r.URL.RequestURI()
		}
	}
	return value, found
}

func unescape(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return s
}
