package policy

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const (
	keySeparator    = "_"
	methodSeparator = ":"
)

// KeyBuilder derives cache keys from requests.
type KeyBuilder struct {
	scope     Scope
	evaluator KeyEvaluator
}

// NewKeyBuilder creates a key builder. evaluator may be nil.
func NewKeyBuilder(scope Scope, evaluator KeyEvaluator) *KeyBuilder {
	return &KeyBuilder{scope: scope, evaluator: evaluator}
}

// Build returns the cache key for r.
//
// Format: [api_[application_]][METHOD:]pathHash[_fragment]
//
// GET and HEAD share the unqualified key space. Any other method is
// prefixed so its artifact never replaces the GET one.
func (b *KeyBuilder) Build(r *http.Request) (string, error) {
	var sb strings.Builder

	ctx := r.Context()
	switch b.scope {
	case ScopeApplication:
		sb.WriteString(APIFromContext(ctx))
		sb.WriteString(keySeparator)
		sb.WriteString(ApplicationFromContext(ctx))
		sb.WriteString(keySeparator)
	case ScopeAPI:
		sb.WriteString(APIFromContext(ctx))
		sb.WriteString(keySeparator)
	}

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		sb.WriteString(r.Method)
		sb.WriteString(methodSeparator)
	}
	sb.WriteString(strconv.FormatUint(PathHash(r.URL.Path), 10))

	if b.evaluator != nil {
		fragment, err := b.evaluator.Evaluate(r)
		if err != nil {
			return "", err
		}
		sb.WriteString(keySeparator)
		sb.WriteString(fragment)
	}

	return sb.String(), nil
}

// PathHash hashes a request path. An empty path is treated as "/".
func PathHash(path string) uint64 {
	if path == "" {
		path = "/"
	}
	return xxhash.Sum64String(path)
}
