// Package identity derives stable quota keys from request metadata.
//
// A client is identified by an explicit caller-supplied identifier header
// when present and well-formed (browser extensions send their extension
// ID), otherwise by the normalized network origin. Resolution is
// deterministic and pure: no I/O, no side effects, and identical request
// metadata always yields the same key.
package identity

import (
	"net/http"
	"strings"

	"github.com/jobhunterui/cvgen/pkg/clientip"
)

// Default header names.
const (
	DefaultClientIDHeader = "X-Client-ID"
	DefaultTierHeader     = "X-Subscription-Tier"
)

// Key prefixes keep explicit identifiers and network origins in separate
// namespaces so a caller cannot collide with an IP-derived key.
const (
	keyPrefixID = "id:"
	keyPrefixIP = "ip:"
)

const maxIdentifierLength = 128

// Resolver resolves the quota key and subscription tier for a request.
type Resolver struct {
	clientIDHeader string
	tierHeader     string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithClientIDHeader overrides the explicit identifier header name.
func WithClientIDHeader(header string) ResolverOption {
	return func(r *Resolver) {
		if header != "" {
			r.clientIDHeader = header
		}
	}
}

// WithTierHeader overrides the subscription tier header name.
func WithTierHeader(header string) ResolverOption {
	return func(r *Resolver) {
		if header != "" {
			r.tierHeader = header
		}
	}
}

// NewResolver creates a Resolver with the given options.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		clientIDHeader: DefaultClientIDHeader,
		tierHeader:     DefaultTierHeader,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// ClientKey returns the quota key for the request. A malformed explicit
// identifier is treated as absent and never causes a failure: resolution
// falls through to the client IP.
func (r *Resolver) ClientKey(req *http.Request) string {
	if id := strings.TrimSpace(req.Header.Get(r.clientIDHeader)); wellFormed(id) {
		return keyPrefixID + id
	}
	return keyPrefixIP + clientip.GetIP(req)
}

// Tier returns the normalized subscription tier carried by the request,
// or "" when absent.
func (r *Resolver) Tier(req *http.Request) string {
	return strings.ToLower(strings.TrimSpace(req.Header.Get(r.tierHeader)))
}

// wellFormed reports whether id is usable as a quota key segment:
// non-empty, bounded length, and limited to unambiguous ASCII so header
// smuggling or control characters cannot forge keys.
func wellFormed(id string) bool {
	if id == "" || len(id) > maxIdentifierLength {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_' || c == '.' || c == ':' || c == '@':
		default:
			return false
		}
	}
	return true
}
