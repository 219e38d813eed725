// Package middleware provides the HTTP middleware stack for the service:
// request IDs, request/response logging, CORS, and quota admission.
//
// All middleware are standard func(http.Handler) http.Handler wrappers and
// compose with any chi or net/http router. The admission middleware is the
// single gate in front of quota-protected handlers: it resolves the client
// identity, evaluates the quota policy, and either forwards the request
// with quota metadata attached to the context or short-circuits with a
// structured rejection.
package middleware
