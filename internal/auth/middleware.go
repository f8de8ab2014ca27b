package auth

import (
	"context"
	"net/http"

	"github.com/sakif/todolist/internal/model"
)

// Resolver turns a raw session token into the caller's identity.
//
// Resolve never fails: anything wrong with the token (missing, malformed,
// expired, forged, unknown user) produces model.Anonymous.
type Resolver interface {
	Resolve(ctx context.Context, token string) model.Identity
}

// contextKey is an unexported type for context keys in this package.
//
// A plain string key like "identity" could be read or overwritten by any
// package that knows the string. Only this package can build a contextKey.
type contextKey string

const identityKey contextKey = "identity"

// Authenticate resolves the session cookie on every request and stores the
// resulting Identity in the request context. It never blocks a request:
// anonymous callers continue with model.Anonymous and handlers decide what
// that means (an empty list, a 401, ...).
//
// MIDDLEWARE PATTERN IN GO:
//
//	func Middleware(next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        // ... before ...
//	        next.ServeHTTP(w, r)
//	        // ... after ...
//	    })
//	}
func Authenticate(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := model.Anonymous
			if token := TokenFromRequest(r); token != "" {
				id = resolver.Resolve(r.Context(), token)
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the caller stored by Authenticate.
// Requests that never went through the middleware are anonymous.
//
// Usage in handlers:
//
//	id := auth.IdentityFromContext(r.Context())
//	todos, err := h.todos.List(r.Context(), id)
func IdentityFromContext(ctx context.Context) model.Identity {
	id, ok := ctx.Value(identityKey).(model.Identity)
	if !ok {
		return model.Anonymous
	}
	return id
}
