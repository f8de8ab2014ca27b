package auth

import (
	"net/http"
)

// PathClass groups page paths by how they react to a session.
type PathClass int

const (
	// PathPublic pages are served to everyone.
	PathPublic PathClass = iota
	// PathGuestOnly pages (login, registration) make no sense when signed in.
	PathGuestOnly
	// PathProtected pages need a signed-in user.
	PathProtected
)

// Decision is the gate's verdict for one request.
// An empty Redirect means "let the request through".
type Decision struct {
	Redirect string
}

// Allowed reports whether the request may continue to the page handler.
func (d Decision) Allowed() bool {
	return d.Redirect == ""
}

// PathPolicy maps page paths to classes and names the redirect targets.
type PathPolicy struct {
	GuestOnly []string
	Protected []string
	LoginPath string
	HomePath  string
}

// DefaultPathPolicy guards the home page and keeps signed-in users away from
// the login and registration pages.
func DefaultPathPolicy() PathPolicy {
	return PathPolicy{
		GuestOnly: []string{"/login", "/register"},
		Protected: []string{"/"},
		LoginPath: "/login",
		HomePath:  "/",
	}
}

// Classify returns the class of an exact request path.
func (p PathPolicy) Classify(path string) PathClass {
	for _, g := range p.GuestOnly {
		if path == g {
			return PathGuestOnly
		}
	}
	for _, pr := range p.Protected {
		if path == pr {
			return PathProtected
		}
	}
	return PathPublic
}

// Decide applies the session policy:
//
//	authenticated  + guest-only page → redirect home
//	anonymous      + protected page  → redirect to login
//	anything else                    → allow
//
// It is a pure function of its inputs.
func (p PathPolicy) Decide(authenticated bool, class PathClass) Decision {
	switch {
	case authenticated && class == PathGuestOnly:
		return Decision{Redirect: p.HomePath}
	case !authenticated && class == PathProtected:
		return Decision{Redirect: p.LoginPath}
	default:
		return Decision{}
	}
}

// Gate is the page-level session boundary. It runs before page handlers,
// resolves the session cookie and either redirects (307) or lets the request
// through. A missing cookie is treated exactly like an invalid one.
//
// The gate only reads the request; it holds no state between requests.
func Gate(policy PathPolicy, resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			class := policy.Classify(r.URL.Path)
			if class == PathPublic {
				next.ServeHTTP(w, r)
				return
			}

			authenticated := false
			if token := TokenFromRequest(r); token != "" {
				authenticated = resolver.Resolve(r.Context(), token).Authenticated()
			}

			if d := policy.Decide(authenticated, class); !d.Allowed() {
				http.Redirect(w, r, d.Redirect, http.StatusTemporaryRedirect)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
