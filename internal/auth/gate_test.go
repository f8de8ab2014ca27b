package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sakif/todolist/internal/model"
)

// tokenResolver resolves tokens with a real TokenService and no user lookup.
type tokenResolver struct {
	tokens *TokenService
}

func (r tokenResolver) Resolve(_ context.Context, token string) model.Identity {
	id, err := r.tokens.Validate(token)
	if err != nil {
		return model.Anonymous
	}
	return model.Identity{UserID: id}
}

// =========================================================================
// DECIDE TESTS (the policy table)
// =========================================================================

func TestDecide_PolicyTable(t *testing.T) {
	p := DefaultPathPolicy()

	tests := []struct {
		name          string
		authenticated bool
		class         PathClass
		wantRedirect  string
	}{
		{"signed in on login page goes home", true, PathGuestOnly, "/"},
		{"anonymous on protected page goes to login", false, PathProtected, "/login"},
		{"signed in on protected page is allowed", true, PathProtected, ""},
		{"anonymous on guest page is allowed", false, PathGuestOnly, ""},
		{"anonymous on public page is allowed", false, PathPublic, ""},
		{"signed in on public page is allowed", true, PathPublic, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := p.Decide(tt.authenticated, tt.class)
			if d.Redirect != tt.wantRedirect {
				t.Errorf("Decide(%v, %v) redirect = %q, want %q", tt.authenticated, tt.class, d.Redirect, tt.wantRedirect)
			}
			if d.Allowed() != (tt.wantRedirect == "") {
				t.Errorf("Allowed() = %v, inconsistent with redirect %q", d.Allowed(), d.Redirect)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	p := DefaultPathPolicy()

	cases := map[string]PathClass{
		"/":          PathProtected,
		"/login":     PathGuestOnly,
		"/register":  PathGuestOnly,
		"/static/x":  PathPublic,
		"/login/x":   PathPublic,
		"/something": PathPublic,
	}
	for path, want := range cases {
		if got := p.Classify(path); got != want {
			t.Errorf("Classify(%q) = %v, want %v", path, got, want)
		}
	}
}

// =========================================================================
// GATE MIDDLEWARE TESTS
// =========================================================================

func serveGate(t *testing.T, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	ts := newTestTokenService(t)
	gate := Gate(DefaultPathPolicy(), tokenResolver{tokens: ts})

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	}
	rr := httptest.NewRecorder()
	gate(final).ServeHTTP(rr, req)
	return rr
}

func TestGate_AnonymousHomeRedirectsToLogin(t *testing.T) {
	rr := serveGate(t, "/", "")

	if rr.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}
}

func TestGate_InvalidTokenTreatedAsAnonymous(t *testing.T) {
	rr := serveGate(t, "/", "garbage.token.value")

	if rr.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", rr.Code)
	}
}

func TestGate_ExpiredTokenTreatedAsAnonymous(t *testing.T) {
	ts := newTestTokenService(t)
	expired, _ := ts.GenerateWithDuration("user-1", -1)

	rr := serveGate(t, "/", expired)
	if rr.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", rr.Code)
	}
}

func TestGate_SignedInLoginRedirectsHome(t *testing.T) {
	ts := newTestTokenService(t)
	token, _ := ts.Generate("user-1")

	rr := serveGate(t, "/login", token)

	if rr.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}
}

func TestGate_SignedInHomeAllowed(t *testing.T) {
	ts := newTestTokenService(t)
	token, _ := ts.Generate("user-1")

	if rr := serveGate(t, "/", token); rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestGate_AnonymousRegisterAllowed(t *testing.T) {
	if rr := serveGate(t, "/register", ""); rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

// =========================================================================
// AUTHENTICATE MIDDLEWARE TESTS
// =========================================================================

func TestAuthenticate_PutsIdentityInContext(t *testing.T) {
	ts := newTestTokenService(t)
	token, _ := ts.Generate("user-42")

	var got model.Identity
	h := Authenticate(tokenResolver{tokens: ts})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = IdentityFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got.UserID != "user-42" {
		t.Errorf("identity = %+v, want user-42", got)
	}
}

func TestAuthenticate_NoCookieIsAnonymous(t *testing.T) {
	ts := newTestTokenService(t)

	got := model.Identity{UserID: "sentinel"}
	h := Authenticate(tokenResolver{tokens: ts})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = IdentityFromContext(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api", nil))

	if got.Authenticated() {
		t.Errorf("identity = %+v, want anonymous", got)
	}
}

func TestIdentityFromContext_Empty(t *testing.T) {
	if IdentityFromContext(context.Background()).Authenticated() {
		t.Error("a bare context should be anonymous")
	}
}

// =========================================================================
// COOKIE TESTS
// =========================================================================

func TestSessionCookies_SetAndClear(t *testing.T) {
	c := SessionCookies{Secure: true, TTL: DefaultTokenTTL}

	rr := httptest.NewRecorder()
	c.Set(rr, "abc")
	set := rr.Result().Cookies()
	if len(set) != 1 {
		t.Fatalf("got %d cookies, want 1", len(set))
	}
	ck := set[0]
	if ck.Name != "token" || ck.Value != "abc" {
		t.Errorf("cookie = %s=%s, want token=abc", ck.Name, ck.Value)
	}
	if !ck.HttpOnly || !ck.Secure || ck.SameSite != http.SameSiteLaxMode {
		t.Errorf("cookie attributes wrong: httpOnly=%v secure=%v sameSite=%v", ck.HttpOnly, ck.Secure, ck.SameSite)
	}
	if ck.MaxAge != 86400 {
		t.Errorf("MaxAge = %d, want 86400", ck.MaxAge)
	}

	rr = httptest.NewRecorder()
	c.Clear(rr)
	cleared := rr.Result().Cookies()[0]
	if cleared.MaxAge >= 0 || cleared.Value != "" {
		t.Errorf("Clear() cookie = %+v, want empty value and negative MaxAge", cleared)
	}
}
