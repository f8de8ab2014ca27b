package model

// Identity is the caller on whose behalf an operation runs.
//
// It is resolved once per request from the session cookie and then passed
// explicitly into every service call. The zero value is the anonymous caller.
type Identity struct {
	UserID string
}

// Anonymous is the identity of a caller without a valid session.
var Anonymous = Identity{}

// Authenticated reports whether the identity belongs to a signed-in user.
func (i Identity) Authenticated() bool {
	return i.UserID != ""
}
