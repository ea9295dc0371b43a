package auth

import "strings"

// Session carries the caller identity for calls to the laundry backend.
// It is passed explicitly to every operation that talks to the backend; the
// zero value is an anonymous (guest) session.
type Session struct {
	Token string
}

// Anonymous returns a session without credentials.
func Anonymous() Session {
	return Session{}
}

// FromAuthorization builds a Session from an Authorization header value.
// Only the Bearer scheme is recognised; anything else yields an anonymous session.
func FromAuthorization(header string) Session {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return Anonymous()
	}
	return Session{Token: strings.TrimSpace(token)}
}

// Authenticated reports whether the session carries a token.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// Authorization returns the Authorization header value, or "" for guests.
func (s Session) Authorization() string {
	if !s.Authenticated() {
		return ""
	}
	return "Bearer " + s.Token
}
