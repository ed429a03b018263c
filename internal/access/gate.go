package access

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Context captures the caller's credentials for one request. Exactly one of
// {owner session, share token} is enough to read; the two are never merged,
// a share token never elevates to owner privileges.
type Context struct {
	OwnerAuthenticated bool
	ShareToken         string
	// BearerToken is the raw session credential, forwarded upstream on
	// owner-scoped requests. Empty when the session is absent or expired.
	BearerToken string
}

// ShareScoped reports whether the request arrived through a share link.
func (c Context) ShareScoped() bool {
	return c.ShareToken != ""
}

// FromRequest builds an access context from the session credential and the
// share_token query parameter. Evaluated fresh on every request: the share
// token arrives per-URL and the session can expire between navigations.
func FromRequest(r *http.Request) Context {
	c := Context{ShareToken: r.URL.Query().Get("share_token")}

	raw := ExtractTokenFromBearer(r.Header.Get("Authorization"))
	if raw != "" && SessionActive(raw, time.Now()) {
		c.OwnerAuthenticated = true
		c.BearerToken = raw
	}

	return c
}

// CanRead reports whether the caller may read the link's analytics:
// an authenticated owner or any share token holder.
func CanRead(c Context) bool {
	return c.OwnerAuthenticated || c.ShareToken != ""
}

// CanMutate reports whether the caller may perform owner-only actions
// (creating share links, deleting). Never true for share token holders.
func CanMutate(c Context) bool {
	return c.OwnerAuthenticated
}

// SessionActive reports whether the bearer token still looks like a live
// session. The dashboard does not hold the signing secret, so only the
// claims are inspected to catch sessions that have already expired; the
// backend stays the authority and opaque tokens pass through untouched.
func SessionActive(raw string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return true
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}

	return exp.After(now)
}

// ExtractTokenFromBearer extracts the token from a Bearer header value.
func ExtractTokenFromBearer(authHeader string) string {
	const bearerPrefix = "Bearer "
	if len(authHeader) > len(bearerPrefix) && authHeader[:len(bearerPrefix)] == bearerPrefix {
		return authHeader[len(bearerPrefix):]
	}
	return ""
}
