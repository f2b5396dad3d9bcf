package realtime

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// Authenticator resolves an access token to a user id
type Authenticator func(ctx context.Context, token string) (uint, error)

var ErrNoToken = errors.New("authentication required")

// tokenFromRequest reads the access token from the query string or an
// Authorization: Bearer header.
func tokenFromRequest(r *http.Request) string {
	q := r.URL.Query()
	if t := q.Get("token"); t != "" {
		return t
	}
	if t := q.Get("auth_token"); t != "" {
		return t
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}
