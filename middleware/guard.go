package middleware

import (
	"net"
	"net/http"

	sessionguard "github.com/edukit/sessionguard"
)

// Guard enforces an authenticated session of the expected kind. On success
// the refreshed credential is written back as the cookie and the identity
// is attached to the request context; on failure the cookie is cleared and
// the request is rejected with 401.
func Guard(engine *sessionguard.Engine, kind sessionguard.Kind, cookie CookieConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			c, err := r.Cookie(cookie.Name)
			if err != nil || c.Value == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := r.Context()
			if ip := remoteIP(r); ip != "" {
				ctx = sessionguard.WithClientIP(ctx, ip)
			}
			if ua := r.UserAgent(); ua != "" {
				ctx = sessionguard.WithUserAgent(ctx, ua)
			}

			res, err := engine.Authenticate(ctx, c.Value, kind)
			if err != nil {
				ClearCredential(w, cookie)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			WriteCredential(w, cookie, engine, res.Refreshed, res.Identity.Remembered)

			ctx = sessionguard.WithIdentity(ctx, &res.Identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
