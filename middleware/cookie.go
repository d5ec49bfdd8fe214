package middleware

import (
	"net/http"
	"time"

	sessionguard "github.com/edukit/sessionguard"
)

// CookieConfig names the session cookie and fixes its scope. Separate
// admin and student surfaces should use distinct cookie names so the two
// session kinds never collide in the browser jar.
type CookieConfig struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

// DefaultCookieConfig returns the cookie settings used when the caller does
// not override them.
func DefaultCookieConfig(name string) CookieConfig {
	return CookieConfig{
		Name:     name,
		Path:     "/",
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

// WriteCredential sets the session cookie. MaxAge tracks the idle window so
// the browser expires the cookie in step with the server-side policy.
func WriteCredential(w http.ResponseWriter, cfg CookieConfig, engine *sessionguard.Engine, credential string, remembered bool) {
	maxAge := 0
	if engine != nil {
		if idle := engine.IdleWindow(remembered); idle > 0 {
			maxAge = int(idle / time.Second)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    credential,
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		MaxAge:   maxAge,
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: cfg.SameSite,
	})
}

// ClearCredential expires the session cookie immediately.
func ClearCredential(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		MaxAge:   -1,
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: cfg.SameSite,
	})
}
