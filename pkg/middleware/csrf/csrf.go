// Package csrf guards cookie-authenticated writes with a double-submit token.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/sale/pkg/logging"
)

type Config struct {
	CookieName string
	HeaderName string
	CookiePath string
	Secure     bool
	MaxAge     time.Duration

	// AuthCookies are the cookies that make a request ambient-authenticated.
	// Requests carrying none of them are not checked.
	AuthCookies []string
	SkipPaths   []string
}

func DefaultConfig() Config {
	return Config{
		CookieName: "XSRF-TOKEN",
		HeaderName: "X-CSRF-Token",
		CookiePath: "/",
		Secure:     true,
		MaxAge:     24 * time.Hour,
	}
}

func Middleware(cfg Config) echo.MiddlewareFunc {
	def := DefaultConfig()
	if cfg.CookieName == "" {
		cfg.CookieName = def.CookieName
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = def.HeaderName
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = def.CookiePath
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = def.MaxAge
	}

	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if _, ok := skip[req.URL.Path]; ok {
				return next(c)
			}

			token := readCookie(req, cfg.CookieName)
			if token == "" {
				var err error
				if token, err = newToken(32); err != nil {
					return err
				}
				setCookie(c, cfg, token)
			}

			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				c.Response().Header().Set(cfg.HeaderName, token)
				return next(c)
			}

			// Bearer clients cannot be driven by a foreign page.
			if req.Header.Get(echo.HeaderAuthorization) != "" || !hasAuthCookie(req, cfg.AuthCookies) {
				return next(c)
			}

			l := logging.FromContext(req.Context()).With("middleware", "csrf")
			if !sameOrigin(req) {
				l.Warn("csrf_rejected", "status", 403, "reason", "origin mismatch", "origin", req.Header.Get(echo.HeaderOrigin))
				return echo.NewHTTPError(http.StatusForbidden, "Invalid origin")
			}
			if subtle.ConstantTimeCompare([]byte(token), []byte(req.Header.Get(cfg.HeaderName))) != 1 {
				l.Warn("csrf_rejected", "status", 403, "reason", "token mismatch")
				return echo.NewHTTPError(http.StatusForbidden, "Invalid CSRF token")
			}
			return next(c)
		}
	}
}

func newToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// setCookie leaves the cookie readable by scripts so they can echo it back.
func setCookie(c echo.Context, cfg Config, token string) {
	c.SetCookie(&http.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     cfg.CookiePath,
		Secure:   cfg.Secure,
		MaxAge:   int(cfg.MaxAge.Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

func readCookie(req *http.Request, name string) string {
	c, err := req.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

func hasAuthCookie(req *http.Request, names []string) bool {
	for _, n := range names {
		if readCookie(req, n) != "" {
			return true
		}
	}
	return false
}

// sameOrigin passes requests without Origin or Referer; the token still has to match.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get(echo.HeaderOrigin)
	if origin == "" {
		origin = r.Header.Get("Referer")
	}
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme, schemeOf(r)) && strings.EqualFold(u.Host, r.Host)
}

func schemeOf(r *http.Request) string {
	if p := r.Header.Get(echo.HeaderXForwardedProto); p != "" {
		return p
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
