package auth

import (
	"net/http"
	"time"
)

// CookieConfig describes the cookie that carries the session token.
type CookieConfig struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
	MaxAge   time.Duration
}

func DefaultCookieConfig() CookieConfig {
	return CookieConfig{
		Name:     "token",
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   SessionTTL,
	}
}

func (c CookieConfig) set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     c.Path,
		Domain:   c.Domain,
		MaxAge:   int(c.MaxAge.Seconds()),
		Expires:  time.Now().Add(c.MaxAge),
		Secure:   c.Secure,
		HttpOnly: true,
		SameSite: c.SameSite,
	})
}

func (c CookieConfig) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     c.Path,
		Domain:   c.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   c.Secure,
		HttpOnly: true,
		SameSite: c.SameSite,
	})
}

func (c CookieConfig) read(r *http.Request) string {
	cookie, err := r.Cookie(c.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
