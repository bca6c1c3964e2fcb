package web

import (
	"log/slog"
	"net/http"
	"net/url"

	"vizboard/internal/persist"
)

// Cookies implements the persistence capability on top of browser cookies,
// scoped to one request/response pair. Values are query-escaped so JSON and
// other cookie-hostile strings round-trip. Writes are overlaid so a Get in
// the same request sees them before the browser ever does.
type Cookies struct {
	r       *http.Request
	w       http.ResponseWriter
	logger  *slog.Logger
	overlay map[string]*string // nil value marks a removal
}

var _ persist.Store = (*Cookies)(nil)

func NewCookies(w http.ResponseWriter, r *http.Request, logger *slog.Logger) *Cookies {
	return &Cookies{
		r:       r,
		w:       w,
		logger:  logger,
		overlay: make(map[string]*string),
	}
}

func (c *Cookies) Get(name string) (string, bool) {
	if v, ok := c.overlay[name]; ok {
		if v == nil {
			return "", false
		}
		return *v, true
	}

	cookie, err := c.r.Cookie(name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	value, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		// Unreadable is absent; never fatal.
		c.logger.Warn("unreadable cookie", "name", name, "error", err)
		return "", false
	}
	return value, true
}

func (c *Cookies) Set(name, value string) {
	c.overlay[name] = &value
	http.SetCookie(c.w, &http.Cookie{
		Name:     name,
		Value:    url.QueryEscape(value),
		Path:     "/",
		MaxAge:   int(persist.Expiry.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   c.r.TLS != nil,
	})
}

func (c *Cookies) Remove(name string) {
	c.overlay[name] = nil
	// Attributes must match Set or some browsers keep the old cookie
	// alongside the deletion.
	http.SetCookie(c.w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   c.r.TLS != nil,
	})
}
