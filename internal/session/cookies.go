package session

import (
	"encoding/base64"
	"net/http"
	"time"
)

const (
	ProfileCookieName = "lp_user"
	TokenCookieName   = "lp_token"
)

var cookieNames = map[string]string{
	ProfileKey: ProfileCookieName,
	TokenKey:   TokenCookieName,
}

type CookieConfig struct {
	Domain string
	Secure bool
	TTL    time.Duration
}

// CookieRepository stores session entries as cookies on one request/response pair. Writes
// are visible to later reads on the same request.
type CookieRepository struct {
	r       *http.Request
	w       http.ResponseWriter
	cfg     CookieConfig
	written map[string]*string
}

func NewCookieRepository(w http.ResponseWriter, r *http.Request, cfg CookieConfig) *CookieRepository {
	return &CookieRepository{r: r, w: w, cfg: cfg, written: map[string]*string{}}
}

func (c *CookieRepository) Get(key string) (string, bool) {
	if v, ok := c.written[key]; ok {
		if v == nil {
			return "", false
		}
		return *v, true
	}
	name, ok := cookieNames[key]
	if !ok {
		return "", false
	}
	cookie, err := c.r.Cookie(name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	decoded, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		// Hand back the raw value so the reader sees it as corrupt.
		return cookie.Value, true
	}
	return string(decoded), true
}

func (c *CookieRepository) Set(key, value string) {
	name, ok := cookieNames[key]
	if !ok {
		return
	}
	v := value
	c.written[key] = &v
	http.SetCookie(c.w, &http.Cookie{
		Name:     name,
		Value:    base64.RawURLEncoding.EncodeToString([]byte(value)),
		Path:     "/",
		Domain:   c.cfg.Domain,
		HttpOnly: true,
		Secure:   c.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(c.cfg.TTL.Seconds()),
	})
}

func (c *CookieRepository) Clear(key string) {
	name, ok := cookieNames[key]
	if !ok {
		return
	}
	c.written[key] = nil
	http.SetCookie(c.w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   c.cfg.Domain,
		HttpOnly: true,
		Secure:   c.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
