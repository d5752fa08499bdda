package identity

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	durableCookiePrefix = "jp_"
	durableCookieMaxAge = 365 * 24 * time.Hour
)

// CookieStore backs a Store with request cookies. Durable entries get a
// one-year expiry; session entries are browser-session cookies.
type CookieStore struct {
	ctx     *fiber.Ctx
	durable bool
	secure  bool
}

// NewDurableCookieStore returns a cookie store whose entries survive browser
// restarts (one-year cookies). Use it for the visitor id.
func NewDurableCookieStore(c *fiber.Ctx, secure bool) *CookieStore {
	return &CookieStore{ctx: c, durable: true, secure: secure}
}

// NewSessionCookieStore returns a cookie store whose entries live for the
// browser session only. Use it for the session id and last-seen timestamp.
func NewSessionCookieStore(c *fiber.Ctx, secure bool) *CookieStore {
	return &CookieStore{ctx: c, durable: false, secure: secure}
}

func (s *CookieStore) Get(key string) (string, bool) {
	v := s.ctx.Cookies(durableCookiePrefix + key)
	return v, v != ""
}

func (s *CookieStore) Set(key, value string) {
	cookie := &fiber.Cookie{
		Name:     durableCookiePrefix + key,
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
	if s.durable {
		cookie.Expires = time.Now().Add(durableCookieMaxAge)
	}
	s.ctx.Cookie(cookie)
}
