package middleware

import (
	"errors"
	"time"

	"github.com/booktime/booktime-backend/internal/session"
	"github.com/gin-gonic/gin"
)

const (
	sessionKey = "session"
)

// SessionMiddleware ties the session cookie to server side state. The
// basket of an anonymous visitor is found through it.
type SessionMiddleware struct {
	store      session.Store
	cookieName string
	ttl        time.Duration
	secure     bool
}

func NewSessionMiddleware(store session.Store, cookieName string, ttl time.Duration, secure bool) *SessionMiddleware {
	return &SessionMiddleware{
		store:      store,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
	}
}

type requestSession struct {
	m     *SessionMiddleware
	token string
	data  session.Data
}

// Load reads the session for the request. A missing, expired or
// unreadable session is treated as a fresh one.
func (m *SessionMiddleware) Load() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)
		s := &requestSession{m: m}

		if token, err := c.Cookie(m.cookieName); err == nil && token != "" {
			data, err := m.store.Get(c.Request.Context(), token)
			switch {
			case err == nil:
				s.token = token
				s.data = *data
			case errors.Is(err, session.ErrNotFound):
				log.Debug("Session expired")
			default:
				log.Warn("Failed to load session", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}

		c.Set(sessionKey, s)
		c.Next()
	}
}

func getSession(c *gin.Context) *requestSession {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(*requestSession); ok {
			return s
		}
	}
	return nil
}

// GetSessionBasketID returns the basket remembered for this visitor.
func GetSessionBasketID(c *gin.Context) *uint {
	s := getSession(c)
	if s == nil || s.data.BasketID == 0 {
		return nil
	}
	id := s.data.BasketID
	return &id
}

// SetSessionBasketID stores basketID, or forgets the basket when nil, and
// issues the cookie if the visitor had none.
func SetSessionBasketID(c *gin.Context, basketID *uint) error {
	s := getSession(c)
	if s == nil {
		return nil
	}

	var next uint
	if basketID != nil {
		next = *basketID
	}
	if s.token != "" && s.data.BasketID == next {
		return nil
	}
	if s.token == "" {
		if next == 0 {
			return nil
		}
		s.token = session.NewToken()
	}

	s.data.BasketID = next
	if err := s.m.store.Save(c.Request.Context(), s.token, &s.data); err != nil {
		return err
	}
	c.SetCookie(s.m.cookieName, s.token, int(s.m.ttl.Seconds()), "/", "", s.m.secure, true)
	return nil
}
