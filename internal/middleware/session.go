// Package middleware provides gin middleware for session resolution and
// admin API-key authentication.
package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tubefeed/video-recommender-go/internal/session"
)

// Context keys set by the session middleware.
const (
	// ContextSession holds the *session.Session when one resolved.
	ContextSession = "session"
)

// SessionResolver resolves the session cookie into a session record and
// attaches it to the request context. It does not reject anonymous
// requests; the verification gate downstream decides what an absent
// identity means per endpoint.
type SessionResolver struct {
	sessions   *session.Store
	cookieName string
	log        *zap.Logger
}

// NewSessionResolver creates the session middleware.
func NewSessionResolver(sessions *session.Store, cookieName string, log *zap.Logger) *SessionResolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionResolver{sessions: sessions, cookieName: cookieName, log: log}
}

// Middleware returns the gin handler.
func (r *SessionResolver) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(r.cookieName)
		if err != nil || sessionID == "" {
			c.Next()
			return
		}

		sess, err := r.sessions.Get(c.Request.Context(), sessionID)
		if err != nil {
			r.log.Warn("session lookup failed", zap.Error(err))
			c.Next()
			return
		}
		if sess != nil {
			c.Set(ContextSession, sess)
		}
		c.Next()
	}
}

// SessionFrom extracts the resolved session from the gin context, or nil
// when the request is anonymous.
func SessionFrom(c *gin.Context) *session.Session {
	v, ok := c.Get(ContextSession)
	if !ok {
		return nil
	}
	sess, ok := v.(*session.Session)
	if !ok {
		return nil
	}
	return sess
}
