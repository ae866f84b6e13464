package middleware

import (
	"context"
	"net/http"

	"beta-signup/internal/domain"
	"beta-signup/pkg/i18n"
	"beta-signup/pkg/logger"
	"beta-signup/pkg/session"

	"github.com/gin-gonic/gin"
)

const (
	SessionCookieName = "beta_session"
	// SessionIDKey is the gin key mirroring domain.KeySessionID.
	SessionIDKey = "SessionID"
)

type SessionConfig struct {
	Manager         *session.Manager
	Secure          bool
	DefaultLanguage i18n.Language
}

// SessionMiddleware makes sure every request belongs to a form session. A
// missing, tampered or expired cookie starts a new session; the cookie is
// re-signed once half of its lifetime has passed.
func SessionMiddleware(cfg SessionConfig) gin.HandlerFunc {
	maxAge := int(cfg.Manager.TTL().Seconds())

	return func(c *gin.Context) {
		var (
			sessionID string
			token     string
		)

		if raw, err := c.Cookie(SessionCookieName); err == nil && raw != "" {
			claims, err := cfg.Manager.Parse(raw)
			if err == nil {
				sessionID = claims.ID
				if cfg.Manager.NeedsRefresh(claims) {
					token, _ = cfg.Manager.Sign(sessionID)
				}
			}
		}

		if sessionID == "" {
			var err error
			token, sessionID, err = cfg.Manager.Issue()
			if err != nil {
				logger.Log.Errorw("failed to issue session", "error", err)
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
		}

		if token != "" {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookieName, token, maxAge, "/", "", cfg.Secure, true)
		}

		lang := i18n.Match(c.GetHeader("Accept-Language"), cfg.DefaultLanguage)

		ctx := context.WithValue(c.Request.Context(), domain.KeySessionID, sessionID)
		ctx = context.WithValue(ctx, domain.KeyPreferredLanguage, lang)
		c.Request = c.Request.WithContext(ctx)
		c.Set(SessionIDKey, sessionID)

		c.Next()
	}
}
