package web

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"jobmate/salary-service/internal/session"
	"jobmate/salary-service/internal/view"
)

const ctxSessionID = "session_id"

// withSession resolves the visitor's session from the signed cookie,
// starting a new one when the cookie is missing or invalid. A valid token
// past half its lifetime is re-issued, so active visitors keep their page.
func (h *Handler) withSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok, err := c.Cookie(session.CookieName); err == nil {
			claims, err := h.tokens.Verify(tok)
			if err == nil {
				if h.tokens.Stale(claims) {
					if err := h.setSessionCookie(c, claims.SessionID); err != nil {
						slog.Warn("refresh session token", "err", err)
					}
				}
				c.Set(ctxSessionID, claims.SessionID)
				c.Next()
				return
			}
			slog.Debug("session cookie rejected", "err", err)
		}

		id := session.NewID()
		if err := h.setSessionCookie(c, id); err != nil {
			slog.Error("issue session token", "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session unavailable"})
			return
		}
		c.Set(ctxSessionID, id)
		c.Next()
	}
}

func (h *Handler) setSessionCookie(c *gin.Context, id string) error {
	tok, err := h.tokens.Issue(id)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, tok, int(h.tokens.TTL().Seconds()), "/", "", c.Request.TLS != nil, true)
	return nil
}

// controller returns the session ID and view controller of the request.
func (h *Handler) controller(c *gin.Context) (string, *view.Controller) {
	id := c.GetString(ctxSessionID)
	return id, h.sessions.Get(c.Request.Context(), id)
}
