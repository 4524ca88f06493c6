package middleware

import (
	"strings"

	"catasto_app_go/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	ContextKeyActor = "actor_context"

	HeaderUserID    = "X-User-ID"
	HeaderSessionID = "X-Session-ID"
)

// ActorContext extracts the acting user and session for audit stamping.
// Requests without a session header get a fresh session id, echoed back
// in the response so the client can reuse it.
func ActorContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			sessionID := strings.TrimSpace(req.Header.Get(HeaderSessionID))
			if sessionID == "" {
				sessionID = uuid.New().String()
			}
			c.Response().Header().Set(HeaderSessionID, sessionID)

			c.Set(ContextKeyActor, services.ActorContext{
				UserID:    strings.TrimSpace(req.Header.Get(HeaderUserID)),
				SessionID: sessionID,
				ClientIP:  c.RealIP(),
			})
			return next(c)
		}
	}
}

// GetActorContext retrieves the actor of the request
func GetActorContext(c echo.Context) services.ActorContext {
	if actor, ok := c.Get(ContextKeyActor).(services.ActorContext); ok {
		return actor
	}
	return services.ActorContext{ClientIP: c.RealIP()}
}
