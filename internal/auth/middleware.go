package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/wichananm65/fitness-shop-backend/internal/apperr"
	"go.uber.org/zap"
)

const (
	SessionCookie = "token"
	XSRFHeader    = "X-XSRF-TOKEN"
	XSRFCookie    = "XSRF-TOKEN"
)

// Middleware rejects requests without a session the security API accepts and
// stores the resulting principal on the request. When jwtSecret is set the
// session token is first checked locally.
func Middleware(v Verifier, jwtSecret string, log *zap.Logger) fiber.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	gate := gatewayHandler(v, log)
	if jwtSecret == "" {
		return gate
	}
	return jwtware.New(jwtware.Config{
		SigningKey:     []byte(jwtSecret),
		SigningMethod:  "HS256",
		TokenLookup:    "cookie:" + SessionCookie,
		ContextKey:     sessionKey,
		SuccessHandler: gate,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Warn("session token rejected", zap.String("path", c.Path()), zap.Error(err))
			return apperr.Unauthorized("unauthorized", err)
		},
	})
}

func gatewayHandler(v Verifier, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := c.Cookies(SessionCookie)
		if session == "" {
			log.Warn("unauthorized: no session token", zap.String("path", c.Path()))
			return apperr.Unauthorized("unauthorized", nil)
		}
		xsrf := c.Get(XSRFHeader)
		if xsrf == "" {
			xsrf = c.Cookies(XSRFCookie)
		}
		if xsrf == "" {
			return apperr.Unauthorized("missing XSRF token", nil)
		}

		p, err := v.Verify(c.UserContext(), session, xsrf)
		if err != nil {
			log.Error("auth error", zap.String("path", c.Path()), zap.Error(err))
			return apperr.Unauthorized("unauthorized", err)
		}
		if tok, ok := c.Locals(sessionKey).(*jwt.Token); ok {
			if claims, ok := tok.Claims.(jwt.MapClaims); ok {
				if exp, ok := claims["exp"].(float64); ok {
					p.SessionExpiresAt = time.Unix(int64(exp), 0).UTC()
				}
			}
		}

		SetPrincipal(c, p)
		log.Debug("auth ok", zap.String("user", p.ID))
		return c.Next()
	}
}
