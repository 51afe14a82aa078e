package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Principal is the authenticated user as reported by the security API.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
	// SessionExpiresAt is set when the session token was verified locally.
	SessionExpiresAt time.Time `json:"-"`
}

const (
	principalKey = "principal"
	sessionKey   = "session"
)

// SetPrincipal stores p on the request.
func SetPrincipal(c *fiber.Ctx, p Principal) {
	c.Locals(principalKey, p)
}

// PrincipalFromCtx returns the principal stored by the middleware.
func PrincipalFromCtx(c *fiber.Ctx) (Principal, bool) {
	p, ok := c.Locals(principalKey).(Principal)
	if !ok || p.ID == "" {
		return Principal{}, false
	}
	return p, true
}
