package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/fitness-shop-backend/internal/apperr"
)

type fakeVerifier struct {
	principal Principal
	err       error
	gotXSRF   string
	calls     int
}

func (f *fakeVerifier) Verify(_ context.Context, _, xsrf string) (Principal, error) {
	f.calls++
	f.gotXSRF = xsrf
	return f.principal, f.err
}

func newApp(mw fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apperr.Handler(nil)})
	app.Use(mw)
	app.Get("/me", func(c *fiber.Ctx) error {
		p, ok := PrincipalFromCtx(c)
		if !ok {
			return c.SendStatus(fiber.StatusTeapot)
		}
		return c.SendString(p.ID)
	})
	return app
}

func request(t *testing.T, app *fiber.App, cookies map[string]string, headers map[string]string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("GET", "/me", nil)
	for k, v := range cookies {
		req.AddCookie(&http.Cookie{Name: k, Value: v})
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := app.Test(req, -1)
	require.NoError(t, err)
	b, _ := io.ReadAll(res.Body)
	return res.StatusCode, string(b)
}

func TestMiddleware_MissingSession(t *testing.T) {
	v := &fakeVerifier{principal: Principal{ID: "u1"}}
	app := newApp(Middleware(v, "", nil))

	status, _ := request(t, app, nil, map[string]string{XSRFHeader: "x"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Zero(t, v.calls)
}

func TestMiddleware_MissingXSRF(t *testing.T) {
	v := &fakeVerifier{principal: Principal{ID: "u1"}}
	app := newApp(Middleware(v, "", nil))

	status, body := request(t, app, map[string]string{SessionCookie: "s"}, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Contains(t, body, "XSRF")
	assert.Zero(t, v.calls)
}

func TestMiddleware_HeaderXSRFWins(t *testing.T) {
	v := &fakeVerifier{principal: Principal{ID: "u1"}}
	app := newApp(Middleware(v, "", nil))

	status, body := request(t, app,
		map[string]string{SessionCookie: "s", XSRFCookie: "from-cookie"},
		map[string]string{XSRFHeader: "from-header"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "u1", body)
	assert.Equal(t, "from-header", v.gotXSRF)

	_, _ = request(t, app, map[string]string{SessionCookie: "s", XSRFCookie: "from-cookie"}, nil)
	assert.Equal(t, "from-cookie", v.gotXSRF)
}

func TestMiddleware_GatewayFailureIsUniform401(t *testing.T) {
	v := &fakeVerifier{err: errors.New("dial tcp: connection refused")}
	app := newApp(Middleware(v, "", nil))

	status, body := request(t, app, map[string]string{SessionCookie: "s"}, map[string]string{XSRFHeader: "x"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.NotContains(t, body, "connection refused")
}

func TestMiddleware_LocalJWTCheck(t *testing.T) {
	const secret = "test-secret"
	v := &fakeVerifier{principal: Principal{ID: "u1"}}
	app := newApp(Middleware(v, secret, nil))

	exp := time.Now().Add(time.Hour).Unix()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1", "exp": exp}).SignedString([]byte(secret))
	require.NoError(t, err)

	status, body := request(t, app, map[string]string{SessionCookie: signed}, map[string]string{XSRFHeader: "x"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "u1", body)
	assert.Equal(t, 1, v.calls)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1", "exp": exp}).SignedString([]byte("other"))
	require.NoError(t, err)
	status, _ = request(t, app, map[string]string{SessionCookie: forged}, map[string]string{XSRFHeader: "x"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, 1, v.calls, "forged token must not reach the security api")
}
