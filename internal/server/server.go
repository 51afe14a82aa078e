// Package server assembles the HTTP surface.
package server

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/wichananm65/fitness-shop-backend/internal/apperr"
	"github.com/wichananm65/fitness-shop-backend/internal/auth"
	"github.com/wichananm65/fitness-shop-backend/internal/category"
	"github.com/wichananm65/fitness-shop-backend/internal/content"
	"github.com/wichananm65/fitness-shop-backend/internal/logging"
	"github.com/wichananm65/fitness-shop-backend/internal/order"
	"github.com/wichananm65/fitness-shop-backend/internal/product"
	"github.com/wichananm65/fitness-shop-backend/internal/recommended"
	"go.uber.org/zap"
)

// Deps are the services the routes delegate to.
type Deps struct {
	Log         *zap.Logger
	CORSOrigins []string
	JWTSecret   string

	Products    *product.Service
	Orders      *order.Service
	Content     *content.Service
	Recommender *recommended.Engine
	Verifier    auth.Verifier
}

// New builds the fiber app. Public routes are registered before the auth
// middleware; everything after it requires a verified session.
func New(d Deps) *fiber.App {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:      "fitness-shop-backend",
		ErrorHandler: apperr.Handler(log),
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logging.Middleware(log))
	setupCORS(app, d.CORSOrigins)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// categories before products so /products/categories is not taken as an id
	category.NewHandler().RegisterPublicRoutes(app)
	productHandler := product.NewHandler(d.Products)
	productHandler.RegisterPublicRoutes(app)
	content.NewHandler(d.Content).RegisterPublicRoutes(app)
	recommended.NewHandler(d.Recommender).RegisterPublicRoutes(app)

	app.Use(auth.Middleware(d.Verifier, d.JWTSecret, log))

	productHandler.RegisterProtectedRoutes(app)
	order.NewHandler(d.Orders).RegisterProtectedRoutes(app)
	return app
}

func setupCORS(app *fiber.App, origins []string) {
	allow := strings.Join(origins, ",")
	if allow == "" {
		allow = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allow,
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, " + auth.XSRFHeader,
		AllowCredentials: allow != "*",
	}))
}
