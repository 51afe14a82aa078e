package category

import (
	"github.com/gofiber/fiber/v2"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// RegisterPublicRoutes must run before the product routes so the literal
// path wins over /products/:id.
func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/products/categories", h.getCategories)
}

func (h *Handler) getCategories(c *fiber.Ctx) error {
	return c.JSON(Items())
}
