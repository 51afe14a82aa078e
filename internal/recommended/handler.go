package recommended

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/fitness-shop-backend/internal/apperr"
)

type Handler struct {
	engine *Engine
}

func NewHandler(e *Engine) *Handler {
	return &Handler{engine: e}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/ai/recommendations", h.getRecommendations)
}

func (h *Handler) getRecommendations(c *fiber.Ctx) error {
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid payload", map[string]string{"body": err.Error()})
	}
	items, err := h.engine.Recommend(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"recommendations": items})
}
