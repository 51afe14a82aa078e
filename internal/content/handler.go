package content

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/fitness-shop-backend/internal/apperr"
)

const defaultNames = 5

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	ai := app.Group("/ai")
	ai.Post("/description", h.generateDescription)
	ai.Post("/generate-description", h.generateDescription)
	ai.Post("/validate", h.validateDescription)
	ai.Post("/validate-description", h.validateDescription)
	ai.Post("/recommendations/names", h.recommendNames)
}

// descriptionRequest also accepts the Spanish field names used by older
// clients.
type descriptionRequest struct {
	Name      string `json:"name"`
	Category  string `json:"category"`
	Nombre    string `json:"nombre"`
	Categoria string `json:"categoria"`
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func (h *Handler) generateDescription(c *fiber.Ctx) error {
	var req descriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid payload", map[string]string{"body": err.Error()})
	}
	name := firstNonEmpty(req.Name, req.Nombre)
	if name == "" {
		return apperr.Validation("invalid payload", map[string]string{"name": "name is required"})
	}

	text, err := h.service.GenerateDescription(c.UserContext(), name, firstNonEmpty(req.Category, req.Categoria))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"description": text})
}

func (h *Handler) validateDescription(c *fiber.Ctx) error {
	var req struct {
		Description string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid payload", map[string]string{"body": err.Error()})
	}

	v, err := h.service.ValidateDescription(c.UserContext(), req.Description)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"corrected": v})
}

func (h *Handler) recommendNames(c *fiber.Ctx) error {
	var req struct {
		ProductName string `json:"productName"`
		Limit       *int   `json:"limit"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid payload", map[string]string{"body": err.Error()})
	}
	errs := map[string]string{}
	if strings.TrimSpace(req.ProductName) == "" {
		errs["productName"] = "productName is required"
	}
	limit := defaultNames
	if req.Limit != nil {
		limit = *req.Limit
		if limit < 0 {
			errs["limit"] = "limit must be >= 0"
		}
	}
	if len(errs) > 0 {
		return apperr.Validation("invalid payload", errs)
	}

	names, err := h.service.RecommendNames(c.UserContext(), strings.TrimSpace(req.ProductName), limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"names": names})
}
