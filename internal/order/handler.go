package order

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/fitness-shop-backend/internal/apperr"
	"github.com/wichananm65/fitness-shop-backend/internal/auth"
)

// Handler delegates order operations to the order service. All routes need
// the principal set by the auth middleware.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/orders", h.createOrder)
	app.Get("/orders", h.getOrders)
	app.Get("/orders/:id", h.getOrder)
	app.Put("/orders/:id", h.updateOrder)
	app.Delete("/orders/:id", h.deleteOrder)
}

func userID(c *fiber.Ctx) (string, error) {
	p, ok := auth.PrincipalFromCtx(c)
	if !ok {
		return "", apperr.Unauthorized("unauthorized", nil)
	}
	return p.ID, nil
}

func (h *Handler) createOrder(c *fiber.Ctx) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	payload := new(CreateInput)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Validation("invalid payload", map[string]string{"body": err.Error()})
	}

	created, err := h.service.Create(c.UserContext(), uid, *payload)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// getOrders returns all orders belonging to the currently authenticated user.
func (h *Handler) getOrders(c *fiber.Ctx) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	orders, err := h.service.List(c.UserContext(), uid)
	if err != nil {
		return err
	}
	return c.JSON(orders)
}

func (h *Handler) getOrder(c *fiber.Ctx) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	ord, err := h.service.Get(c.UserContext(), uid, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(ord)
}

func (h *Handler) updateOrder(c *fiber.Ctx) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	payload := new(UpdateInput)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Validation("invalid payload", map[string]string{"body": err.Error()})
	}

	updated, err := h.service.Update(c.UserContext(), uid, c.Params("id"), *payload)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

func (h *Handler) deleteOrder(c *fiber.Ctx) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), uid, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "success", "message": "order deleted"})
}
