package product

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/fitness-shop-backend/internal/apperr"
)

const (
	defaultPageLimit = 12
	maxPageLimit     = 100
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/products", h.getProducts)
	app.Get("/products/slug/:slug", h.getProductBySlug)
	app.Get("/products/:id", h.getProduct)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/products", h.createProduct)
	app.Put("/products/:id", h.updateProduct)
	app.Delete("/products/:id", h.deleteProduct)
}

func parseListQuery(c *fiber.Ctx) (ListQuery, map[string]string) {
	q := ListQuery{
		Page:     1,
		Limit:    defaultPageLimit,
		Q:        c.Query("q"),
		Category: c.Query("category"),
		Sort:     SortNew,
	}
	errs := map[string]string{}

	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			errs["page"] = "page must be an integer >= 1"
		} else {
			q.Page = n
		}
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxPageLimit {
			errs["limit"] = "limit must be an integer between 1 and 100"
		} else {
			q.Limit = n
		}
	}
	if v := c.Query("sort"); v != "" {
		switch v {
		case SortNew, SortPriceAsc, SortPriceDesc:
			q.Sort = v
		default:
			errs["sort"] = "sort must be one of new, price_asc, price_desc"
		}
	}
	if v := c.Query("includeInactive"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs["includeInactive"] = "includeInactive must be a boolean"
		} else {
			q.IncludeInactive = b
		}
	}
	return q, errs
}

func (h *Handler) getProducts(c *fiber.Ctx) error {
	q, errs := parseListQuery(c)
	if len(errs) > 0 {
		return apperr.Validation("invalid query", errs)
	}
	page, err := h.service.List(c.UserContext(), q)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *Handler) getProduct(c *fiber.Ctx) error {
	p, err := h.service.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(p)
}

func (h *Handler) getProductBySlug(c *fiber.Ctx) error {
	p, err := h.service.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return err
	}
	return c.JSON(p)
}

func (h *Handler) createProduct(c *fiber.Ctx) error {
	in := new(CreateInput)
	if err := c.BodyParser(in); err != nil {
		return apperr.Validation("invalid payload", map[string]string{"body": err.Error()})
	}

	created, err := h.service.Create(c.UserContext(), *in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handler) updateProduct(c *fiber.Ctx) error {
	in := new(UpdateInput)
	if err := c.BodyParser(in); err != nil {
		return apperr.Validation("invalid payload", map[string]string{"body": err.Error()})
	}

	updated, err := h.service.Update(c.UserContext(), c.Params("id"), *in)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

func (h *Handler) deleteProduct(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "success", "message": "product deleted"})
}
