package product

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/wichananm65/fitness-shop-backend/internal/apperr"
	"github.com/wichananm65/fitness-shop-backend/internal/category"
)

// prices render as JSON numbers, as in the commands
func TestMain(m *testing.M) {
	decimal.MarshalJSONWithoutQuotes = true
	os.Exit(m.Run())
}

type stubDescriber struct {
	text  string
	err   error
	calls int
}

func (s *stubDescriber) GenerateDescription(_ context.Context, _, _ string) (string, error) {
	s.calls++
	return s.text, s.err
}

func seedProducts() []Product {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []Product{
		{ID: "p1", Name: "Whey Gold", Slug: "whey-gold", Price: decimal.RequireFromString("49.90"), Image: "/img/whey.png", Category: category.Protein, Stock: 10, Active: true, CreatedAt: base, UpdatedAt: base},
		{ID: "p2", Name: "Creatina Pura", Slug: "creatina-pura", Price: decimal.RequireFromString("19.90"), Image: "/img/crea.png", Category: category.AminoAcids, Stock: 5, Active: true, CreatedAt: base.Add(time.Hour), UpdatedAt: base.Add(time.Hour)},
		{ID: "p3", Name: "Multivitamínico", Slug: "multivitaminico", Price: decimal.RequireFromString("9.50"), Image: "/img/multi.png", Category: category.Vitamins, Stock: 0, Active: false, CreatedAt: base.Add(2 * time.Hour), UpdatedAt: base.Add(2 * time.Hour)},
	}
}

func setupApp(describer Describer) (*fiber.App, *InMemoryRepository) {
	repo := NewInMemoryRepository(seedProducts())
	h := NewHandler(NewService(repo, describer, nil))
	app := fiber.New(fiber.Config{ErrorHandler: apperr.Handler(nil)})
	h.RegisterPublicRoutes(app)
	h.RegisterProtectedRoutes(app)
	return app, repo
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (int, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	out := new(bytes.Buffer)
	_, _ = out.ReadFrom(res.Body)
	return res.StatusCode, out.Bytes()
}

func TestGetProducts_DefaultsToActiveNewestFirst(t *testing.T) {
	app, _ := setupApp(nil)

	status, body := doJSON(t, app, "GET", "/products", nil)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200 got %d: %s", status, body)
	}
	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 2 || page.Pages != 1 || page.Page != 1 || page.Limit != 12 {
		t.Fatalf("unexpected paging %+v", page)
	}
	if len(page.Items) != 2 || page.Items[0].ID != "p2" || page.Items[1].ID != "p1" {
		t.Fatalf("unexpected items %+v", page.Items)
	}
}

func TestGetProducts_SortAndFilters(t *testing.T) {
	app, _ := setupApp(nil)

	_, body := doJSON(t, app, "GET", "/products?sort=price_asc&includeInactive=true", nil)
	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Items) != 3 || page.Items[0].ID != "p3" || page.Items[2].ID != "p1" {
		t.Fatalf("unexpected price order %+v", page.Items)
	}

	_, body = doJSON(t, app, "GET", "/products?q=WHEY", nil)
	page = Page{}
	if err := json.Unmarshal(body, &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 1 || page.Items[0].Slug != "whey-gold" {
		t.Fatalf("expected case-insensitive name match, got %+v", page)
	}

	_, body = doJSON(t, app, "GET", "/products?limit=1&page=2", nil)
	page = Page{}
	if err := json.Unmarshal(body, &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Pages != 2 || len(page.Items) != 1 || page.Items[0].ID != "p1" {
		t.Fatalf("unexpected second page %+v", page)
	}
}

func TestGetProducts_InvalidQuery(t *testing.T) {
	app, _ := setupApp(nil)

	status, body := doJSON(t, app, "GET", "/products?limit=101&sort=cheap&page=0", nil)
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 got %d", status)
	}
	var res struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, field := range []string{"limit", "sort", "page"} {
		if _, ok := res.Errors[field]; !ok {
			t.Errorf("expected error for %s, got %v", field, res.Errors)
		}
	}
}

func TestGetProductBySlug(t *testing.T) {
	app, _ := setupApp(nil)

	status, body := doJSON(t, app, "GET", "/products/slug/whey-gold", nil)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200 got %d", status)
	}
	var p Product
	if err := json.Unmarshal(body, &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.ID != "p1" {
		t.Fatalf("expected p1 got %s", p.ID)
	}

	if status, _ := doJSON(t, app, "GET", "/products/slug/nope", nil); status != fiber.StatusNotFound {
		t.Fatalf("expected 404 got %d", status)
	}
	if status, _ := doJSON(t, app, "GET", "/products/missing", nil); status != fiber.StatusNotFound {
		t.Fatalf("expected 404 got %d", status)
	}
}

func TestCreateProduct_FallbackDescription(t *testing.T) {
	describer := &stubDescriber{err: errors.New("provider down")}
	app, repo := setupApp(describer)

	status, body := doJSON(t, app, "POST", "/products", map[string]any{
		"name":     "Proteína Whey 100%",
		"price":    39.5,
		"image":    "https://cdn.example.com/whey.png",
		"category": category.Protein,
	})
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", status, body)
	}
	var p Product
	if err := json.Unmarshal(body, &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Slug != "proteina-whey-100" {
		t.Errorf("unexpected slug %q", p.Slug)
	}
	if p.Description != "Suplemento Proteína Whey 100% de la categoría Proteína." {
		t.Errorf("unexpected description %q", p.Description)
	}
	if !p.Active || p.Stock != 0 {
		t.Errorf("expected active with zero stock, got active=%v stock=%d", p.Active, p.Stock)
	}
	if describer.calls != 1 {
		t.Errorf("expected one generation attempt, got %d", describer.calls)
	}
	if _, err := repo.GetBySlug(context.Background(), "proteina-whey-100"); err != nil {
		t.Errorf("product not persisted: %v", err)
	}
}

func TestCreateProduct_UsesGeneratedDescription(t *testing.T) {
	describer := &stubDescriber{text: "Energía limpia para tus entrenamientos."}
	app, _ := setupApp(describer)

	status, body := doJSON(t, app, "POST", "/products", map[string]any{
		"name":     "Pump Max",
		"price":    "25.00",
		"image":    "/img/pump.png",
		"category": category.PreWorkout,
		"stock":    3,
	})
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", status, body)
	}
	var p Product
	if err := json.Unmarshal(body, &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Description != describer.text || p.Stock != 3 {
		t.Fatalf("unexpected product %+v", p)
	}
}

func TestCreateProduct_Validation(t *testing.T) {
	describer := &stubDescriber{text: "x"}
	app, repo := setupApp(describer)

	status, body := doJSON(t, app, "POST", "/products", map[string]any{
		"name":     "A",
		"price":    -1,
		"image":    "ftp://nope",
		"category": "Juguetes",
	})
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 got %d", status)
	}
	var res struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, field := range []string{"name", "price", "image", "category"} {
		if _, ok := res.Errors[field]; !ok {
			t.Errorf("expected error for %s, got %v", field, res.Errors)
		}
	}
	if describer.calls != 0 {
		t.Errorf("invalid payload must not reach the model")
	}
	if n, _ := repo.Count(context.Background(), ListQuery{IncludeInactive: true}); n != 3 {
		t.Errorf("expected nothing persisted, got %d products", n)
	}
}

func TestCreateProduct_DuplicateSlug(t *testing.T) {
	app, _ := setupApp(&stubDescriber{text: "x"})

	status, _ := doJSON(t, app, "POST", "/products", map[string]any{
		"name":        "Whey Gold",
		"price":       10,
		"image":       "/img/w.png",
		"category":    category.Protein,
		"description": "otra",
	})
	if status != fiber.StatusConflict {
		t.Fatalf("expected 409 got %d", status)
	}
}

func TestUpdateProduct_KeepsSlug(t *testing.T) {
	app, _ := setupApp(nil)

	status, body := doJSON(t, app, "PUT", "/products/p1", map[string]any{
		"name":  "Whey Platinum",
		"stock": 0,
	})
	if status != fiber.StatusOK {
		t.Fatalf("expected 200 got %d: %s", status, body)
	}
	var p Product
	if err := json.Unmarshal(body, &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Name != "Whey Platinum" || p.Slug != "whey-gold" || p.Stock != 0 {
		t.Fatalf("unexpected product %+v", p)
	}
	if !p.Price.Equal(decimal.RequireFromString("49.90")) {
		t.Fatalf("price should be untouched, got %s", p.Price)
	}

	if status, _ := doJSON(t, app, "PUT", "/products/p1", map[string]any{"category": "Juguetes"}); status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 got %d", status)
	}
	if status, _ := doJSON(t, app, "PUT", "/products/nope", map[string]any{"stock": 1}); status != fiber.StatusNotFound {
		t.Fatalf("expected 404 got %d", status)
	}
}

func TestDeleteProduct(t *testing.T) {
	app, _ := setupApp(nil)

	if status, _ := doJSON(t, app, "DELETE", "/products/p2", nil); status != fiber.StatusOK {
		t.Fatalf("expected 200 got %d", status)
	}
	if status, _ := doJSON(t, app, "GET", "/products/p2", nil); status != fiber.StatusNotFound {
		t.Fatalf("expected 404 after delete got %d", status)
	}
	if status, _ := doJSON(t, app, "DELETE", "/products/p2", nil); status != fiber.StatusNotFound {
		t.Fatalf("expected 404 on second delete got %d", status)
	}
}

func TestGetProduct_PriceIsJSONNumber(t *testing.T) {
	app, _ := setupApp(nil)

	status, body := doJSON(t, app, "GET", "/products/p1", nil)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200 got %d: %s", status, body)
	}
	if !bytes.Contains(body, []byte(`"price":49.9`)) {
		t.Fatalf("expected a numeric price, got %s", body)
	}
}
