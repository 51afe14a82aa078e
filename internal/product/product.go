package product

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/fitness-shop-backend/internal/category"
)

// Product is a catalog entry. JSON tags follow the camelCase convention used
// across the API.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Available reports whether the product can be offered to a shopper.
func (p Product) Available() bool {
	return p.Active && p.Stock > 0
}

// Summary is the projection used by the recommendation flow.
type Summary struct {
	ID          string          `json:"id"`
	Slug        string          `json:"slug"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description,omitempty"`
	Image       string          `json:"image,omitempty"`
	Stock       int             `json:"stock"`
}

// MaxSummaryDescription bounds descriptions sent to the model.
const MaxSummaryDescription = 300

// Summarize projects p, cutting the description to MaxSummaryDescription runes.
func (p Product) Summarize() Summary {
	return Summary{
		ID:          p.ID,
		Slug:        p.Slug,
		Name:        p.Name,
		Category:    p.Category,
		Price:       p.Price,
		Description: truncate(p.Description, MaxSummaryDescription),
		Image:       p.Image,
		Stock:       p.Stock,
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// Sort orders accepted by List.
const (
	SortNew       = "new"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
)

// ListQuery filters and paginates the catalog.
type ListQuery struct {
	Page            int
	Limit           int
	Q               string
	Category        string
	Sort            string
	IncludeInactive bool
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Page is a slice of the catalog plus paging metadata.
type Page struct {
	Items []Product `json:"items"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
	Total int       `json:"total"`
	Pages int       `json:"pages"`
}

// CreateInput is the payload accepted when adding a product.
type CreateInput struct {
	Name        string          `json:"name" yaml:"name"`
	Slug        string          `json:"slug,omitempty" yaml:"slug"`
	Price       decimal.Decimal `json:"price" yaml:"price"`
	Description string          `json:"description,omitempty" yaml:"description"`
	Image       string          `json:"image" yaml:"image"`
	Category    string          `json:"category" yaml:"category"`
	Stock       *int            `json:"stock,omitempty" yaml:"stock"`
	Active      *bool           `json:"active,omitempty" yaml:"active"`
}

// UpdateInput carries the fields a client may change. Nil fields are left as
// they are; the slug is never updated.
type UpdateInput struct {
	Name        *string          `json:"name,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Description *string          `json:"description,omitempty"`
	Image       *string          `json:"image,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
	Active      *bool            `json:"active,omitempty"`
}

// PriceScale is the number of decimal places a price is stored with.
const PriceScale = 2

// Apply returns p with the non-nil fields of in.
func (in UpdateInput) Apply(p Product) Product {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Price != nil {
		p.Price = in.Price.Round(PriceScale)
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Image != nil {
		p.Image = strings.TrimSpace(*in.Image)
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.Active != nil {
		p.Active = *in.Active
	}
	return p
}

var (
	absoluteImage = regexp.MustCompile(`(?i)^https?://\S+$`)
	relativeImage = regexp.MustCompile(`^/\S+$`)
)

func validImage(s string) bool {
	return absoluteImage.MatchString(s) || relativeImage.MatchString(s)
}

// ValidateCreate returns every problem with in, keyed by JSON field name.
func ValidateCreate(in CreateInput) map[string]string {
	errs := map[string]string{}
	if utf8.RuneCountInString(strings.TrimSpace(in.Name)) < 2 {
		errs["name"] = "name must have at least 2 characters"
	}
	if in.Price.IsNegative() {
		errs["price"] = "price must be >= 0"
	}
	if !validImage(in.Image) {
		errs["image"] = "image must be an http(s) URL or a path starting with /"
	}
	if !category.Valid(in.Category) {
		errs["category"] = "invalid category"
	}
	if in.Stock != nil && *in.Stock < 0 {
		errs["stock"] = "stock must be >= 0"
	}
	if in.Slug != "" && Slugify(in.Slug) != in.Slug {
		errs["slug"] = "slug may only contain a-z, 0-9 and single hyphens"
	}
	return errs
}

// ValidateUpdate checks the fields present in in.
func ValidateUpdate(in UpdateInput) map[string]string {
	errs := map[string]string{}
	if in.Name != nil && utf8.RuneCountInString(strings.TrimSpace(*in.Name)) < 2 {
		errs["name"] = "name must have at least 2 characters"
	}
	if in.Price != nil && in.Price.IsNegative() {
		errs["price"] = "price must be >= 0"
	}
	if in.Image != nil && !validImage(strings.TrimSpace(*in.Image)) {
		errs["image"] = "image must be an http(s) URL or a path starting with /"
	}
	if in.Category != nil && !category.Valid(*in.Category) {
		errs["category"] = "invalid category"
	}
	if in.Stock != nil && *in.Stock < 0 {
		errs["stock"] = "stock must be >= 0"
	}
	return errs
}
