package recommended

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/fitness-shop-backend/internal/apperr"
	"github.com/wichananm65/fitness-shop-backend/internal/category"
	"github.com/wichananm65/fitness-shop-backend/internal/product"
)

type fakeModel struct {
	slugs []string
	err   error
	calls int
	limit int
	pool  []product.Summary
}

func (f *fakeModel) RecommendSlugs(_ context.Context, _ product.Summary, candidates []product.Summary, limit int) ([]string, error) {
	f.calls++
	f.limit = limit
	f.pool = candidates
	return f.slugs, f.err
}

func item(id, slug, cat string, stock int, active bool) product.Product {
	return product.Product{
		ID:        id,
		Name:      "Product " + slug,
		Slug:      slug,
		Price:     decimal.NewFromInt(10),
		Category:  cat,
		Stock:     stock,
		Active:    active,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// catalog: anchor "pre" is Pre-entreno with two same-category products and
// three others, plus an inactive and an out-of-stock Pre-entreno product.
func newCatalog() *product.InMemoryRepository {
	return product.NewInMemoryRepository([]product.Product{
		item("1", "pre", category.PreWorkout, 5, true),
		item("2", "whey", category.Protein, 5, true),
		item("3", "pump", category.PreWorkout, 5, true),
		item("4", "off", category.PreWorkout, 5, false),
		item("5", "empty", category.PreWorkout, 0, true),
		item("6", "bar", category.Snacks, 5, true),
		item("7", "blast", category.PreWorkout, 5, true),
		item("8", "omega", category.Wellness, 5, true),
	})
}

func slugsOf(items []product.Summary) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Slug)
	}
	return out
}

func intPtr(v int) *int { return &v }

func TestRecommend_FallbackOnProviderFailure(t *testing.T) {
	model := &fakeModel{err: errors.New("provider exhausted")}
	e := NewEngine(newCatalog(), model, nil)

	got, err := e.Recommend(context.Background(), Request{Slug: "pre"})
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"pump", "blast"}, slugsOf(got)); diff != "" {
		t.Errorf("fallback mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, DefaultLimit, model.limit)
}

func TestRecommend_FallbackOnEmptyReply(t *testing.T) {
	e := NewEngine(newCatalog(), &fakeModel{slugs: []string{}}, nil)

	got, err := e.Recommend(context.Background(), Request{Slug: "pre"})
	require.NoError(t, err)
	assert.Equal(t, []string{"pump", "blast"}, slugsOf(got))
}

func TestRecommend_GroundsModelSlugs(t *testing.T) {
	model := &fakeModel{slugs: []string{"bar", "whey", "whey", "z-nonexistent"}}
	e := NewEngine(newCatalog(), model, nil)

	got, err := e.Recommend(context.Background(), Request{Slug: "pre", Limit: intPtr(4)})
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"bar", "whey"}, slugsOf(got)); diff != "" {
		t.Errorf("grounded result mismatch (-want +got):\n%s", diff)
	}
}

func TestRecommend_OnlyUnknownSlugsFallsBack(t *testing.T) {
	e := NewEngine(newCatalog(), &fakeModel{slugs: []string{"ghost", "pre", "off"}}, nil)

	got, err := e.Recommend(context.Background(), Request{Slug: "pre"})
	require.NoError(t, err)
	assert.Equal(t, []string{"pump", "blast"}, slugsOf(got))
}

func TestRecommend_ExcludesAnchorAndUnavailable(t *testing.T) {
	model := &fakeModel{slugs: []string{"pre", "off", "empty", "omega"}}
	e := NewEngine(newCatalog(), model, nil)

	got, err := e.Recommend(context.Background(), Request{ProductID: "1", Limit: intPtr(10)})
	require.NoError(t, err)
	assert.Equal(t, []string{"omega"}, slugsOf(got))

	for _, c := range model.pool {
		assert.NotContains(t, []string{"pre", "off", "empty"}, c.Slug)
	}
}

func TestRecommend_Idempotent(t *testing.T) {
	e := NewEngine(newCatalog(), &fakeModel{err: errors.New("down")}, nil)

	first, err := e.Recommend(context.Background(), Request{Slug: "pre"})
	require.NoError(t, err)
	second, err := e.Recommend(context.Background(), Request{Slug: "pre"})
	require.NoError(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated calls differ (-first +second):\n%s", diff)
	}
}

func TestRecommend_LimitZeroSkipsModel(t *testing.T) {
	model := &fakeModel{slugs: []string{"whey"}}
	e := NewEngine(newCatalog(), model, nil)

	got, err := e.Recommend(context.Background(), Request{Slug: "pre", Limit: intPtr(0)})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Zero(t, model.calls)
}

func TestRecommend_LimitBounds(t *testing.T) {
	model := &fakeModel{slugs: []string{"whey", "bar", "pump"}}
	e := NewEngine(newCatalog(), model, nil)

	got, err := e.Recommend(context.Background(), Request{Slug: "pre", Limit: intPtr(2)})
	require.NoError(t, err)
	assert.Equal(t, []string{"whey", "bar"}, slugsOf(got))

	_, err = e.Recommend(context.Background(), Request{Slug: "pre", Limit: intPtr(500)})
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, model.limit)

	_, err = e.Recommend(context.Background(), Request{Slug: "pre", Limit: intPtr(-1)})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestRecommend_EmptyPool(t *testing.T) {
	repo := product.NewInMemoryRepository([]product.Product{
		item("1", "pre", category.PreWorkout, 5, true),
		item("2", "gone", category.PreWorkout, 0, true),
	})
	model := &fakeModel{slugs: []string{"gone"}}

	got, err := NewEngine(repo, model, nil).Recommend(context.Background(), Request{Slug: "pre"})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, model.calls)
}

func TestRecommend_AnchorResolution(t *testing.T) {
	e := NewEngine(newCatalog(), &fakeModel{err: errors.New("down")}, nil)

	got, err := e.Recommend(context.Background(), Request{ProductID: "missing", Slug: "pre"})
	require.NoError(t, err)
	assert.Equal(t, []string{"pump", "blast"}, slugsOf(got))

	got, err = e.Recommend(context.Background(), Request{ProductName: "Product whey"})
	require.NoError(t, err)
	assert.Empty(t, got, "no other protein products are available")

	_, err = e.Recommend(context.Background(), Request{Slug: "nope"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = e.Recommend(context.Background(), Request{})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

// staleCatalog drops a product between candidate retrieval and the re-read.
type staleCatalog struct {
	*product.InMemoryRepository
	gone string
}

func (s staleCatalog) ListBySlugs(ctx context.Context, slugs []string) ([]product.Product, error) {
	items, err := s.InMemoryRepository.ListBySlugs(ctx, slugs)
	out := items[:0]
	for _, p := range items {
		if p.Slug != s.gone {
			out = append(out, p)
		}
	}
	return out, err
}

func TestRecommend_DropsSlugsDeletedBeforeReread(t *testing.T) {
	cat := staleCatalog{InMemoryRepository: newCatalog(), gone: "whey"}
	e := NewEngine(cat, &fakeModel{slugs: []string{"whey", "bar"}}, nil)

	got, err := e.Recommend(context.Background(), Request{Slug: "pre"})
	require.NoError(t, err)
	assert.Equal(t, []string{"bar"}, slugsOf(got))
}
