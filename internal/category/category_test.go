package category

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestComplements(t *testing.T) {
	got := Complements(PreWorkout)
	want := []string{IntraWorkout, Snacks, Wellness}
	if len(got) != len(want) {
		t.Fatalf("expected %v got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v got %v", want, got)
		}
	}

	if w := Complements(Wellness); len(w) != len(all)-1 {
		t.Fatalf("wellness should complement every other category, got %v", w)
	}
	if p := Complements(Protein); len(p) != 1 || p[0] != Wellness {
		t.Fatalf("protein complements only wellness, got %v", p)
	}
	if u := Complements("Unknown"); len(u) != 0 {
		t.Fatalf("unknown category should have no complements, got %v", u)
	}
}

func TestValid(t *testing.T) {
	if !Valid("Pre-entreno") {
		t.Fatalf("Pre-entreno should be valid")
	}
	if Valid("pre-entreno") {
		t.Fatalf("category names are case sensitive")
	}
}

func TestGetCategories(t *testing.T) {
	app := fiber.New()
	NewHandler().RegisterPublicRoutes(app)

	res, err := app.Test(httptest.NewRequest("GET", "/products/categories", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 got %d", res.StatusCode)
	}
	var items []Item
	if err := json.NewDecoder(res.Body).Decode(&items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != len(all) {
		t.Fatalf("expected %d categories got %d", len(all), len(items))
	}
}
