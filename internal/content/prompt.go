package content

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wichananm65/fitness-shop-backend/internal/category"
	"github.com/wichananm65/fitness-shop-backend/internal/product"
)

func descriptionPrompt(language, name, cat string) string {
	return fmt.Sprintf(`Write a short, attractive description (60 to 100 words) for a fitness e-commerce product.
Name: %q. Category: %q.
Write in %s. Do not make medical or health claims.
Return ONLY the text, without quotes or markdown.`, name, cat, language)
}

const validateSystem = `You review product descriptions for a supplement shop.
Answer ONLY with a JSON object {"ok": boolean, "message": string, "corrected": string}.
Rules:
- 30 to 80 words
- no medical promises
- motivational tone
When a rule is broken set ok to false, explain in message and put a fixed version in corrected.`

func validatePrompt(language, text string) string {
	return fmt.Sprintf("Write message and corrected in %s.\nText: \"\"\"%s\"\"\"", language, text)
}

func namesPrompt(language, name string, limit int) string {
	return fmt.Sprintf(`Suggest up to %d generic supplement product names that a customer buying %q would also like.
Write the names in %s.
Answer ONLY with a JSON object {"names": ["name1", "name2", ...]}.`, limit, name, language)
}

// complementRule renders the category pairs the model should prefer after
// the anchor's own category.
func complementRule() string {
	return fmt.Sprintf("%s <-> %s <-> %s; %s may complement every category",
		category.PreWorkout, category.IntraWorkout, category.Snacks, category.Wellness)
}

func slugsSystem(limit int) string {
	return strings.Join([]string{
		"You are the recommender of a supplement e-commerce shop.",
		fmt.Sprintf(`Answer ONLY with a JSON object {"slugs": ["slug1", "slug2", ...]} with at most %d slugs.`, limit),
		"Criteria:",
		"1) Prefer products in the same category as the current product.",
		"2) Then complementary categories (" + complementRule() + ").",
		"3) Never repeat the current product. Never invent slugs: use only slugs from the catalog.",
	}, "\n")
}

type promptProduct struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Price       string `json:"price"`
}

type slugsPayload struct {
	Current promptProduct   `json:"current"`
	Catalog []promptProduct `json:"catalog"`
}

func toPrompt(s product.Summary) promptProduct {
	return promptProduct{
		Slug:        s.Slug,
		Name:        s.Name,
		Category:    s.Category,
		Description: s.Description,
		Price:       s.Price.String(),
	}
}

func slugsPrompt(anchor product.Summary, candidates []product.Summary) (string, error) {
	payload := slugsPayload{Current: toPrompt(anchor), Catalog: make([]promptProduct, 0, len(candidates))}
	for _, c := range candidates {
		payload.Catalog = append(payload.Catalog, toPrompt(c))
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return `Return the recommended slugs ONLY as {"slugs":[...]}` + "\n" + string(b), nil
}
