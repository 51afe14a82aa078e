// Package content produces and checks catalog text with a language model.
package content

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wichananm65/fitness-shop-backend/internal/apperr"
	"github.com/wichananm65/fitness-shop-backend/internal/llm"
	"github.com/wichananm65/fitness-shop-backend/internal/product"
	"go.uber.org/zap"
)

// Verdict is the result of checking a description.
type Verdict struct {
	OK        bool   `json:"ok"`
	Message   string `json:"message"`
	Corrected string `json:"corrected,omitempty"`
}

// InvalidFormat is returned when the model's verdict cannot be read.
var InvalidFormat = Verdict{OK: false, Message: "invalid format"}

const (
	defaultLanguage = "Spanish"
	maxNames        = 10
)

type Options struct {
	Model    string
	Language string
}

type Service struct {
	client   llm.Client
	model    string
	language string
	log      *zap.Logger
}

// NewService expects client to already apply the retry policy.
func NewService(client llm.Client, opts Options, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Language == "" {
		opts.Language = defaultLanguage
	}
	return &Service{client: client, model: opts.Model, language: opts.Language, log: log}
}

// GenerateDescription writes a promotional description for a product.
func (s *Service) GenerateDescription(ctx context.Context, name, cat string) (string, error) {
	out, err := s.client.Complete(ctx, llm.Request{
		Model:       s.model,
		User:        descriptionPrompt(s.language, name, cat),
		MaxTokens:   300,
		Temperature: 0.7,
	})
	if err != nil {
		return "", apperr.Generation("could not generate description", err)
	}
	text := llm.CleanText(out)
	if text == "" {
		return "", apperr.Generation("could not generate description", errors.New("empty model reply"))
	}
	return text, nil
}

// verdictReply accepts both "message" and the shorter "msg" key.
type verdictReply struct {
	OK        *bool  `json:"ok"`
	Message   string `json:"message"`
	Msg       string `json:"msg"`
	Corrected string `json:"corrected"`
}

// ValidateDescription asks the model whether text follows the description
// rules. An unreadable reply yields InvalidFormat, not an error.
func (s *Service) ValidateDescription(ctx context.Context, text string) (Verdict, error) {
	out, err := s.client.Complete(ctx, llm.Request{
		Model:       s.model,
		System:      validateSystem,
		User:        validatePrompt(s.language, text),
		MaxTokens:   400,
		Temperature: 0,
		JSON:        true,
	})
	if err != nil {
		return Verdict{}, apperr.AIValidation("could not validate description", err)
	}

	var r verdictReply
	reply := llm.DecodeObject(out, &r)
	if reply.Kind != llm.ReplyOK || r.OK == nil {
		s.log.Warn("unreadable validation reply",
			zap.Stringer("kind", reply.Kind),
			zap.Error(apperr.UpstreamParse("validation reply", reply.Err)))
		return InvalidFormat, nil
	}
	v := Verdict{OK: *r.OK, Message: r.Message, Corrected: strings.TrimSpace(r.Corrected)}
	if v.Message == "" {
		v.Message = r.Msg
	}
	return v, nil
}

// RecommendNames suggests generic product names related to productName.
// Malformed replies give an empty list.
func (s *Service) RecommendNames(ctx context.Context, productName string, limit int) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}
	if limit > maxNames {
		limit = maxNames
	}
	out, err := s.client.Complete(ctx, llm.Request{
		Model:       s.model,
		User:        namesPrompt(s.language, productName, limit),
		MaxTokens:   300,
		Temperature: 0.5,
		JSON:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("recommend names: %w", err)
	}

	var r struct {
		Names []string `json:"names"`
	}
	if reply := llm.DecodeObject(out, &r); reply.Kind != llm.ReplyOK {
		s.log.Warn("unreadable names reply", zap.Stringer("kind", reply.Kind))
		return []string{}, nil
	}
	names := make([]string, 0, limit)
	seen := map[string]bool{}
	for _, n := range r.Names {
		n = strings.TrimSpace(n)
		key := strings.ToLower(n)
		if n == "" || seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, n)
		if len(names) == limit {
			break
		}
	}
	return names, nil
}

// RecommendSlugs asks the model to pick up to limit slugs from candidates
// for anchor. The slugs are returned as the model sent them; callers must
// check them against the catalog. Unreadable replies give an empty slice.
func (s *Service) RecommendSlugs(ctx context.Context, anchor product.Summary, candidates []product.Summary, limit int) ([]string, error) {
	user, err := slugsPrompt(anchor, candidates)
	if err != nil {
		return nil, fmt.Errorf("build recommendation prompt: %w", err)
	}
	out, err := s.client.Complete(ctx, llm.Request{
		Model:       s.model,
		System:      slugsSystem(limit),
		User:        user,
		MaxTokens:   400,
		Temperature: 0.2,
		JSON:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("recommend slugs: %w", err)
	}

	var r struct {
		Slugs []any `json:"slugs"`
	}
	if reply := llm.DecodeObject(out, &r); reply.Kind != llm.ReplyOK {
		s.log.Warn("unreadable recommendation reply",
			zap.Stringer("kind", reply.Kind),
			zap.Error(apperr.UpstreamParse("recommendation reply", reply.Err)))
		return []string{}, nil
	}
	// non-string entries are skipped, the rest of the list is kept
	slugs := make([]string, 0, len(r.Slugs))
	for _, v := range r.Slugs {
		if slug, ok := v.(string); ok {
			slugs = append(slugs, slug)
		}
	}
	return slugs, nil
}
