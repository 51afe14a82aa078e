package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Verifier resolves a session to a principal.
type Verifier interface {
	Verify(ctx context.Context, session, xsrf string) (Principal, error)
}

var (
	ErrRejected         = errors.New("session rejected by security api")
	ErrInvalidPrincipal = errors.New("security api returned no user identifier")
)

// Gateway checks sessions against the external security API.
type Gateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewGateway(baseURL, apiKey string, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// Verify asks GET /users/profile whether the session is valid, forwarding
// the session cookie and the XSRF token.
func (g *Gateway) Verify(ctx context.Context, session, xsrf string) (Principal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/users/profile", nil)
	if err != nil {
		return Principal{}, fmt.Errorf("build profile request: %w", err)
	}
	req.Header.Set("Cookie", "token="+session)
	req.Header.Set("X-XSRF-TOKEN", xsrf)
	req.Header.Set("Accept", "application/json")
	if g.apiKey != "" {
		req.Header.Set("X-API-Key", g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return Principal{}, fmt.Errorf("security api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Principal{}, fmt.Errorf("read profile: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Principal{}, fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return parseProfile(body)
}

// parseProfile accepts {"data":{"user":{...}}} or {"user":{...}} with the
// identifier under _id or id.
func parseProfile(body []byte) (Principal, error) {
	var envelope struct {
		Data struct {
			User map[string]any `json:"user"`
		} `json:"data"`
		User map[string]any `json:"user"`
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&envelope); err != nil {
		return Principal{}, fmt.Errorf("decode profile: %w", err)
	}

	user := envelope.Data.User
	if user == nil {
		user = envelope.User
	}
	if user == nil {
		return Principal{}, ErrInvalidPrincipal
	}

	id := stringField(user, "_id")
	if id == "" {
		id = stringField(user, "id")
	}
	if id == "" {
		return Principal{}, ErrInvalidPrincipal
	}
	name := stringField(user, "name")
	if name == "" {
		name = stringField(user, "nombre")
	}
	return Principal{
		ID:    id,
		Email: stringField(user, "email"),
		Name:  name,
		Role:  stringField(user, "role"),
	}, nil
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}
