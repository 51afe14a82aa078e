// Package app builds every long-lived dependency from the configuration and
// owns their lifecycle.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/fitness-shop-backend/internal/auth"
	"github.com/wichananm65/fitness-shop-backend/internal/config"
	"github.com/wichananm65/fitness-shop-backend/internal/content"
	"github.com/wichananm65/fitness-shop-backend/internal/llm"
	"github.com/wichananm65/fitness-shop-backend/internal/order"
	"github.com/wichananm65/fitness-shop-backend/internal/product"
	"github.com/wichananm65/fitness-shop-backend/internal/recommended"
	"github.com/wichananm65/fitness-shop-backend/internal/storage"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ConfigureJSON sets the process-wide encoding options used by every
// command: decimals (prices, totals) are written as JSON numbers. Call it once
// before anything is rendered.
func ConfigureJSON() {
	decimal.MarshalJSONWithoutQuotes = true
}

// ErrNoAPIKey is returned by the model client when no key is configured.
var ErrNoAPIKey = errors.New("llm api key is not configured")

type App struct {
	Config config.Config
	Log    *zap.Logger

	ProductRepo product.Repository
	OrderRepo   order.Repository

	Products    *product.Service
	Orders      *order.Service
	Content     *content.Service
	Recommender *recommended.Engine
	Verifier    auth.Verifier

	db    *sql.DB
	mongo *mongo.Client
}

// New opens the configured store and wires the services.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &App{Config: cfg, Log: log}
	if err := a.openStore(ctx); err != nil {
		return nil, err
	}

	client, err := NewLLMClient(ctx, cfg.LLM, log)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	a.Content = content.NewService(client, content.Options{Model: cfg.LLM.Model, Language: cfg.LLM.Language}, log.Named("content"))
	a.Products = product.NewService(a.ProductRepo, a.Content, log.Named("product"))
	a.Orders = order.NewService(a.OrderRepo, log.Named("order"))
	a.Recommender = recommended.NewEngine(a.ProductRepo, a.Content, log.Named("recommended"))

	if cfg.Auth.SecurityAPIURL == "" {
		log.Warn("SECURITY_API_URL is not set, protected routes will reject every request")
	}
	a.Verifier = auth.NewGateway(cfg.Auth.SecurityAPIURL, cfg.Auth.SecurityAPIKey, cfg.Auth.Timeout)
	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	switch a.Config.Store.Driver {
	case config.DriverPostgres:
		db, err := storage.OpenPostgres(ctx, a.Config.Store.PostgresURL)
		if err != nil {
			return err
		}
		a.db = db
		a.ProductRepo = product.NewPostgresRepository(db)
		a.OrderRepo = order.NewPostgresRepository(db)
	case config.DriverMongo:
		client, err := storage.OpenMongo(ctx, a.Config.Store.MongoURI)
		if err != nil {
			return err
		}
		a.mongo = client
		db := client.Database(a.Config.Store.MongoDatabase)
		a.ProductRepo = product.NewMongoRepository(db)
		a.OrderRepo = order.NewMongoRepository(db)
	case config.DriverMemory:
		a.ProductRepo = product.NewInMemoryRepository(nil)
		a.OrderRepo = order.NewInMemoryRepository(nil)
	default:
		return fmt.Errorf("unknown store driver %q", a.Config.Store.Driver)
	}
	a.Log.Info("store ready", zap.String("driver", a.Config.Store.Driver))
	return nil
}

// Migrate prepares the schema of the configured store.
func (a *App) Migrate(ctx context.Context) error {
	switch {
	case a.db != nil:
		return storage.MigratePostgres(ctx, a.db)
	case a.mongo != nil:
		return storage.EnsureMongoIndexes(ctx, a.mongo.Database(a.Config.Store.MongoDatabase))
	}
	return nil
}

// Close releases the store connections.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.db != nil {
		errs = append(errs, a.db.Close())
		a.db = nil
	}
	if a.mongo != nil {
		errs = append(errs, a.mongo.Disconnect(ctx))
		a.mongo = nil
	}
	return errors.Join(errs...)
}

// NewLLMClient builds the configured provider wrapped with the retry policy.
// A missing API key yields a client that always fails, so descriptions fall
// back and recommendations use the category ranking.
func NewLLMClient(ctx context.Context, cfg config.LLMConfig, log *zap.Logger) (llm.Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var provider llm.Client
	switch {
	case cfg.APIKey == "":
		log.Warn("llm api key is not configured", zap.String("provider", cfg.Provider))
		provider = llm.ClientFunc(func(context.Context, llm.Request) (string, error) {
			return "", ErrNoAPIKey
		})
	case cfg.Provider == config.ProviderGemini:
		baseURL := cfg.BaseURL
		if baseURL == config.Default().LLM.BaseURL {
			baseURL = ""
		}
		g, err := llm.NewGemini(ctx, cfg.APIKey, baseURL)
		if err != nil {
			return nil, err
		}
		provider = g
	default:
		provider = llm.NewOpenAI(cfg.BaseURL, cfg.APIKey, 0)
	}

	policy := llm.RetryPolicy{
		MaxRetries:     cfg.MaxRetries,
		BaseDelay:      cfg.RetryBaseDelay,
		AttemptTimeout: cfg.Timeout,
	}
	return llm.NewRetrying(provider, policy, log.Named("llm")), nil
}
