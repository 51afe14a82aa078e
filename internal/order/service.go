package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wichananm65/fitness-shop-backend/internal/apperr"
	"go.uber.org/zap"
)

// Service provides business logic for orders. Every operation is scoped to
// the user that owns the order.
type Service struct {
	repo Repository
	log  *zap.Logger
	now  func() time.Time
}

func NewService(r Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: r, log: log, now: func() time.Time { return time.Now().UTC() }}
}

func notFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("order not found")
	}
	return err
}

// checkTotal logs a mismatch between the client total and the item
// subtotals. The client total is stored unchanged.
func (s *Service) checkTotal(ord Order) {
	if sum := ord.ItemsTotal(); !sum.Equal(ord.Total) {
		s.log.Warn("order total differs from item subtotals",
			zap.String("order", ord.ID),
			zap.String("total", ord.Total.String()),
			zap.String("items_total", sum.String()))
	}
}

func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (Order, error) {
	if userID == "" {
		return Order{}, apperr.Unauthorized("unauthorized", nil)
	}
	if errs := ValidateCreate(in); len(errs) > 0 {
		return Order{}, apperr.Validation("invalid payload", errs)
	}

	now := s.now()
	ord := Order{
		ID:        uuid.NewString(),
		UserID:    strings.Clone(userID),
		Items:     in.Items,
		Total:     *in.Total,
		Status:    in.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if ord.Status == "" {
		ord.Status = StatusPending
	}
	ord = ord.roundMoney()
	s.checkTotal(ord)

	created, err := s.repo.Create(ctx, ord)
	if err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}
	s.log.Info("order created", zap.String("id", created.ID), zap.String("user", userID))
	return created, nil
}

// Get returns the order when it belongs to userID. Orders of other users are
// reported as missing.
func (s *Service) Get(ctx context.Context, userID, id string) (Order, error) {
	ord, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Order{}, notFound(err)
	}
	if ord.UserID != userID {
		return Order{}, apperr.NotFound("order not found")
	}
	return ord, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Order, error) {
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *Service) Update(ctx context.Context, userID, id string, in UpdateInput) (Order, error) {
	if errs := ValidateUpdate(in); len(errs) > 0 {
		return Order{}, apperr.Validation("invalid payload", errs)
	}
	ord, err := s.Get(ctx, userID, id)
	if err != nil {
		return Order{}, err
	}

	if in.Items != nil {
		ord.Items = *in.Items
	}
	if in.Total != nil {
		ord.Total = *in.Total
	}
	if in.Status != nil {
		ord.Status = *in.Status
	}
	ord.UpdatedAt = s.now()
	ord = ord.roundMoney()
	s.checkTotal(ord)

	updated, err := s.repo.Update(ctx, ord)
	if err != nil {
		return Order{}, notFound(err)
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return notFound(s.repo.Delete(ctx, id))
}
