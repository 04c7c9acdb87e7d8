package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketloop/storefront-backend/pkg/db/models"
	"github.com/marketloop/storefront-backend/pkg/enums"
	pkgerrors "github.com/marketloop/storefront-backend/pkg/errors"
)

// Service exposes read access to placed orders plus the admin status
// transition. Creation happens only through the checkout orchestrator.
type Service interface {
	MyOrders(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error)
	AllOrders(ctx context.Context) ([]OrderDTO, error)
	Get(ctx context.Context, userID, orderID uuid.UUID, isAdmin bool) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*OrderDTO, error)
}

type service struct {
	repo *Repository
}

// NewService builds an orders service backed by the provided repository.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repository required")
	}
	return &service{repo: repo}, nil
}

// MyOrders lists the caller's own orders, newest first.
func (s *service) MyOrders(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return toDTOs(rows), nil
}

// AllOrders lists every order. The admin gate lives in the router.
func (s *service) AllOrders(ctx context.Context) ([]OrderDTO, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list all orders")
	}
	return toDTOs(rows), nil
}

// Get loads one order. Non-admin callers only see their own; another user's
// order reads as NOT_FOUND rather than FORBIDDEN to avoid confirming it exists.
func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID, isAdmin bool) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if !isAdmin && order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return FromModel(order), nil
}

// nextStatuses enumerates the allowed lifecycle moves. Delivered and
// cancelled are terminal.
var nextStatuses = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPlaced:  {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped: {enums.OrderStatusDelivered, enums.OrderStatusCancelled},
}

func canTransition(from, to enums.OrderStatus) bool {
	for _, allowed := range nextStatuses[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// UpdateStatus moves an order along its lifecycle. Only forward moves are
// accepted; anything else is a CONFLICT so the admin sees the real state.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*OrderDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
			WithDetails(map[string]any{"status": string(status)})
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}

	if !canTransition(order.Status, status) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "illegal status transition").
			WithDetails(map[string]any{"from": string(order.Status), "to": string(status)})
	}

	if err := s.repo.UpdateStatus(ctx, orderID, string(status)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
	}

	order.Status = status
	return FromModel(order), nil
}

func toDTOs(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
