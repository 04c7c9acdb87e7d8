package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketloop/storefront-backend/internal/cart"
	"github.com/marketloop/storefront-backend/internal/inventory"
	"github.com/marketloop/storefront-backend/internal/orders"
	"github.com/marketloop/storefront-backend/pkg/db"
	"github.com/marketloop/storefront-backend/pkg/db/models"
	"github.com/marketloop/storefront-backend/pkg/enums"
	pkgerrors "github.com/marketloop/storefront-backend/pkg/errors"
	"github.com/marketloop/storefront-backend/pkg/metrics"
)

// Service converts the user's cart into a placed order.
type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID) (*orders.OrderDTO, error)
}

type service struct {
	db       *db.Client
	carts    *cart.Repository
	orders   *orders.Repository
	ledger   *inventory.Ledger
	metrics  *metrics.CheckoutMetrics
	checkout userLocks
}

// userLocks serializes checkouts per user so a double-submitted request
// cannot convert the same cart twice. Single-process scope by design.
type userLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func (u *userLocks) acquire(userID uuid.UUID) *sync.Mutex {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.locks == nil {
		u.locks = make(map[uuid.UUID]*sync.Mutex)
	}
	lock, ok := u.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		u.locks[userID] = lock
	}
	return lock
}

// ServiceParams bundles the dependencies for the checkout orchestrator.
type ServiceParams struct {
	DB         *db.Client
	CartRepo   *cart.Repository
	OrdersRepo *orders.Repository
	Ledger     *inventory.Ledger
	Metrics    *metrics.CheckoutMetrics
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client required")
	}
	if params.CartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.OrdersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	return &service{
		db:      params.DB,
		carts:   params.CartRepo,
		orders:  params.OrdersRepo,
		ledger:  params.Ledger,
		metrics: params.Metrics,
	}, nil
}

// line is the purchase-time snapshot of one cart item. Prices are captured
// before any reservation so later catalog edits cannot skew the total.
type line struct {
	productID      uuid.UUID
	productName    string
	quantity       int
	unitPriceCents int
}

// Checkout drives the saga: snapshot cart, reserve stock line by line,
// persist the order and clear the cart in one transaction. Any failure after
// a successful reservation releases every granted reservation before the
// error surfaces, so stock is never lost without a matching order.
func (s *service) Checkout(ctx context.Context, userID uuid.UUID) (*orders.OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	lock := s.checkout.acquire(userID)
	lock.Lock()
	defer lock.Unlock()

	started := time.Now()
	order, err := s.run(ctx, userID)
	if err != nil {
		s.metrics.ObserveDuration("failure", time.Since(started))
		s.metrics.IncFailure(failureReason(err))
		return nil, err
	}
	s.metrics.ObserveDuration("success", time.Since(started))
	s.metrics.IncSuccess()
	return order, nil
}

func (s *service) run(ctx context.Context, userID uuid.UUID) (*orders.OrderDTO, error) {
	lines, err := s.snapshotCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	totalCents := 0
	for _, l := range lines {
		totalCents += l.unitPriceCents * l.quantity
	}

	var placed *models.Order
	var saga Saga

	for _, l := range lines {
		l := l
		saga.Add(Step{
			Name: "reserve:" + l.productID.String(),
			Run: func(ctx context.Context) error {
				return s.ledger.Reserve(ctx, l.productID, l.quantity)
			},
			Compensate: func(ctx context.Context) error {
				return s.ledger.Release(ctx, l.productID, l.quantity)
			},
		})
	}

	saga.Add(Step{
		Name: "persist-order",
		Run: func(ctx context.Context) error {
			return s.db.WithTx(ctx, func(tx *gorm.DB) error {
				cartRepo := s.carts.WithTx(tx)
				ordersRepo := s.orders.WithTx(tx)

				items := make([]models.OrderItem, 0, len(lines))
				for _, l := range lines {
					items = append(items, models.OrderItem{
						ProductID:      l.productID,
						ProductName:    l.productName,
						Quantity:       l.quantity,
						UnitPriceCents: l.unitPriceCents,
					})
				}

				order, err := ordersRepo.Create(ctx, &models.Order{
					UserID:     userID,
					TotalCents: totalCents,
					Status:     enums.OrderStatusPlaced,
					Items:      items,
				})
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist order")
				}

				userCart, err := cartRepo.FindByUser(ctx, userID)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload cart")
				}
				if err := cartRepo.ClearItems(ctx, userCart.ID); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
				}

				placed = order
				return nil
			})
		},
	})

	compensated, err := saga.Execute(ctx)
	if compensated {
		s.metrics.IncRollback()
	}
	if err != nil {
		return nil, err
	}
	return orders.FromModel(placed), nil
}

// snapshotCart loads the cart and freezes product reference, quantity and
// current unit price per line.
func (s *service) snapshotCart(ctx context.Context, userID uuid.UUID) ([]line, error) {
	userCart, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if len(userCart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}

	lines := make([]line, 0, len(userCart.Items))
	for i := range userCart.Items {
		item := &userCart.Items[i]
		if item.Product == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product no longer available").
				WithDetails(map[string]any{"product_id": item.ProductID})
		}
		lines = append(lines, line{
			productID:      item.ProductID,
			productName:    item.Product.Name,
			quantity:       item.Quantity,
			unitPriceCents: item.Product.PriceCents,
		})
	}
	return lines, nil
}

func failureReason(err error) string {
	if appErr := pkgerrors.As(err); appErr != nil {
		switch appErr.Code() {
		case pkgerrors.CodeInsufficientStock:
			return "insufficient_stock"
		case pkgerrors.CodeEmptyCart:
			return "empty_cart"
		case pkgerrors.CodeNotFound:
			return "not_found"
		case pkgerrors.CodeValidation:
			return "validation"
		}
	}
	return "internal"
}
