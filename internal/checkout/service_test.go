package checkout

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/marketloop/storefront-backend/internal/cart"
	"github.com/marketloop/storefront-backend/internal/inventory"
	"github.com/marketloop/storefront-backend/internal/orders"
	"github.com/marketloop/storefront-backend/internal/products"
	"github.com/marketloop/storefront-backend/pkg/db"
	"github.com/marketloop/storefront-backend/pkg/db/models"
	pkgerrors "github.com/marketloop/storefront-backend/pkg/errors"
	"github.com/marketloop/storefront-backend/pkg/metrics"
)

type fixture struct {
	svc     Service
	cartSvc cart.Service
	conn    *gorm.DB
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:checkout_%s?mode=memory&cache=shared", gofakeit.LetterN(8))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.User{}, &models.Product{}, &models.Cart{}, &models.CartItem{},
		&models.Order{}, &models.OrderItem{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	cartRepo := cart.NewRepository(conn)
	cartSvc, err := cart.NewService(cartRepo, products.NewRepository(conn))
	if err != nil {
		t.Fatalf("cart service: %v", err)
	}

	svc, err := NewService(ServiceParams{
		DB:         db.NewWithConn(conn),
		CartRepo:   cartRepo,
		OrdersRepo: orders.NewRepository(conn),
		Ledger:     inventory.NewLedger(conn),
		Metrics:    metrics.NewCheckoutMetrics(prometheus.NewRegistry()),
	})
	if err != nil {
		t.Fatalf("checkout service: %v", err)
	}
	return &fixture{svc: svc, cartSvc: cartSvc, conn: conn}
}

func (f *fixture) seedProduct(t *testing.T, priceCents, stock int) *models.Product {
	t.Helper()
	product := &models.Product{Name: gofakeit.ProductName(), PriceCents: priceCents, StockQty: stock}
	if err := f.conn.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func (f *fixture) addToCart(t *testing.T, userID uuid.UUID, productID uuid.UUID, qty int) {
	t.Helper()
	if _, err := f.cartSvc.AddItem(context.Background(), userID, cart.AddItemRequest{ProductID: productID, Quantity: qty}); err != nil {
		t.Fatalf("add to cart: %v", err)
	}
}

func (f *fixture) stock(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	var product models.Product
	if err := f.conn.First(&product, "id = ?", productID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	return product.StockQty
}

func (f *fixture) cartItemCount(t *testing.T, userID uuid.UUID) int {
	t.Helper()
	snapshot, err := f.cartSvc.GetOrCreate(context.Background(), userID)
	if err != nil {
		t.Fatalf("cart snapshot: %v", err)
	}
	return len(snapshot.Items)
}

func (f *fixture) orderCount(t *testing.T) int {
	t.Helper()
	var count int64
	if err := f.conn.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	return int(count)
}

func TestCheckoutHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	productA := f.seedProduct(t, 1000, 5)
	productB := f.seedProduct(t, 500, 1)
	f.addToCart(t, userID, productA.ID, 2)
	f.addToCart(t, userID, productB.ID, 1)

	order, err := f.svc.Checkout(ctx, userID)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if order.TotalCents != 2500 {
		t.Fatalf("expected total 2500, got %d", order.TotalCents)
	}
	if order.Status != "placed" {
		t.Fatalf("expected status placed, got %s", order.Status)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 order items, got %d", len(order.Items))
	}
	if got := f.stock(t, productA.ID); got != 3 {
		t.Fatalf("expected stock(A)=3, got %d", got)
	}
	if got := f.stock(t, productB.ID); got != 0 {
		t.Fatalf("expected stock(B)=0, got %d", got)
	}
	if got := f.cartItemCount(t, userID); got != 0 {
		t.Fatalf("expected cart cleared, got %d items", got)
	}
}

func TestCheckoutInsufficientStockRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	productA := f.seedProduct(t, 1000, 5)
	productB := f.seedProduct(t, 500, 0)
	f.addToCart(t, userID, productA.ID, 2)
	f.addToCart(t, userID, productB.ID, 1)

	_, err := f.svc.Checkout(ctx, userID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected INSUFFICIENT_STOCK, got %v", err)
	}

	if got := f.stock(t, productA.ID); got != 5 {
		t.Fatalf("expected stock(A) restored to 5, got %d", got)
	}
	if got := f.cartItemCount(t, userID); got != 2 {
		t.Fatalf("expected cart untouched, got %d items", got)
	}
	if got := f.orderCount(t); got != 0 {
		t.Fatalf("expected no order persisted, got %d", got)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx, uuid.New())
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeEmptyCart {
		t.Fatalf("expected EMPTY_CART, got %v", err)
	}
	if got := f.orderCount(t); got != 0 {
		t.Fatalf("empty-cart checkout must have no side effects, got %d orders", got)
	}
}

func TestCheckoutPersistFailureReleasesReservations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	product := f.seedProduct(t, 1000, 5)
	f.addToCart(t, userID, product.ID, 2)

	// force step 4 to fail after reservations succeeded
	if err := f.conn.Migrator().DropTable(&models.OrderItem{}); err != nil {
		t.Fatalf("drop order_items: %v", err)
	}

	_, err := f.svc.Checkout(ctx, userID)
	if err == nil {
		t.Fatal("expected checkout to fail when order persistence is broken")
	}

	if got := f.stock(t, product.ID); got != 5 {
		t.Fatalf("reserved stock must be released on persist failure, got %d", got)
	}
	if got := f.cartItemCount(t, userID); got != 1 {
		t.Fatalf("cart must survive persist failure, got %d items", got)
	}
}

func TestOrderTotalImmuneToLaterRepricing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	product := f.seedProduct(t, 1000, 5)
	f.addToCart(t, userID, product.ID, 2)

	order, err := f.svc.Checkout(ctx, userID)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if err := f.conn.Model(&models.Product{}).Where("id = ?", product.ID).Update("price_cents", 9999).Error; err != nil {
		t.Fatalf("reprice: %v", err)
	}

	var reloaded models.Order
	if err := f.conn.Preload("Items").First(&reloaded, "id = ?", order.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.TotalCents != 2000 {
		t.Fatalf("order total must be immutable, got %d", reloaded.TotalCents)
	}
	if reloaded.Items[0].UnitPriceCents != 1000 {
		t.Fatalf("snapshotted unit price must survive repricing, got %d", reloaded.Items[0].UnitPriceCents)
	}
}

func TestOrderSurvivesProductDeletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	product := f.seedProduct(t, 1500, 4)
	f.addToCart(t, userID, product.ID, 2)

	order, err := f.svc.Checkout(ctx, userID)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	productSvc, err := products.NewService(products.NewRepository(f.conn))
	if err != nil {
		t.Fatalf("products service: %v", err)
	}
	if err := productSvc.Delete(ctx, product.ID); err != nil {
		t.Fatalf("deleting an ordered product must succeed: %v", err)
	}

	var reloaded models.Order
	if err := f.conn.Preload("Items").First(&reloaded, "id = ?", order.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if len(reloaded.Items) != 1 {
		t.Fatalf("expected 1 order item, got %d", len(reloaded.Items))
	}
	item := reloaded.Items[0]
	if item.ProductID != product.ID {
		t.Fatalf("order item must keep the original product id, got %s", item.ProductID)
	}
	if item.ProductName != product.Name || item.UnitPriceCents != 1500 {
		t.Fatalf("snapshot must outlive the catalog row, got %q at %d", item.ProductName, item.UnitPriceCents)
	}
}

// Randomized multi-product carts with one deliberately starved product:
// checkout must either fully succeed or leave all stock at its initial level.
func TestCheckoutAtomicityProperty(t *testing.T) {
	for round := 0; round < 10; round++ {
		f := newFixture(t)
		ctx := context.Background()
		userID := uuid.New()

		lineCount := gofakeit.Number(2, 5)
		starved := gofakeit.Number(0, lineCount-1)
		type seeded struct {
			id      uuid.UUID
			initial int
		}
		var seededProducts []seeded

		for i := 0; i < lineCount; i++ {
			qty := gofakeit.Number(1, 4)
			stock := qty + gofakeit.Number(0, 3)
			if i == starved {
				stock = qty - 1
			}
			product := f.seedProduct(t, gofakeit.Number(100, 5000), stock)
			f.addToCart(t, userID, product.ID, qty)
			seededProducts = append(seededProducts, seeded{id: product.ID, initial: stock})
		}

		_, err := f.svc.Checkout(ctx, userID)
		appErr := pkgerrors.As(err)
		if appErr == nil || appErr.Code() != pkgerrors.CodeInsufficientStock {
			t.Fatalf("round %d: expected INSUFFICIENT_STOCK, got %v", round, err)
		}

		for _, p := range seededProducts {
			if got := f.stock(t, p.id); got != p.initial {
				t.Fatalf("round %d: stock drifted from %d to %d after failed checkout", round, p.initial, got)
			}
		}
		if got := f.orderCount(t); got != 0 {
			t.Fatalf("round %d: no order may exist after failed checkout", round)
		}
	}
}

// A double-submitted checkout converts the cart exactly once.
func TestConcurrentCheckoutCreatesOneOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	product := f.seedProduct(t, 1000, 10)
	f.addToCart(t, userID, product.ID, 2)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Checkout(ctx, userID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded, emptyCart := 0, 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeEmptyCart {
			emptyCart++
			continue
		}
		t.Fatalf("unexpected checkout error: %v", err)
	}

	if succeeded != 1 || emptyCart != 1 {
		t.Fatalf("expected one success and one EMPTY_CART, got success=%d empty=%d", succeeded, emptyCart)
	}
	if got := f.orderCount(t); got != 1 {
		t.Fatalf("expected exactly one order, got %d", got)
	}
	if got := f.stock(t, product.ID); got != 8 {
		t.Fatalf("expected stock decremented once to 8, got %d", got)
	}
}
