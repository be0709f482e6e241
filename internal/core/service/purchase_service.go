package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/orderstack/order-management/internal/core/domain"
	"github.com/orderstack/order-management/internal/port"
)

var (
	ErrProductNotFound        = errors.New("product not found")
	ErrCustomerNotFound       = errors.New("customer not found")
	ErrInventoryNotFound      = errors.New("inventory record missing for product")
	ErrConflictingIdentifiers = errors.New("conflicting product id and name")
	ErrMissingProductRef      = errors.New("either product id or name must be provided")
	ErrInvalidQuantity        = errors.New("quantity must be positive")
	ErrInsufficientStock      = errors.New("insufficient stock")
)

// PurchaseRequest asks to buy Quantity units of one product on behalf of a
// customer. Exactly one of the product identifiers is required; when both are
// present they must agree.
type PurchaseRequest struct {
	CustomerID int64
	Product    domain.ProductRef
	Quantity   int
}

// PurchaseService coordinates one purchase: resolve the product, take the
// fleet-wide lock for its key, then inside a repeatable-read transaction do
// the locked stock check, the decrement and the ledger append. The lock's
// lifetime strictly contains the transaction's, so for a fixed product at
// most one worker in the whole fleet is between begin and commit at any
// instant.
type PurchaseService struct {
	locker    port.Locker
	txm       port.TxManager
	products  port.ProductRepository
	inventory port.InventoryRepository
	orders    port.OrderRepository
	customers port.CustomerRepository
}

func NewPurchaseService(
	locker port.Locker,
	txm port.TxManager,
	products port.ProductRepository,
	inventory port.InventoryRepository,
	orders port.OrderRepository,
	customers port.CustomerRepository,
) *PurchaseService {
	return &PurchaseService{
		locker:    locker,
		txm:       txm,
		products:  products,
		inventory: inventory,
		orders:    orders,
		customers: customers,
	}
}

// Buy executes the purchase protocol and returns the new order's id. Any
// error after the transaction opens rolls the whole attempt back; the lock is
// released on every exit path.
func (s *PurchaseService) Buy(ctx context.Context, req PurchaseRequest) (int64, error) {
	if req.Quantity <= 0 {
		return 0, ErrInvalidQuantity
	}
	product, err := resolveProduct(ctx, s.products, req.Product)
	if err != nil {
		return 0, err
	}

	lock, err := s.locker.Acquire(ctx, productLockKey(product.ID))
	if err != nil {
		return 0, err
	}
	defer lock.Release(ctx)

	tx, err := s.txm.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin purchase tx: %w", err)
	}
	defer tx.Rollback()

	inv, err := s.inventory.GetForUpdate(ctx, tx, product.ID)
	if err != nil {
		return 0, fmt.Errorf("locked inventory read: %w", err)
	}
	if inv == nil {
		// A live product always has an inventory row; treat as data corruption.
		return 0, ErrInventoryNotFound
	}
	if inv.StockQuantity < req.Quantity {
		return 0, ErrInsufficientStock
	}

	if err := s.inventory.UpdateQuantity(ctx, tx, product.ID, inv.StockQuantity-req.Quantity); err != nil {
		return 0, fmt.Errorf("decrement stock: %w", err)
	}

	// Customer resolution after the stock write mirrors the recorded protocol
	// order; a miss here discards the uncommitted decrement via rollback.
	customer, err := s.customers.GetByID(ctx, req.CustomerID)
	if err != nil {
		return 0, fmt.Errorf("resolve customer: %w", err)
	}
	if customer == nil {
		return 0, ErrCustomerNotFound
	}

	orderID, err := s.orders.Append(ctx, tx, domain.Order{
		CustomerID: customer.ID,
		ProductID:  product.ID,
		Quantity:   req.Quantity,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		return 0, fmt.Errorf("append order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit purchase: %w", err)
	}

	log.Info().
		Int64("orderId", orderID).
		Int64("productId", product.ID).
		Int64("customerId", customer.ID).
		Int("quantity", req.Quantity).
		Msg("purchase committed")
	return orderID, nil
}

func productLockKey(productID int64) string {
	return fmt.Sprintf("product:%d", productID)
}

// resolveProduct looks the product up by whichever identifiers the ref
// carries. Each case is handled exhaustively: id only, name only, both (with
// an equality check), neither.
func resolveProduct(ctx context.Context, products port.ProductRepository, ref domain.ProductRef) (*domain.Product, error) {
	ref = ref.Normalize()
	switch {
	case ref.ID == nil && ref.Name == nil:
		return nil, ErrMissingProductRef
	case ref.ID != nil:
		p, err := products.GetByID(ctx, *ref.ID)
		if err != nil {
			return nil, fmt.Errorf("resolve product by id: %w", err)
		}
		if p == nil {
			return nil, ErrProductNotFound
		}
		if ref.Name != nil && p.Name != *ref.Name {
			return nil, ErrConflictingIdentifiers
		}
		return p, nil
	default:
		p, err := products.GetByName(ctx, *ref.Name)
		if err != nil {
			return nil, fmt.Errorf("resolve product by name: %w", err)
		}
		if p == nil {
			return nil, ErrProductNotFound
		}
		return p, nil
	}
}
