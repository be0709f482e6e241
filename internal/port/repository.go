package port

import (
	"context"
	"database/sql"

	"github.com/orderstack/order-management/internal/core/domain"
)

// DBTX is the transaction handle shared by every store call that must land in
// the same commit/rollback boundary. Satisfied by *sqlx.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Commit() error
	Rollback() error
}

// TxManager opens transactions at repeatable-read isolation.
type TxManager interface {
	BeginTx(ctx context.Context) (DBTX, error)
}

// Lookup methods return (nil, nil) when no row exists; not-found is a signal,
// not an error.

type ProductRepository interface {
	Create(ctx context.Context, tx DBTX, product *domain.Product) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetByName(ctx context.Context, name string) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, tx DBTX, id int64) error
}

type InventoryRepository interface {
	Create(ctx context.Context, tx DBTX, inv domain.Inventory) error
	Get(ctx context.Context, productID int64) (*domain.Inventory, error)

	// GetForUpdate takes a row-level exclusive lock on the inventory row for
	// the lifetime of tx. Other transactions block on the same row until tx
	// commits or rolls back.
	GetForUpdate(ctx context.Context, tx DBTX, productID int64) (*domain.Inventory, error)
	UpdateQuantity(ctx context.Context, tx DBTX, productID int64, quantity int) error
	Delete(ctx context.Context, tx DBTX, productID int64) error
}

type OrderRepository interface {
	// Append records a completed purchase inside tx; the write becomes durable
	// only when tx commits.
	Append(ctx context.Context, tx DBTX, order domain.Order) (int64, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error)
}

type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
}

type AdminRepository interface {
	CreateAdmin(ctx context.Context, admin *domain.Admin) (int64, error)
	GetAdminByEmail(ctx context.Context, email string) (*domain.Admin, error)
}
