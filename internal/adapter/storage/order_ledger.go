package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/orderstack/order-management/internal/core/domain"
	"github.com/orderstack/order-management/internal/port"
)

// OrderLedger is the append-only record of completed purchases.
type OrderLedger struct {
	db *sqlx.DB
}

func NewOrderLedger(db *sqlx.DB) *OrderLedger {
	return &OrderLedger{db: db}
}

func (l *OrderLedger) Append(ctx context.Context, tx port.DBTX, order domain.Order) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO orders (customer_id, product_id, quantity, created_at)
		VALUES (?, ?, ?, ?)`,
		order.CustomerID, order.ProductID, order.Quantity, order.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("append order: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("order insert id: %w", err)
	}
	return id, nil
}

func (l *OrderLedger) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error) {
	orders := []domain.Order{}
	err := l.db.SelectContext(ctx, &orders, `
		SELECT id, customer_id, product_id, quantity, created_at
		FROM orders WHERE customer_id = ? ORDER BY created_at`, customerID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}
