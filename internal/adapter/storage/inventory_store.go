package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/orderstack/order-management/internal/core/domain"
	"github.com/orderstack/order-management/internal/port"
)

// InventoryStore persists the 1:1 product-to-stock mapping.
type InventoryStore struct {
	db *sqlx.DB
}

func NewInventoryStore(db *sqlx.DB) *InventoryStore {
	return &InventoryStore{db: db}
}

func (s *InventoryStore) Create(ctx context.Context, tx port.DBTX, inv domain.Inventory) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO inventory (product_id, stock_quantity, updated_at)
		VALUES (?, ?, NOW())`,
		inv.ProductID, inv.StockQuantity,
	)
	if err != nil {
		return fmt.Errorf("insert inventory: %w", err)
	}
	return nil
}

func (s *InventoryStore) Get(ctx context.Context, productID int64) (*domain.Inventory, error) {
	var inv domain.Inventory
	err := s.db.GetContext(ctx, &inv, `
		SELECT product_id, stock_quantity, updated_at
		FROM inventory WHERE product_id = ?`, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	return &inv, nil
}

// GetForUpdate locks the inventory row for the lifetime of tx. A concurrent
// transaction doing the same read on the same product blocks here until tx
// ends.
func (s *InventoryStore) GetForUpdate(ctx context.Context, tx port.DBTX, productID int64) (*domain.Inventory, error) {
	var inv domain.Inventory
	err := tx.GetContext(ctx, &inv, `
		SELECT product_id, stock_quantity, updated_at
		FROM inventory WHERE product_id = ? FOR UPDATE`, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("locked read inventory: %w", err)
	}
	return &inv, nil
}

func (s *InventoryStore) UpdateQuantity(ctx context.Context, tx port.DBTX, productID int64, quantity int) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE inventory SET stock_quantity = ?, updated_at = NOW()
		WHERE product_id = ?`,
		quantity, productID,
	)
	if err != nil {
		return fmt.Errorf("update inventory: %w", err)
	}
	return nil
}

func (s *InventoryStore) Delete(ctx context.Context, tx port.DBTX, productID int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM inventory WHERE product_id = ?`, productID); err != nil {
		return fmt.Errorf("delete inventory: %w", err)
	}
	return nil
}
