package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/orderstack/order-management/internal/core/domain"
	"github.com/orderstack/order-management/internal/port"
)

// ErrDuplicateName is returned when an insert or rename collides with the
// unique index on products.name.
var ErrDuplicateName = errors.New("product name already exists")

const mysqlDuplicateEntry = 1062

type ProductCatalog struct {
	db *sqlx.DB
}

func NewProductCatalog(db *sqlx.DB) *ProductCatalog {
	return &ProductCatalog{db: db}
}

func (c *ProductCatalog) Create(ctx context.Context, tx port.DBTX, product *domain.Product) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO products (name, price, description, created_at)
		VALUES (?, ?, ?, ?)`,
		product.Name, product.Price, product.Description, product.CreatedAt,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return 0, ErrDuplicateName
		}
		return 0, fmt.Errorf("insert product: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("product insert id: %w", err)
	}
	return id, nil
}

func (c *ProductCatalog) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := c.db.GetContext(ctx, &p, `
		SELECT id, name, price, description, created_at
		FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product by id: %w", err)
	}
	return &p, nil
}

func (c *ProductCatalog) GetByName(ctx context.Context, name string) (*domain.Product, error) {
	var p domain.Product
	err := c.db.GetContext(ctx, &p, `
		SELECT id, name, price, description, created_at
		FROM products WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product by name: %w", err)
	}
	return &p, nil
}

func (c *ProductCatalog) List(ctx context.Context) ([]domain.Product, error) {
	products := []domain.Product{}
	err := c.db.SelectContext(ctx, &products, `
		SELECT id, name, price, description, created_at
		FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (c *ProductCatalog) Update(ctx context.Context, product *domain.Product) error {
	_, err := c.db.ExecContext(ctx, `
		UPDATE products SET name = ?, price = ?, description = ?
		WHERE id = ?`,
		product.Name, product.Price, product.Description, product.ID,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (c *ProductCatalog) Delete(ctx context.Context, tx port.DBTX, id int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
