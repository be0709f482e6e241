package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/orderstack/order-management/internal/core/domain"
)

// ErrDuplicateEmail is returned when a registration collides with the unique
// index on the email column.
var ErrDuplicateEmail = errors.New("email already registered")

// AccountStore holds customer and admin accounts.
type AccountStore struct {
	db *sqlx.DB
}

func NewAccountStore(db *sqlx.DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) Create(ctx context.Context, customer *domain.Customer) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (name, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)`,
		customer.Name, customer.Email, customer.PasswordHash, customer.CreatedAt,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return 0, ErrDuplicateEmail
		}
		return 0, fmt.Errorf("insert customer: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("customer insert id: %w", err)
	}
	return id, nil
}

func (s *AccountStore) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	var c domain.Customer
	err := s.db.GetContext(ctx, &c, `
		SELECT id, name, email, password_hash, created_at
		FROM customers WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query customer by id: %w", err)
	}
	return &c, nil
}

func (s *AccountStore) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	var c domain.Customer
	err := s.db.GetContext(ctx, &c, `
		SELECT id, name, email, password_hash, created_at
		FROM customers WHERE email = ?`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query customer by email: %w", err)
	}
	return &c, nil
}

func (s *AccountStore) CreateAdmin(ctx context.Context, admin *domain.Admin) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO admins (email, password_hash, created_at)
		VALUES (?, ?, ?)`,
		admin.Email, admin.PasswordHash, admin.CreatedAt,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return 0, ErrDuplicateEmail
		}
		return 0, fmt.Errorf("insert admin: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("admin insert id: %w", err)
	}
	return id, nil
}

func (s *AccountStore) GetAdminByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	var a domain.Admin
	err := s.db.GetContext(ctx, &a, `
		SELECT id, email, password_hash, created_at
		FROM admins WHERE email = ?`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query admin by email: %w", err)
	}
	return &a, nil
}
