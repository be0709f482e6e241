package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/orderstack/order-management/internal/core/domain"
	"github.com/orderstack/order-management/internal/port"
)

var (
	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type RegisterCustomerInput struct {
	Name     string
	Email    string
	Password string
}

type CustomerService struct {
	customers port.CustomerRepository
	orders    port.OrderRepository
}

func NewCustomerService(customers port.CustomerRepository, orders port.OrderRepository) *CustomerService {
	return &CustomerService{customers: customers, orders: orders}
}

func (s *CustomerService) Register(ctx context.Context, input RegisterCustomerInput) (*domain.Customer, error) {
	existing, err := s.customers.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	customer := domain.Customer{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	id, err := s.customers.Create(ctx, &customer)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	customer.ID = id
	return &customer, nil
}

func (s *CustomerService) Login(ctx context.Context, email, password string) (*domain.Customer, error) {
	customer, err := s.customers.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup customer: %w", err)
	}
	if customer == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return customer, nil
}

func (s *CustomerService) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	customer, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup customer: %w", err)
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	return customer, nil
}

// Orders returns the customer's purchase history.
func (s *CustomerService) Orders(ctx context.Context, customerID int64) ([]domain.Order, error) {
	if _, err := s.GetByID(ctx, customerID); err != nil {
		return nil, err
	}
	return s.orders.ListByCustomer(ctx, customerID)
}
