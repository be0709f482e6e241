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

var ErrInvalidAdminSecret = errors.New("invalid admin secret key")

type RegisterAdminInput struct {
	Email    string
	Password string
	Secret   string
}

// AdminService manages administrator accounts. Registration is gated by a
// shared secret from configuration.
type AdminService struct {
	admins port.AdminRepository
	secret string
}

func NewAdminService(admins port.AdminRepository, secret string) *AdminService {
	return &AdminService{admins: admins, secret: secret}
}

func (s *AdminService) Register(ctx context.Context, input RegisterAdminInput) (*domain.Admin, error) {
	existing, err := s.admins.GetAdminByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}
	if input.Secret != s.secret {
		return nil, ErrInvalidAdminSecret
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	admin := domain.Admin{
		Email:        input.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	id, err := s.admins.CreateAdmin(ctx, &admin)
	if err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	admin.ID = id
	return &admin, nil
}

func (s *AdminService) Login(ctx context.Context, email, password string) (*domain.Admin, error) {
	admin, err := s.admins.GetAdminByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup admin: %w", err)
	}
	if admin == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return admin, nil
}
