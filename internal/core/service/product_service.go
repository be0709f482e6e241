package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/orderstack/order-management/internal/core/domain"
	"github.com/orderstack/order-management/internal/port"
)

var (
	ErrProductNameTaken = errors.New("product with this name already exists")
	ErrMissingName      = errors.New("product name is required")
)

// ProductSummary is a product joined with its current stock level.
type ProductSummary struct {
	Product       domain.Product
	StockQuantity int
}

type AddProductInput struct {
	Name         string
	Price        float64
	Description  string
	InitialStock int
}

// UpdateProductInput carries partial updates; nil fields are left unchanged.
type UpdateProductInput struct {
	NewName        *string
	NewDescription *string
	NewPrice       *float64
}

// ProductService is the catalog plumbing around the purchase core: product
// CRUD plus stock replenishment. Writes that touch both the product and its
// inventory row share one transaction.
type ProductService struct {
	txm       port.TxManager
	products  port.ProductRepository
	inventory port.InventoryRepository
}

func NewProductService(txm port.TxManager, products port.ProductRepository, inventory port.InventoryRepository) *ProductService {
	return &ProductService{txm: txm, products: products, inventory: inventory}
}

// AddProduct creates the product and its inventory row atomically.
func (s *ProductService) AddProduct(ctx context.Context, input AddProductInput) (*ProductSummary, error) {
	if input.Name == "" {
		return nil, ErrMissingName
	}
	if input.InitialStock < 0 {
		return nil, ErrInvalidQuantity
	}

	existing, err := s.products.GetByName(ctx, input.Name)
	if err != nil {
		return nil, fmt.Errorf("check product name: %w", err)
	}
	if existing != nil {
		return nil, ErrProductNameTaken
	}

	tx, err := s.txm.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	product := domain.Product{
		Name:        input.Name,
		Price:       input.Price,
		Description: input.Description,
		CreatedAt:   time.Now(),
	}
	id, err := s.products.Create(ctx, tx, &product)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	product.ID = id

	if err := s.inventory.Create(ctx, tx, domain.Inventory{
		ProductID:     id,
		StockQuantity: input.InitialStock,
	}); err != nil {
		return nil, fmt.Errorf("create inventory: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit product: %w", err)
	}
	return &ProductSummary{Product: product, StockQuantity: input.InitialStock}, nil
}

func (s *ProductService) ListProducts(ctx context.Context) ([]ProductSummary, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]ProductSummary, 0, len(products))
	for _, p := range products {
		inv, err := s.inventory.Get(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		if inv == nil {
			return nil, ErrInventoryNotFound
		}
		summaries = append(summaries, ProductSummary{Product: p, StockQuantity: inv.StockQuantity})
	}
	return summaries, nil
}

func (s *ProductService) GetProductByName(ctx context.Context, name string) (*ProductSummary, error) {
	return s.getSummary(ctx, domain.ProductByName(name))
}

func (s *ProductService) GetProduct(ctx context.Context, ref domain.ProductRef) (*ProductSummary, error) {
	return s.getSummary(ctx, ref)
}

func (s *ProductService) getSummary(ctx context.Context, ref domain.ProductRef) (*ProductSummary, error) {
	product, err := resolveProduct(ctx, s.products, ref)
	if err != nil {
		return nil, err
	}
	inv, err := s.inventory.Get(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrInventoryNotFound
	}
	return &ProductSummary{Product: *product, StockQuantity: inv.StockQuantity}, nil
}

// UpdateProduct applies the non-nil fields of input to the resolved product.
func (s *ProductService) UpdateProduct(ctx context.Context, ref domain.ProductRef, input UpdateProductInput) (*ProductSummary, error) {
	product, err := resolveProduct(ctx, s.products, ref)
	if err != nil {
		return nil, err
	}

	if input.NewName != nil && *input.NewName != product.Name {
		taken, err := s.products.GetByName(ctx, *input.NewName)
		if err != nil {
			return nil, fmt.Errorf("check product name: %w", err)
		}
		if taken != nil {
			return nil, ErrProductNameTaken
		}
		product.Name = *input.NewName
	}
	if input.NewDescription != nil {
		product.Description = *input.NewDescription
	}
	if input.NewPrice != nil {
		product.Price = *input.NewPrice
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	inv, err := s.inventory.Get(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrInventoryNotFound
	}
	return &ProductSummary{Product: *product, StockQuantity: inv.StockQuantity}, nil
}

// DeleteProduct removes the product and its inventory row atomically.
func (s *ProductService) DeleteProduct(ctx context.Context, ref domain.ProductRef) error {
	product, err := resolveProduct(ctx, s.products, ref)
	if err != nil {
		return err
	}

	tx, err := s.txm.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.inventory.Delete(ctx, tx, product.ID); err != nil {
		return err
	}
	if err := s.products.Delete(ctx, tx, product.ID); err != nil {
		return err
	}
	return tx.Commit()
}

// AddToInventory increases stock under the row lock so replenishment and
// concurrent purchases serialize on the same inventory row.
func (s *ProductService) AddToInventory(ctx context.Context, ref domain.ProductRef, quantity int) (*ProductSummary, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	product, err := resolveProduct(ctx, s.products, ref)
	if err != nil {
		return nil, err
	}

	tx, err := s.txm.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	inv, err := s.inventory.GetForUpdate(ctx, tx, product.ID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrInventoryNotFound
	}
	newQuantity := inv.StockQuantity + quantity
	if err := s.inventory.UpdateQuantity(ctx, tx, product.ID, newQuantity); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit restock: %w", err)
	}
	return &ProductSummary{Product: *product, StockQuantity: newQuantity}, nil
}
