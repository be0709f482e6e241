package domain

import "time"

// Inventory holds the stock counter for exactly one product. StockQuantity is
// never negative at any committed state.
type Inventory struct {
	ProductID     int64     `db:"product_id"`
	StockQuantity int       `db:"stock_quantity"`
	UpdatedAt     time.Time `db:"updated_at"`
}
