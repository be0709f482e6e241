package domain

import "time"

// Order is the durable record of one completed purchase. Rows are append-only:
// nothing in this codebase updates or deletes them.
type Order struct {
	ID         int64     `db:"id"`
	CustomerID int64     `db:"customer_id"`
	ProductID  int64     `db:"product_id"`
	Quantity   int       `db:"quantity"`
	CreatedAt  time.Time `db:"created_at"`
}
