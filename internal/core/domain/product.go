package domain

import "time"

type Product struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	Price       float64   `db:"price"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

// ProductRef identifies a product by id, by name, or by both. When both are
// set they must agree, otherwise resolution fails.
type ProductRef struct {
	ID   *int64
	Name *string
}

func ProductByID(id int64) ProductRef {
	return ProductRef{ID: &id}
}

func ProductByName(name string) ProductRef {
	return ProductRef{Name: &name}
}

// Normalize treats a blank name as absent.
func (r ProductRef) Normalize() ProductRef {
	if r.Name != nil && *r.Name == "" {
		r.Name = nil
	}
	return r
}

func (r ProductRef) IsZero() bool {
	r = r.Normalize()
	return r.ID == nil && r.Name == nil
}
