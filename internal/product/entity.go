// AngelaMos | 2026
// entity.go

package product

import (
	"time"
)

// Product is a catalog item. PriceCents avoids floating point money;
// clients render it however their locale demands.
type Product struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	PriceCents  int64     `db:"price_cents"`
	ImageKey    string    `db:"image_key"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (p *Product) HasImage() bool {
	return p.ImageKey != ""
}
