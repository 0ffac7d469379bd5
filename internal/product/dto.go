// AngelaMos | 2026
// dto.go

package product

import (
	"time"
)

// CreateProductRequest arrives as multipart form fields; the image part
// is handled separately by the handler. Description may be empty.
type CreateProductRequest struct {
	Title       string `validate:"required,min=1,max=255"`
	Description string `validate:"omitempty"`
	PriceCents  int64  `validate:"required,min=0"`
}

// UpdateProductRequest follows the same allow-list pattern as profile
// updates: nil means leave the field alone.
type UpdateProductRequest struct {
	Title       *string `validate:"omitempty,min=1,max=255"`
	Description *string `validate:"omitempty,min=1"`
	PriceCents  *int64  `validate:"omitempty,min=0"`
}

type ProductResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ListProductsParams struct {
	Page     int
	PageSize int
	Search   string
}

func (p *ListProductsParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListProductsParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}
