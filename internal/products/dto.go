package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/jmcastellanos/tienda-backend/pkg/db/models"
)

// ProductDTO is the catalog payload returned to clients. Available is derived
// from the stock counters at read time.
type ProductDTO struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Description   *string   `json:"description,omitempty"`
	PriceCents    int       `json:"priceCents"`
	Tags          []string  `json:"tags"`
	Stock         int       `json:"stock"`
	ReservedStock int       `json:"reservedStock"`
	Available     int       `json:"available"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(product *models.Product) *ProductDTO {
	if product == nil {
		return nil
	}
	return &ProductDTO{
		ID:            product.ID,
		Name:          product.Name,
		Slug:          product.Slug,
		Description:   product.Description,
		PriceCents:    product.PriceCents,
		Tags:          append([]string{}, product.Tags...),
		Stock:         product.Stock,
		ReservedStock: product.ReservedStock,
		Available:     product.Available(),
		IsActive:      product.IsActive,
		CreatedAt:     product.CreatedAt,
		UpdatedAt:     product.UpdatedAt,
	}
}

// NewProductDTOs maps a page of products.
func NewProductDTOs(products []models.Product) []ProductDTO {
	dtos := make([]ProductDTO, len(products))
	for i := range products {
		dtos[i] = *NewProductDTO(&products[i])
	}
	return dtos
}
