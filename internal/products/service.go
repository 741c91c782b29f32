// Package products manages the catalog listings that back the stock ledger.
package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/jmcastellanos/tienda-backend/internal/reservations"
	"github.com/jmcastellanos/tienda-backend/pkg/db/models"
	pkgerrors "github.com/jmcastellanos/tienda-backend/pkg/errors"
	"github.com/jmcastellanos/tienda-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateInput carries the fields needed for a new listing.
type CreateInput struct {
	Name        string
	Slug        string
	Description *string
	PriceCents  int
	Tags        []string
	Stock       int
	IsActive    *bool
}

// UpdateInput carries partial updates; nil fields are left untouched.
// Stock counters are deliberately absent: they move only through the ledger.
type UpdateInput struct {
	Name        *string
	Slug        *string
	Description *string
	PriceCents  *int
	Tags        []string
	IsActive    *bool
}

// Service exposes catalog operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	List(ctx context.Context, params pagination.Params, activeOnly bool) ([]models.Product, string, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo  Repository
	tx    txRunner
	holds reservations.Repository
}

// NewService builds the catalog service. The reservation repository backs the
// delete guard's view of live holds.
func NewService(repo Repository, tx txRunner, holds reservations.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if holds == nil {
		return nil, fmt.Errorf("reservation repository required")
	}
	return &service{repo: repo, tx: tx, holds: holds}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug required")
	}
	if input.PriceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}

	product := models.Product{
		ID:          uuid.New(),
		Name:        name,
		Slug:        slug,
		Description: input.Description,
		PriceCents:  input.PriceCents,
		Tags:        pq.StringArray(input.Tags),
		Stock:       input.Stock,
		IsActive:    active,
	}
	if err := s.repo.Create(ctx, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	return s.repo.FindByID(ctx, id)
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug required")
	}
	return s.repo.FindBySlug(ctx, slug)
}

func (s *service) List(ctx context.Context, params pagination.Params, activeOnly bool) ([]models.Product, string, error) {
	return s.repo.List(ctx, params, activeOnly)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		updates["name"] = name
	}
	if input.Slug != nil {
		slug := strings.TrimSpace(*input.Slug)
		if slug == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug must not be empty")
		}
		updates["slug"] = slug
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.PriceCents != nil {
		if *input.PriceCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		updates["price_cents"] = *input.PriceCents
	}
	if input.Tags != nil {
		updates["tags"] = pq.StringArray(input.Tags)
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Delete removes a listing. Products with live holds cannot be deleted, since
// dropping the row would orphan the reserved units.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, id); err != nil {
			return err
		}
		// the holds check must read inside this transaction, or a reservation
		// created in the gap slips past the guard
		held, err := s.holds.WithTx(tx).SumActiveByProduct(ctx, id)
		if err != nil {
			return err
		}
		if held > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "product has active reservations").
				WithDetails(map[string]int{"heldUnits": held})
		}
		return repo.Delete(ctx, id)
	})
}
