package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fornihq/forni-backend/internal/authz"
	"github.com/fornihq/forni-backend/pkg/db/models"
	pkgerrors "github.com/fornihq/forni-backend/pkg/errors"
)

// Service exposes catalog product operations.
type Service interface {
	Create(ctx context.Context, actor authz.Actor, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, actor authz.Actor, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, actor authz.Actor, productID uuid.UUID) error
	Get(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	List(ctx context.Context, filter ListFilter) ([]ProductDTO, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	BakeryID    uuid.UUID
	Name        string
	Description *string
	Category    *string
	Price       decimal.Decimal
	Quantity    int
	Tags        []string
	ImageURL    *string
	IsAvailable bool
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Category    *string
	Price       *decimal.Decimal
	Quantity    *int
	Tags        *[]string
	ImageURL    *string
	IsAvailable *bool
}

// ListFilter narrows the public product listing.
type ListFilter struct {
	BakeryID *uuid.UUID
	// Tags matches products whose tag set intersects the requested set.
	Tags []string
}

type bakeryLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Bakery, error)
}

type productRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListByBakery(ctx context.Context, bakeryID uuid.UUID) ([]models.Product, error)
	ListAvailable(ctx context.Context) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo       productRepository
	bakeryRepo bakeryLoader
}

// NewService constructs a product service instance.
func NewService(repo productRepository, bakeryRepo bakeryLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if bakeryRepo == nil {
		return nil, fmt.Errorf("bakery repository required")
	}
	return &service{repo: repo, bakeryRepo: bakeryRepo}, nil
}

func (s *service) Create(ctx context.Context, actor authz.Actor, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}

	bakery, err := s.bakeryRepo.FindByID(ctx, input.BakeryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bakery not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load bakery")
	}
	if err := authz.RequireOwnerOrAdmin(actor, bakery); err != nil {
		return nil, err
	}

	product := &models.Product{
		ID:          uuid.New(),
		BakeryID:    input.BakeryID,
		Name:        name,
		Description: input.Description,
		Category:    input.Category,
		Price:       input.Price,
		Quantity:    input.Quantity,
		Tags:        normalizeTags(input.Tags),
		ImageURL:    input.ImageURL,
		IsAvailable: input.IsAvailable,
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}
	return NewProductDTO(created), nil
}

func (s *service) Update(ctx context.Context, actor authz.Actor, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireOwnerOrAdmin(actor, product); err != nil {
		return nil, err
	}
	if input.Price != nil && input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.Quantity != nil && *input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}

	applyUpdate(product, input)

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
	}
	return NewProductDTO(updated), nil
}

func (s *service) Delete(ctx context.Context, actor authz.Actor, productID uuid.UUID) error {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return err
	}
	if err := authz.RequireOwnerOrAdmin(actor, product); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product")
	}
	return nil
}

func (s *service) Get(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(product), nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]ProductDTO, error) {
	var (
		rows []models.Product
		err  error
	)
	if filter.BakeryID != nil {
		rows, err = s.repo.ListByBakery(ctx, *filter.BakeryID)
	} else {
		rows, err = s.repo.ListAvailable(ctx)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}

	wanted := normalizeTags(filter.Tags)
	result := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		if len(wanted) > 0 && !tagsIntersect(rows[i].Tags, wanted) {
			continue
		}
		result = append(result, *NewProductDTO(&rows[i]))
	}
	return result, nil
}

func (s *service) loadProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	return product, nil
}

func applyUpdate(product *models.Product, input UpdateProductInput) {
	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Category != nil {
		product.Category = input.Category
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.Quantity != nil {
		product.Quantity = *input.Quantity
	}
	if input.Tags != nil {
		product.Tags = normalizeTags(*input.Tags)
	}
	if input.ImageURL != nil {
		product.ImageURL = input.ImageURL
	}
	if input.IsAvailable != nil {
		product.IsAvailable = *input.IsAvailable
	}
}

func normalizeTags(tags []string) pq.StringArray {
	seen := map[string]bool{}
	result := pq.StringArray{}
	for _, tag := range tags {
		cleaned := strings.ToLower(strings.TrimSpace(tag))
		if cleaned == "" || seen[cleaned] {
			continue
		}
		seen[cleaned] = true
		result = append(result, cleaned)
	}
	return result
}

func tagsIntersect(have pq.StringArray, want pq.StringArray) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}
