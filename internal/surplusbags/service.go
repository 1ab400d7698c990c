package surplusbag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fornihq/forni-backend/internal/authz"
	"github.com/fornihq/forni-backend/pkg/db/models"
	"github.com/fornihq/forni-backend/pkg/enums"
	pkgerrors "github.com/fornihq/forni-backend/pkg/errors"
	"github.com/fornihq/forni-backend/pkg/logger"
)

// Service exposes surplus bag operations.
type Service interface {
	Create(ctx context.Context, actor authz.Actor, input CreateBagInput) (*BagDTO, error)
	Update(ctx context.Context, actor authz.Actor, bagID uuid.UUID, input UpdateBagInput) (*BagDTO, error)
	Delete(ctx context.Context, actor authz.Actor, bagID uuid.UUID) error
	Get(ctx context.Context, bagID uuid.UUID) (*BagDTO, error)
	List(ctx context.Context, filter ListFilter) ([]BagDTO, error)
}

// CreateBagInput holds the validated payload to publish a bag.
type CreateBagInput struct {
	BakeryID      uuid.UUID
	Title         string
	Description   *string
	Category      *string
	Tags          []string
	OriginalValue decimal.Decimal
	SalePrice     decimal.Decimal
	Quantity      int
	PickupStart   time.Time
	PickupEnd     time.Time
	ImageURL      *string
}

// UpdateBagInput holds optional mutation values for a bag. Quantity
// updates reset both the total and the remaining stock.
type UpdateBagInput struct {
	Title         *string
	Description   *string
	Category      *string
	Tags          *[]string
	OriginalValue *decimal.Decimal
	SalePrice     *decimal.Decimal
	Quantity      *int
	PickupStart   *time.Time
	PickupEnd     *time.Time
	Status        *string
	ImageURL      *string
}

// ListFilter narrows the public bag listing.
type ListFilter struct {
	BakeryID *uuid.UUID
	Tags     []string
}

type bakeryLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Bakery, error)
}

type bagRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.SurplusBag, error)
	ListByBakery(ctx context.Context, bakeryID uuid.UUID) ([]models.SurplusBag, error)
	ListActive(ctx context.Context) ([]models.SurplusBag, error)
	Create(ctx context.Context, bag *models.SurplusBag) (*models.SurplusBag, error)
	Update(ctx context.Context, bag *models.SurplusBag) (*models.SurplusBag, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ExpireLapsed(ctx context.Context, now time.Time) (int64, error)
}

type service struct {
	repo       bagRepository
	bakeryRepo bakeryLoader
	logg       *logger.Logger
	clock      func() time.Time
}

// NewService constructs a surplus bag service instance.
func NewService(repo bagRepository, bakeryRepo bakeryLoader, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("surplus bag repository required")
	}
	if bakeryRepo == nil {
		return nil, fmt.Errorf("bakery repository required")
	}
	return &service{
		repo:       repo,
		bakeryRepo: bakeryRepo,
		logg:       logg,
		clock:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, actor authz.Actor, input CreateBagInput) (*BagDTO, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if input.SalePrice.IsNegative() || input.OriginalValue.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prices cannot be negative")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if !input.PickupEnd.After(input.PickupStart) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup window must end after it starts")
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

	bag := &models.SurplusBag{
		ID:                uuid.New(),
		BakeryID:          input.BakeryID,
		Title:             title,
		Description:       input.Description,
		Category:          input.Category,
		Tags:              normalizeTags(input.Tags),
		OriginalValue:     input.OriginalValue,
		SalePrice:         input.SalePrice,
		QuantityTotal:     input.Quantity,
		QuantityAvailable: input.Quantity,
		PickupStart:       input.PickupStart,
		PickupEnd:         input.PickupEnd,
		Status:            enums.BagStatusActive,
		ImageURL:          input.ImageURL,
	}

	created, err := s.repo.Create(ctx, bag)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert surplus bag")
	}
	return NewBagDTO(created), nil
}

func (s *service) Update(ctx context.Context, actor authz.Actor, bagID uuid.UUID, input UpdateBagInput) (*BagDTO, error) {
	bag, err := s.loadBag(ctx, bagID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireOwnerOrAdmin(actor, bag); err != nil {
		return nil, err
	}
	if err := applyUpdate(bag, input); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, bag)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update surplus bag")
	}
	return NewBagDTO(updated), nil
}

func (s *service) Delete(ctx context.Context, actor authz.Actor, bagID uuid.UUID) error {
	bag, err := s.loadBag(ctx, bagID)
	if err != nil {
		return err
	}
	if err := authz.RequireOwnerOrAdmin(actor, bag); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, bagID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete surplus bag")
	}
	return nil
}

func (s *service) Get(ctx context.Context, bagID uuid.UUID) (*BagDTO, error) {
	bag, err := s.loadBag(ctx, bagID)
	if err != nil {
		return nil, err
	}
	return NewBagDTO(bag), nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]BagDTO, error) {
	// Lapsed pickup windows are expired lazily on read; there are no
	// background sweepers.
	if _, err := s.repo.ExpireLapsed(ctx, s.clock()); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "surplus bag expiry sweep failed")
	}

	var (
		rows []models.SurplusBag
		err  error
	)
	if filter.BakeryID != nil {
		rows, err = s.repo.ListByBakery(ctx, *filter.BakeryID)
	} else {
		rows, err = s.repo.ListActive(ctx)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list surplus bags")
	}

	wanted := normalizeTags(filter.Tags)
	result := make([]BagDTO, 0, len(rows))
	for i := range rows {
		if len(wanted) > 0 && !tagsIntersect(rows[i].Tags, wanted) {
			continue
		}
		result = append(result, *NewBagDTO(&rows[i]))
	}
	return result, nil
}

func (s *service) loadBag(ctx context.Context, id uuid.UUID) (*models.SurplusBag, error) {
	bag, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "surplus bag not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load surplus bag")
	}
	return bag, nil
}

func applyUpdate(bag *models.SurplusBag, input UpdateBagInput) error {
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "title cannot be blank")
		}
		bag.Title = title
	}
	if input.Description != nil {
		bag.Description = input.Description
	}
	if input.Category != nil {
		bag.Category = input.Category
	}
	if input.Tags != nil {
		bag.Tags = normalizeTags(*input.Tags)
	}
	if input.OriginalValue != nil {
		if input.OriginalValue.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "original value cannot be negative")
		}
		bag.OriginalValue = *input.OriginalValue
	}
	if input.SalePrice != nil {
		if input.SalePrice.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "sale price cannot be negative")
		}
		bag.SalePrice = *input.SalePrice
	}
	if input.Quantity != nil {
		if *input.Quantity < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
		}
		bag.QuantityTotal = *input.Quantity
		bag.QuantityAvailable = *input.Quantity
		if *input.Quantity > 0 && bag.Status == enums.BagStatusSoldOut {
			bag.Status = enums.BagStatusActive
		}
	}
	if input.PickupStart != nil {
		bag.PickupStart = *input.PickupStart
	}
	if input.PickupEnd != nil {
		bag.PickupEnd = *input.PickupEnd
	}
	if !bag.PickupEnd.After(bag.PickupStart) {
		return pkgerrors.New(pkgerrors.CodeValidation, "pickup window must end after it starts")
	}
	if input.Status != nil {
		status, err := enums.ParseBagStatus(*input.Status)
		if err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid bag status")
		}
		bag.Status = status
	}
	if input.ImageURL != nil {
		bag.ImageURL = input.ImageURL
	}
	return nil
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
