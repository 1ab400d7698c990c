package bakery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fornihq/forni-backend/internal/authz"
	"github.com/fornihq/forni-backend/pkg/db/models"
	pkgerrors "github.com/fornihq/forni-backend/pkg/errors"
	"github.com/fornihq/forni-backend/pkg/geo"
	"github.com/fornihq/forni-backend/pkg/geocode"
	"github.com/fornihq/forni-backend/pkg/logger"
)

// DefaultNearbyRadiusKm applies when a nearby query omits the radius.
const DefaultNearbyRadiusKm = 10.0

// Service exposes bakery storefront operations.
type Service interface {
	Create(ctx context.Context, actor authz.Actor, input CreateBakeryInput) (*BakeryDTO, error)
	Update(ctx context.Context, actor authz.Actor, bakeryID uuid.UUID, input UpdateBakeryInput) (*BakeryDTO, error)
	Delete(ctx context.Context, actor authz.Actor, bakeryID uuid.UUID) error
	Get(ctx context.Context, bakeryID uuid.UUID) (*BakeryDTO, error)
	List(ctx context.Context, filter ListFilter) ([]BakeryDTO, error)
	Mine(ctx context.Context, actor authz.Actor) ([]BakeryDTO, error)
	Nearby(ctx context.Context, query NearbyQuery) ([]BakeryDTO, error)
}

// CreateBakeryInput holds the validated payload to create a bakery.
type CreateBakeryInput struct {
	Name         string
	Description  *string
	Address      *string
	City         *string
	PostalCode   *string
	Phone        *string
	Latitude     *float64
	Longitude    *float64
	OpeningHours *string
	ImageURL     *string
}

// UpdateBakeryInput holds optional mutation values for a bakery.
type UpdateBakeryInput struct {
	Name         *string
	Description  *string
	Address      *string
	City         *string
	PostalCode   *string
	Phone        *string
	Latitude     *float64
	Longitude    *float64
	OpeningHours *string
	ImageURL     *string
	IsActive     *bool
}

// ListFilter narrows the public bakery listing.
type ListFilter struct {
	ProductTag string
}

// NearbyQuery bounds a map search around the caller's position.
type NearbyQuery struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
}

// Geocoder resolves free-form addresses to coordinates.
type Geocoder interface {
	Search(ctx context.Context, address string) (*geocode.Location, error)
}

type bakeryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Bakery, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Bakery, error)
	ListActive(ctx context.Context) ([]models.Bakery, error)
	ListActiveWithCoordinates(ctx context.Context) ([]models.Bakery, error)
	ListByProductTag(ctx context.Context, tag string) ([]models.Bakery, error)
	Create(ctx context.Context, bakery *models.Bakery) (*models.Bakery, error)
	Update(ctx context.Context, bakery *models.Bakery) (*models.Bakery, error)
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
}

type service struct {
	repo     bakeryRepository
	geocoder Geocoder
	logg     *logger.Logger
}

// NewService constructs a bakery service instance. The geocoder is
// optional; without one, bakeries keep whatever coordinates the owner
// supplied.
func NewService(repo bakeryRepository, geocoder Geocoder, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("bakery repository required")
	}
	return &service{repo: repo, geocoder: geocoder, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, actor authz.Actor, input CreateBakeryInput) (*BakeryDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if (input.Latitude == nil) != (input.Longitude == nil) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "latitude and longitude must be provided together")
	}

	bakery := &models.Bakery{
		ID:           uuid.New(),
		OwnerID:      actor.UserID,
		Name:         name,
		Description:  input.Description,
		Address:      input.Address,
		City:         input.City,
		PostalCode:   input.PostalCode,
		Phone:        input.Phone,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		OpeningHours: input.OpeningHours,
		ImageURL:     input.ImageURL,
		IsActive:     true,
	}

	s.maybeGeocode(ctx, bakery)

	created, err := s.repo.Create(ctx, bakery)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert bakery")
	}
	return NewBakeryDTO(created), nil
}

func (s *service) Update(ctx context.Context, actor authz.Actor, bakeryID uuid.UUID, input UpdateBakeryInput) (*BakeryDTO, error) {
	bakery, err := s.loadBakery(ctx, bakeryID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireOwnerOrAdmin(actor, bakery); err != nil {
		return nil, err
	}
	if (input.Latitude == nil) != (input.Longitude == nil) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "latitude and longitude must be provided together")
	}

	addressChanged := applyUpdate(bakery, input)

	// Re-geocode only when the address moved and no explicit coordinates
	// came with the update.
	if addressChanged && input.Latitude == nil {
		bakery.Latitude = nil
		bakery.Longitude = nil
		s.maybeGeocode(ctx, bakery)
	}

	updated, err := s.repo.Update(ctx, bakery)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update bakery")
	}
	return NewBakeryDTO(updated), nil
}

func (s *service) Delete(ctx context.Context, actor authz.Actor, bakeryID uuid.UUID) error {
	bakery, err := s.loadBakery(ctx, bakeryID)
	if err != nil {
		return err
	}
	if err := authz.RequireOwnerOrAdmin(actor, bakery); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, bakeryID, time.Now().UTC()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete bakery")
	}
	return nil
}

func (s *service) Get(ctx context.Context, bakeryID uuid.UUID) (*BakeryDTO, error) {
	bakery, err := s.loadBakery(ctx, bakeryID)
	if err != nil {
		return nil, err
	}
	return NewBakeryDTO(bakery), nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]BakeryDTO, error) {
	var (
		rows []models.Bakery
		err  error
	)
	if tag := strings.TrimSpace(filter.ProductTag); tag != "" {
		rows, err = s.repo.ListByProductTag(ctx, tag)
	} else {
		rows, err = s.repo.ListActive(ctx)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list bakeries")
	}
	return toDTOs(rows), nil
}

func (s *service) Mine(ctx context.Context, actor authz.Actor) ([]BakeryDTO, error) {
	rows, err := s.repo.FindByOwner(ctx, actor.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list own bakeries")
	}
	return toDTOs(rows), nil
}

func (s *service) Nearby(ctx context.Context, query NearbyQuery) ([]BakeryDTO, error) {
	if query.Latitude < -90 || query.Latitude > 90 || query.Longitude < -180 || query.Longitude > 180 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid coordinates")
	}
	radius := query.RadiusKm
	if radius <= 0 {
		radius = DefaultNearbyRadiusKm
	}

	rows, err := s.repo.ListActiveWithCoordinates(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list bakeries")
	}

	origin := geo.Point{Latitude: query.Latitude, Longitude: query.Longitude}
	result := make([]BakeryDTO, 0, len(rows))
	for i := range rows {
		row := rows[i]
		distance := geo.DistanceKm(origin, geo.Point{
			Latitude:  *row.Latitude,
			Longitude: *row.Longitude,
		})
		if distance > radius {
			continue
		}
		dto := NewBakeryDTO(&row)
		dto.DistanceKm = &distance
		result = append(result, *dto)
	}

	sort.Slice(result, func(i, j int) bool {
		return *result[i].DistanceKm < *result[j].DistanceKm
	})
	return result, nil
}

// maybeGeocode fills missing coordinates from the address. Failures are
// logged and swallowed: a bakery without coordinates is still usable,
// it just never shows up in nearby results.
func (s *service) maybeGeocode(ctx context.Context, bakery *models.Bakery) {
	if s.geocoder == nil || bakery.Latitude != nil {
		return
	}
	address := composeAddress(bakery)
	if address == "" {
		return
	}

	loc, err := s.geocoder.Search(ctx, address)
	if err != nil || loc == nil {
		if err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "geocoding bakery address failed")
		}
		return
	}
	bakery.Latitude = &loc.Latitude
	bakery.Longitude = &loc.Longitude
}

func composeAddress(bakery *models.Bakery) string {
	parts := make([]string, 0, 3)
	for _, p := range []*string{bakery.Address, bakery.PostalCode, bakery.City} {
		if p != nil && strings.TrimSpace(*p) != "" {
			parts = append(parts, strings.TrimSpace(*p))
		}
	}
	return strings.Join(parts, ", ")
}

func applyUpdate(bakery *models.Bakery, input UpdateBakeryInput) (addressChanged bool) {
	if input.Name != nil {
		bakery.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		bakery.Description = input.Description
	}
	if input.Address != nil {
		addressChanged = bakery.Address == nil || *bakery.Address != *input.Address
		bakery.Address = input.Address
	}
	if input.City != nil {
		if bakery.City == nil || *bakery.City != *input.City {
			addressChanged = true
		}
		bakery.City = input.City
	}
	if input.PostalCode != nil {
		if bakery.PostalCode == nil || *bakery.PostalCode != *input.PostalCode {
			addressChanged = true
		}
		bakery.PostalCode = input.PostalCode
	}
	if input.Phone != nil {
		bakery.Phone = input.Phone
	}
	if input.Latitude != nil {
		bakery.Latitude = input.Latitude
		bakery.Longitude = input.Longitude
	}
	if input.OpeningHours != nil {
		bakery.OpeningHours = input.OpeningHours
	}
	if input.ImageURL != nil {
		bakery.ImageURL = input.ImageURL
	}
	if input.IsActive != nil {
		bakery.IsActive = *input.IsActive
	}
	return addressChanged
}

func toDTOs(rows []models.Bakery) []BakeryDTO {
	result := make([]BakeryDTO, 0, len(rows))
	for i := range rows {
		result = append(result, *NewBakeryDTO(&rows[i]))
	}
	return result
}

func (s *service) loadBakery(ctx context.Context, id uuid.UUID) (*models.Bakery, error) {
	bakery, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bakery not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load bakery")
	}
	return bakery, nil
}
