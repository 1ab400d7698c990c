package bakery

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fornihq/forni-backend/internal/authz"
	"github.com/fornihq/forni-backend/pkg/db/models"
	"github.com/fornihq/forni-backend/pkg/enums"
	pkgerrors "github.com/fornihq/forni-backend/pkg/errors"
	"github.com/fornihq/forni-backend/pkg/geocode"
)

type stubBakeryRepo struct {
	rows map[uuid.UUID]*models.Bakery
}

func newStubBakeryRepo(rows ...*models.Bakery) *stubBakeryRepo {
	repo := &stubBakeryRepo{rows: map[uuid.UUID]*models.Bakery{}}
	for _, row := range rows {
		repo.rows[row.ID] = row
	}
	return repo
}

func (s *stubBakeryRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Bakery, error) {
	if row, ok := s.rows[id]; ok && row.DeletedAt == nil {
		return row, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubBakeryRepo) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Bakery, error) {
	var result []models.Bakery
	for _, row := range s.rows {
		if row.OwnerID == ownerID && row.DeletedAt == nil {
			result = append(result, *row)
		}
	}
	return result, nil
}

func (s *stubBakeryRepo) ListActive(ctx context.Context) ([]models.Bakery, error) {
	var result []models.Bakery
	for _, row := range s.rows {
		if row.IsActive && row.DeletedAt == nil {
			result = append(result, *row)
		}
	}
	return result, nil
}

func (s *stubBakeryRepo) ListActiveWithCoordinates(ctx context.Context) ([]models.Bakery, error) {
	var result []models.Bakery
	for _, row := range s.rows {
		if row.IsActive && row.DeletedAt == nil && row.Latitude != nil && row.Longitude != nil {
			result = append(result, *row)
		}
	}
	return result, nil
}

func (s *stubBakeryRepo) ListByProductTag(ctx context.Context, tag string) ([]models.Bakery, error) {
	return nil, nil
}

func (s *stubBakeryRepo) Create(ctx context.Context, bakery *models.Bakery) (*models.Bakery, error) {
	s.rows[bakery.ID] = bakery
	return bakery, nil
}

func (s *stubBakeryRepo) Update(ctx context.Context, bakery *models.Bakery) (*models.Bakery, error) {
	s.rows[bakery.ID] = bakery
	return bakery, nil
}

func (s *stubBakeryRepo) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	if row, ok := s.rows[id]; ok {
		row.DeletedAt = &at
		row.IsActive = false
	}
	return nil
}

type stubGeocoder struct {
	result *geocode.Location
	err    error
	calls  int
}

func (s *stubGeocoder) Search(ctx context.Context, address string) (*geocode.Location, error) {
	s.calls++
	return s.result, s.err
}

func ownerActor() authz.Actor {
	return authz.Actor{UserID: uuid.New(), Role: enums.UserRoleBakeryOwner}
}

func TestCreateGeocodesMissingCoordinates(t *testing.T) {
	repo := newStubBakeryRepo()
	geocoder := &stubGeocoder{result: &geocode.Location{Latitude: 48.87, Longitude: 2.33}}
	svc, err := NewService(repo, geocoder, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	address := "12 Rue de la Paix"
	city := "Paris"
	dto, err := svc.Create(context.Background(), ownerActor(), CreateBakeryInput{
		Name:    "Boulangerie de la Paix",
		Address: &address,
		City:    &city,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if geocoder.calls != 1 {
		t.Fatalf("expected one geocode call, got %d", geocoder.calls)
	}
	if dto.Latitude == nil || *dto.Latitude != 48.87 {
		t.Fatalf("expected geocoded latitude, got %v", dto.Latitude)
	}
}

func TestCreateGeocodeFailureLeavesCoordinatesNil(t *testing.T) {
	repo := newStubBakeryRepo()
	geocoder := &stubGeocoder{err: fmt.Errorf("nominatim unreachable")}
	svc, err := NewService(repo, geocoder, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	address := "12 Rue de la Paix"
	dto, err := svc.Create(context.Background(), ownerActor(), CreateBakeryInput{
		Name:    "Boulangerie de la Paix",
		Address: &address,
	})
	if err != nil {
		t.Fatalf("create should tolerate geocode failure, got %v", err)
	}
	if dto.Latitude != nil || dto.Longitude != nil {
		t.Fatal("expected coordinates to stay nil on geocode failure")
	}
}

func TestCreateKeepsExplicitCoordinates(t *testing.T) {
	repo := newStubBakeryRepo()
	geocoder := &stubGeocoder{result: &geocode.Location{Latitude: 1, Longitude: 1}}
	svc, _ := NewService(repo, geocoder, nil)

	lat, lng := 45.76, 4.83
	dto, err := svc.Create(context.Background(), ownerActor(), CreateBakeryInput{
		Name:      "Boulangerie Mercière",
		Latitude:  &lat,
		Longitude: &lng,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if geocoder.calls != 0 {
		t.Fatal("expected no geocode call when coordinates are explicit")
	}
	if *dto.Latitude != lat {
		t.Fatalf("expected explicit latitude, got %v", *dto.Latitude)
	}
}

func TestUpdateForbiddenForStranger(t *testing.T) {
	owner := uuid.New()
	bakery := &models.Bakery{ID: uuid.New(), OwnerID: owner, Name: "Du Coin", IsActive: true}
	repo := newStubBakeryRepo(bakery)
	svc, _ := NewService(repo, nil, nil)

	stranger := authz.Actor{UserID: uuid.New(), Role: enums.UserRoleBakeryOwner}
	name := "Hijacked"
	_, err := svc.Update(context.Background(), stranger, bakery.ID, UpdateBakeryInput{Name: &name})
	if err == nil {
		t.Fatal("expected forbidden error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden code, got %v", err)
	}
}

func TestUpdateAdminAllowed(t *testing.T) {
	bakery := &models.Bakery{ID: uuid.New(), OwnerID: uuid.New(), Name: "Du Coin", IsActive: true}
	repo := newStubBakeryRepo(bakery)
	svc, _ := NewService(repo, nil, nil)

	admin := authz.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	name := "Renamed"
	dto, err := svc.Update(context.Background(), admin, bakery.ID, UpdateBakeryInput{Name: &name})
	if err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if dto.Name != "Renamed" {
		t.Fatalf("expected renamed bakery, got %q", dto.Name)
	}
}

func TestNearbyFiltersAndSortsByDistance(t *testing.T) {
	ptr := func(v float64) *float64 { return &v }
	paris := &models.Bakery{ID: uuid.New(), OwnerID: uuid.New(), Name: "Paris", IsActive: true, Latitude: ptr(48.8566), Longitude: ptr(2.3522)}
	suburb := &models.Bakery{ID: uuid.New(), OwnerID: uuid.New(), Name: "Montreuil", IsActive: true, Latitude: ptr(48.8638), Longitude: ptr(2.4485)}
	lyon := &models.Bakery{ID: uuid.New(), OwnerID: uuid.New(), Name: "Lyon", IsActive: true, Latitude: ptr(45.764), Longitude: ptr(4.8357)}
	noCoords := &models.Bakery{ID: uuid.New(), OwnerID: uuid.New(), Name: "Nowhere", IsActive: true}

	repo := newStubBakeryRepo(paris, suburb, lyon, noCoords)
	svc, _ := NewService(repo, nil, nil)

	result, err := svc.Nearby(context.Background(), NearbyQuery{Latitude: 48.8566, Longitude: 2.3522})
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 bakeries within default radius, got %d", len(result))
	}
	if result[0].Name != "Paris" || result[1].Name != "Montreuil" {
		t.Fatalf("expected distance ordering, got %s then %s", result[0].Name, result[1].Name)
	}
	if result[0].DistanceKm == nil || *result[1].DistanceKm <= *result[0].DistanceKm {
		t.Fatal("expected increasing distances")
	}
}

func TestNearbyRejectsInvalidCoordinates(t *testing.T) {
	svc, _ := NewService(newStubBakeryRepo(), nil, nil)
	_, err := svc.Nearby(context.Background(), NearbyQuery{Latitude: 123, Longitude: 0})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestDeleteSoftDeletes(t *testing.T) {
	owner := uuid.New()
	bakery := &models.Bakery{ID: uuid.New(), OwnerID: owner, Name: "Du Coin", IsActive: true}
	repo := newStubBakeryRepo(bakery)
	svc, _ := NewService(repo, nil, nil)

	actor := authz.Actor{UserID: owner, Role: enums.UserRoleBakeryOwner}
	if err := svc.Delete(context.Background(), actor, bakery.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if bakery.DeletedAt == nil || bakery.IsActive {
		t.Fatal("expected soft delete to mark the row")
	}

	if _, err := svc.Get(context.Background(), bakery.ID); err == nil {
		t.Fatal("expected not found after delete")
	}
}
