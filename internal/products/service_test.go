package product

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fornihq/forni-backend/internal/authz"
	"github.com/fornihq/forni-backend/pkg/db/models"
	"github.com/fornihq/forni-backend/pkg/enums"
	pkgerrors "github.com/fornihq/forni-backend/pkg/errors"
)

type stubProductRepo struct {
	products map[uuid.UUID]*models.Product
	bakeries map[uuid.UUID]*models.Bakery
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{
		products: map[uuid.UUID]*models.Product{},
		bakeries: map[uuid.UUID]*models.Bakery{},
	}
}

func (s *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *product
	if bakery, ok := s.bakeries[product.BakeryID]; ok {
		copied.Bakery = bakery
	}
	return &copied, nil
}

func (s *stubProductRepo) ListByBakery(_ context.Context, bakeryID uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	for _, p := range s.products {
		if p.BakeryID == bakeryID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *stubProductRepo) ListAvailable(_ context.Context) ([]models.Product, error) {
	var out []models.Product
	for _, p := range s.products {
		if p.IsAvailable {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *stubProductRepo) Create(_ context.Context, product *models.Product) (*models.Product, error) {
	copied := *product
	s.products[product.ID] = &copied
	return product, nil
}

func (s *stubProductRepo) Update(_ context.Context, product *models.Product) (*models.Product, error) {
	copied := *product
	copied.Bakery = nil
	s.products[product.ID] = &copied
	return product, nil
}

func (s *stubProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.products, id)
	return nil
}

func (s *stubProductRepo) findBakery(_ context.Context, id uuid.UUID) (*models.Bakery, error) {
	bakery, ok := s.bakeries[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return bakery, nil
}

type stubBakeryLoader struct {
	repo *stubProductRepo
}

func (l stubBakeryLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.Bakery, error) {
	return l.repo.findBakery(ctx, id)
}

func newProductServiceForTest(t *testing.T) (Service, *stubProductRepo) {
	t.Helper()
	repo := newStubProductRepo()
	svc, err := NewService(repo, stubBakeryLoader{repo: repo})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return svc, repo
}

func seedBakery(repo *stubProductRepo, ownerID uuid.UUID) *models.Bakery {
	bakery := &models.Bakery{ID: uuid.New(), OwnerID: ownerID, Name: "Forno Reale", IsActive: true}
	repo.bakeries[bakery.ID] = bakery
	return bakery
}

func TestCreateProductAsOwner(t *testing.T) {
	svc, repo := newProductServiceForTest(t)

	ownerID := uuid.New()
	bakery := seedBakery(repo, ownerID)
	actor := authz.Actor{UserID: ownerID, Role: enums.UserRoleBakeryOwner}

	dto, err := svc.Create(context.Background(), actor, CreateProductInput{
		BakeryID:    bakery.ID,
		Name:        "  Sourdough Loaf ",
		Price:       decimal.RequireFromString("5.50"),
		Quantity:    12,
		Tags:        []string{"Bread", "bread", " vegan "},
		IsAvailable: true,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if dto.Name != "Sourdough Loaf" {
		t.Fatalf("expected trimmed name, got %q", dto.Name)
	}
	if len(dto.Tags) != 2 || dto.Tags[0] != "bread" || dto.Tags[1] != "vegan" {
		t.Fatalf("expected deduped lowercase tags, got %v", dto.Tags)
	}
	if _, ok := repo.products[dto.ID]; !ok {
		t.Fatal("expected product persisted")
	}
}

func TestCreateProductForeignBakeryForbidden(t *testing.T) {
	svc, repo := newProductServiceForTest(t)

	bakery := seedBakery(repo, uuid.New())
	stranger := authz.Actor{UserID: uuid.New(), Role: enums.UserRoleBakeryOwner}

	_, err := svc.Create(context.Background(), stranger, CreateProductInput{
		BakeryID: bakery.ID,
		Name:     "Baguette",
		Price:    decimal.RequireFromString("2.00"),
	})
	if err == nil {
		t.Fatal("expected error for foreign bakery")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestCreateProductValidation(t *testing.T) {
	svc, repo := newProductServiceForTest(t)
	bakery := seedBakery(repo, uuid.New())
	admin := authz.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}

	cases := []struct {
		name  string
		input CreateProductInput
	}{
		{"blank name", CreateProductInput{BakeryID: bakery.ID, Name: "  ", Price: decimal.NewFromInt(1)}},
		{"negative price", CreateProductInput{BakeryID: bakery.ID, Name: "Roll", Price: decimal.RequireFromString("-0.01")}},
		{"negative quantity", CreateProductInput{BakeryID: bakery.ID, Name: "Roll", Price: decimal.NewFromInt(1), Quantity: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), admin, tc.input)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestUpdateProductAdminBypassesOwnership(t *testing.T) {
	svc, repo := newProductServiceForTest(t)

	bakery := seedBakery(repo, uuid.New())
	product := &models.Product{
		ID:       uuid.New(),
		BakeryID: bakery.ID,
		Name:     "Focaccia",
		Price:    decimal.RequireFromString("4.00"),
		Quantity: 3,
	}
	repo.products[product.ID] = product

	admin := authz.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	newPrice := decimal.RequireFromString("3.50")
	available := true

	dto, err := svc.Update(context.Background(), admin, product.ID, UpdateProductInput{
		Price:       &newPrice,
		IsAvailable: &available,
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if !dto.Price.Equal(newPrice) || !dto.IsAvailable {
		t.Fatalf("expected updated fields, got price=%s available=%v", dto.Price, dto.IsAvailable)
	}
}

func TestUpdateProductNotFound(t *testing.T) {
	svc, _ := newProductServiceForTest(t)
	admin := authz.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}

	_, err := svc.Update(context.Background(), admin, uuid.New(), UpdateProductInput{})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestDeleteProductOwner(t *testing.T) {
	svc, repo := newProductServiceForTest(t)

	ownerID := uuid.New()
	bakery := seedBakery(repo, ownerID)
	product := &models.Product{ID: uuid.New(), BakeryID: bakery.ID, Name: "Ciabatta", Price: decimal.NewFromInt(3)}
	repo.products[product.ID] = product

	actor := authz.Actor{UserID: ownerID, Role: enums.UserRoleBakeryOwner}
	if err := svc.Delete(context.Background(), actor, product.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, ok := repo.products[product.ID]; ok {
		t.Fatal("expected product removed")
	}
}

func TestListProductsFiltersByTags(t *testing.T) {
	svc, repo := newProductServiceForTest(t)
	bakery := seedBakery(repo, uuid.New())

	vegan := &models.Product{ID: uuid.New(), BakeryID: bakery.ID, Name: "Vegan Roll", Tags: pq.StringArray{"vegan"}, IsAvailable: true}
	plain := &models.Product{ID: uuid.New(), BakeryID: bakery.ID, Name: "Butter Croissant", Tags: pq.StringArray{"pastry"}, IsAvailable: true}
	hidden := &models.Product{ID: uuid.New(), BakeryID: bakery.ID, Name: "Old Stock", Tags: pq.StringArray{"vegan"}, IsAvailable: false}
	repo.products[vegan.ID] = vegan
	repo.products[plain.ID] = plain
	repo.products[hidden.ID] = hidden

	result, err := svc.List(context.Background(), ListFilter{Tags: []string{"VEGAN"}})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(result) != 1 || result[0].ID != vegan.ID {
		t.Fatalf("expected only the available vegan product, got %+v", result)
	}

	all, err := svc.List(context.Background(), ListFilter{BakeryID: &bakery.ID})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected all bakery products regardless of availability, got %d", len(all))
	}
}
