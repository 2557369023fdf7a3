package products

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/julianreyes-dev/storefront-backend/pkg/db/models"
	pkgerrors "github.com/julianreyes-dev/storefront-backend/pkg/errors"
	"github.com/julianreyes-dev/storefront-backend/pkg/pagination"
)

type stubProductRepo struct {
	products  map[uuid.UUID]*models.Product
	createErr error
	updated   *models.Product
}

func (s *stubProductRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if product, ok := s.products[id]; ok {
		return product, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProductRepo) List(ctx context.Context, params pagination.Params, activeOnly bool) ([]models.Product, string, error) {
	if _, err := pagination.DecodeCursor(params.Cursor); err != nil {
		return nil, "", err
	}
	var out []models.Product
	for _, product := range s.products {
		if activeOnly && !product.IsActive {
			continue
		}
		out = append(out, *product)
	}
	return out, "", nil
}

func (s *stubProductRepo) Create(ctx context.Context, product *models.Product) error {
	if s.createErr != nil {
		return s.createErr
	}
	product.ID = uuid.New()
	if s.products == nil {
		s.products = map[uuid.UUID]*models.Product{}
	}
	s.products[product.ID] = product
	return nil
}

func (s *stubProductRepo) Update(ctx context.Context, product *models.Product) error {
	s.updated = product
	return nil
}

func (s *stubProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.products, id)
	return nil
}

func newProductService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestCreateNormalizesSlug(t *testing.T) {
	t.Parallel()

	repo := &stubProductRepo{}
	svc := newProductService(t, repo)

	product, err := svc.Create(context.Background(), CreateInput{
		Slug:     "  Cool-Widget  ",
		Title:    "  Cool Widget ",
		Price:    decimal.RequireFromString("12.99"),
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if product.Slug != "cool-widget" {
		t.Fatalf("expected normalized slug, got %q", product.Slug)
	}
	if product.Title != "Cool Widget" {
		t.Fatalf("expected trimmed title, got %q", product.Title)
	}
}

func TestCreateSlugConflict(t *testing.T) {
	t.Parallel()

	repo := &stubProductRepo{createErr: errors.New(`duplicate key value violates unique constraint "idx_products_slug"`)}
	svc := newProductService(t, repo)

	_, err := svc.Create(context.Background(), CreateInput{
		Slug:  "widget",
		Title: "Widget",
		Price: decimal.RequireFromString("1.00"),
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateRejectsNegativePrice(t *testing.T) {
	t.Parallel()

	svc := newProductService(t, &stubProductRepo{})

	_, err := svc.Create(context.Background(), CreateInput{
		Slug:  "widget",
		Title: "Widget",
		Price: decimal.RequireFromString("-1.00"),
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateAppliesPartialFields(t *testing.T) {
	t.Parallel()

	existing := &models.Product{
		ID:        uuid.New(),
		Slug:      "widget",
		Title:     "Widget",
		Price:     decimal.RequireFromString("10.00"),
		Inventory: 5,
		IsActive:  true,
	}
	repo := &stubProductRepo{products: map[uuid.UUID]*models.Product{existing.ID: existing}}
	svc := newProductService(t, repo)

	newPrice := decimal.RequireFromString("11.50")
	updated, err := svc.Update(context.Background(), existing.ID, UpdateInput{Price: &newPrice})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !updated.Price.Equal(newPrice) {
		t.Fatalf("price not applied: %s", updated.Price)
	}
	if updated.Title != "Widget" || updated.Inventory != 5 {
		t.Fatalf("untouched fields must survive: %+v", updated)
	}
}

func TestListRejectsMalformedCursor(t *testing.T) {
	t.Parallel()

	svc := newProductService(t, &stubProductRepo{})

	_, _, err := svc.List(context.Background(), pagination.Params{Cursor: "%%not-a-cursor%%"}, true)
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("malformed cursor must be a validation error, got %v", err)
	}
}

func TestGetUnknownProduct(t *testing.T) {
	t.Parallel()

	svc := newProductService(t, &stubProductRepo{})

	_, err := svc.Get(context.Background(), uuid.New())
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
