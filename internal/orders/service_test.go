package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/julianreyes-dev/storefront-backend/pkg/db/models"
	"github.com/julianreyes-dev/storefront-backend/pkg/enums"
	pkgerrors "github.com/julianreyes-dev/storefront-backend/pkg/errors"
	"github.com/julianreyes-dev/storefront-backend/pkg/pagination"
)

type stubRepo struct {
	orders     map[uuid.UUID]*models.Order
	lastStatus enums.OrderStatus
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	return order, nil
}

func (s *stubRepo) CreateItems(ctx context.Context, items []models.OrderItem) error { return nil }

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if order, ok := s.orders[id]; ok {
		return order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	if _, err := pagination.DecodeCursor(params.Cursor); err != nil {
		return nil, "", err
	}
	var out []models.Order
	for _, order := range s.orders {
		if order.UserID != nil && *order.UserID == userID {
			out = append(out, *order)
		}
	}
	return out, "", nil
}

func (s *stubRepo) ListAll(ctx context.Context, params pagination.Params) ([]models.Order, string, error) {
	if _, err := pagination.DecodeCursor(params.Cursor); err != nil {
		return nil, "", err
	}
	var out []models.Order
	for _, order := range s.orders {
		out = append(out, *order)
	}
	return out, "", nil
}

func (s *stubRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	s.lastStatus = status
	if order, ok := s.orders[id]; ok {
		order.Status = status
	}
	return nil
}

func (s *stubRepo) SetPaymentSession(ctx context.Context, id uuid.UUID, sessionID string, status enums.OrderStatus) error {
	return nil
}

func (s *stubRepo) MarkPaid(ctx context.Context, id uuid.UUID, paymentIntentID string) error {
	return nil
}

func newOrdersService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestGetForUserHidesForeignOrders(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	stranger := uuid.New()
	order := &models.Order{ID: uuid.New(), UserID: &owner, Status: enums.OrderStatusPaid}
	repo := &stubRepo{orders: map[uuid.UUID]*models.Order{order.ID: order}}
	svc := newOrdersService(t, repo)

	if _, err := svc.GetForUser(context.Background(), owner, order.ID); err != nil {
		t.Fatalf("owner lookup: %v", err)
	}

	_, err := svc.GetForUser(context.Background(), stranger, order.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("foreign order must read as absent, got %v", err)
	}
}

func TestGetForUserRequiresAuth(t *testing.T) {
	t.Parallel()

	svc := newOrdersService(t, &stubRepo{})

	_, err := svc.GetForUser(context.Background(), uuid.Nil, uuid.New())
	if !pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestListForUserRejectsMalformedCursor(t *testing.T) {
	t.Parallel()

	svc := newOrdersService(t, &stubRepo{})

	_, _, err := svc.ListForUser(context.Background(), uuid.New(), pagination.Params{Cursor: "%%not-a-cursor%%"})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("malformed cursor must be a validation error, got %v", err)
	}
}

func TestAdminListRejectsMalformedCursor(t *testing.T) {
	t.Parallel()

	svc := newOrdersService(t, &stubRepo{})

	_, _, err := svc.AdminList(context.Background(), pagination.Params{Cursor: "%%not-a-cursor%%"})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("malformed cursor must be a validation error, got %v", err)
	}
}

func TestAdminSetStatusAppliesAnyValidStatus(t *testing.T) {
	t.Parallel()

	order := &models.Order{ID: uuid.New(), Status: enums.OrderStatusPending}
	repo := &stubRepo{orders: map[uuid.UUID]*models.Order{order.ID: order}}
	svc := newOrdersService(t, repo)

	// No ordering is enforced; delivered straight from pending is accepted.
	updated, err := svc.AdminSetStatus(context.Background(), order.ID, enums.OrderStatusDelivered)
	if err != nil {
		t.Fatalf("AdminSetStatus: %v", err)
	}
	if updated.Status != enums.OrderStatusDelivered {
		t.Fatalf("expected delivered, got %q", updated.Status)
	}

	// Moving backwards is accepted too.
	updated, err = svc.AdminSetStatus(context.Background(), order.ID, enums.OrderStatusProcessing)
	if err != nil {
		t.Fatalf("AdminSetStatus: %v", err)
	}
	if updated.Status != enums.OrderStatusProcessing {
		t.Fatalf("expected processing, got %q", updated.Status)
	}
}

func TestAdminSetStatusRejectsInvalidStatus(t *testing.T) {
	t.Parallel()

	order := &models.Order{ID: uuid.New(), Status: enums.OrderStatusPending}
	repo := &stubRepo{orders: map[uuid.UUID]*models.Order{order.ID: order}}
	svc := newOrdersService(t, repo)

	_, err := svc.AdminSetStatus(context.Background(), order.ID, enums.OrderStatus("sideways"))
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.lastStatus != enums.OrderStatus("") {
		t.Fatalf("invalid status must not be written")
	}
}

func TestAdminSetStatusUnknownOrder(t *testing.T) {
	t.Parallel()

	svc := newOrdersService(t, &stubRepo{})

	_, err := svc.AdminSetStatus(context.Background(), uuid.New(), enums.OrderStatusShipped)
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
