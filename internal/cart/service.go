package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/julianreyes-dev/storefront-backend/pkg/db/models"
	pkgerrors "github.com/julianreyes-dev/storefront-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Identity names the cart an operation acts on. It is resolved at the HTTP
// boundary (cookie token and/or authenticated user) and passed explicitly so
// the service stays testable without a simulated request.
type Identity struct {
	CartID *uuid.UUID
	UserID *uuid.UUID
}

func (id Identity) empty() bool {
	return id.CartID == nil && id.UserID == nil
}

// View is the computed cart surface returned to callers.
type View struct {
	CartID    *uuid.UUID
	Items     []ItemView
	Subtotal  decimal.Decimal
	ItemCount int
}

// ItemView is one cart line joined with its current product data.
type ItemView struct {
	ItemID    uuid.UUID
	ProductID uuid.UUID
	Title     string
	UnitPrice decimal.Decimal
	Quantity  int
	LineTotal decimal.Decimal
}

// Service exposes the mutable pre-order selection.
type Service interface {
	AddItem(ctx context.Context, identity Identity, productID uuid.UUID, quantity int) (*View, error)
	IncrementItem(ctx context.Context, identity Identity, itemID uuid.UUID) (*View, error)
	DecrementItem(ctx context.Context, identity Identity, itemID uuid.UUID) (*View, error)
	RemoveItem(ctx context.Context, identity Identity, itemID uuid.UUID) (*View, error)
	Get(ctx context.Context, identity Identity) (*View, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	products productLoader
}

// NewService builds the cart service.
func NewService(repo Repository, tx txRunner, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, tx: tx, products: products}, nil
}

// AddItem lazily creates the cart on first use, then adds the product or bumps
// the quantity of an existing line.
func (s *service) AddItem(ctx context.Context, identity Identity, productID uuid.UUID, quantity int) (*View, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}

	var cartID uuid.UUID
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		record, err := s.resolve(ctx, repo, identity)
		if err != nil {
			return err
		}
		if record == nil {
			record = &models.Cart{UserID: identity.UserID}
			if err := repo.Create(ctx, record); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
			}
		}
		cartID = record.ID

		existing, err := repo.FindItemByProduct(ctx, record.ID, productID)
		switch {
		case err == nil:
			return repo.UpdateItemQuantity(ctx, existing.ID, existing.Quantity+quantity)
		case errors.Is(err, gorm.ErrRecordNotFound):
			return repo.CreateItem(ctx, &models.CartItem{
				CartID:    record.ID,
				ProductID: productID,
				Quantity:  quantity,
			})
		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}
	})
	if err != nil {
		return nil, err
	}

	return s.viewByID(ctx, cartID)
}

func (s *service) IncrementItem(ctx context.Context, identity Identity, itemID uuid.UUID) (*View, error) {
	return s.adjustItem(ctx, identity, itemID, +1)
}

// DecrementItem lowers the quantity, deleting the line when it reaches zero.
func (s *service) DecrementItem(ctx context.Context, identity Identity, itemID uuid.UUID) (*View, error) {
	return s.adjustItem(ctx, identity, itemID, -1)
}

func (s *service) RemoveItem(ctx context.Context, identity Identity, itemID uuid.UUID) (*View, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}

	record, err := s.load(ctx, identity)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}

	if _, err := s.repo.FindItem(ctx, record.ID, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	if err := s.repo.DeleteItem(ctx, itemID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
	}

	return s.viewByID(ctx, record.ID)
}

// Get returns the current cart. A missing cart is a normal state and comes
// back as an empty view, not an error.
func (s *service) Get(ctx context.Context, identity Identity) (*View, error) {
	record, err := s.load(ctx, identity)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return &View{Subtotal: decimal.Zero}, nil
	}
	return buildView(record), nil
}

func (s *service) adjustItem(ctx context.Context, identity Identity, itemID uuid.UUID, delta int) (*View, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}

	var cartID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		record, err := s.resolve(ctx, repo, identity)
		if err != nil {
			return err
		}
		if record == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		cartID = record.ID

		item, err := repo.FindItem(ctx, record.ID, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}

		next := item.Quantity + delta
		if next <= 0 {
			return repo.DeleteItem(ctx, item.ID)
		}
		return repo.UpdateItemQuantity(ctx, item.ID, next)
	})
	if err != nil {
		return nil, err
	}

	return s.viewByID(ctx, cartID)
}

// resolve loads the cart named by the identity, or nil when none exists yet.
func (s *service) resolve(ctx context.Context, repo Repository, identity Identity) (*models.Cart, error) {
	if identity.empty() {
		return nil, nil
	}
	if identity.CartID != nil {
		record, err := repo.FindByID(ctx, *identity.CartID)
		if err == nil {
			if record.UserID != nil && identity.UserID != nil && *record.UserID != *identity.UserID {
				return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cart belongs to another user")
			}
			return record, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
	}
	if identity.UserID != nil {
		record, err := repo.FindByUser(ctx, *identity.UserID)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
	}
	return nil, nil
}

func (s *service) load(ctx context.Context, identity Identity) (*models.Cart, error) {
	return s.resolve(ctx, s.repo, identity)
}

func (s *service) viewByID(ctx context.Context, cartID uuid.UUID) (*View, error) {
	record, err := s.repo.FindByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &View{Subtotal: decimal.Zero}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return buildView(record), nil
}

func buildView(record *models.Cart) *View {
	view := &View{
		CartID:   &record.ID,
		Subtotal: decimal.Zero,
	}
	for _, item := range record.Items {
		price := decimal.Zero
		title := ""
		if item.Product != nil {
			price = item.Product.Price
			title = item.Product.Title
		}
		lineTotal := price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		view.Items = append(view.Items, ItemView{
			ItemID:    item.ID,
			ProductID: item.ProductID,
			Title:     title,
			UnitPrice: price,
			Quantity:  item.Quantity,
			LineTotal: lineTotal,
		})
		view.Subtotal = view.Subtotal.Add(lineTotal)
		view.ItemCount += item.Quantity
	}
	return view
}
