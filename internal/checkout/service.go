package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/julianreyes-dev/storefront-backend/internal/cart"
	"github.com/julianreyes-dev/storefront-backend/internal/orders"
	"github.com/julianreyes-dev/storefront-backend/pkg/config"
	"github.com/julianreyes-dev/storefront-backend/pkg/db/models"
	"github.com/julianreyes-dev/storefront-backend/pkg/enums"
	pkgerrors "github.com/julianreyes-dev/storefront-backend/pkg/errors"
	"github.com/julianreyes-dev/storefront-backend/pkg/logger"
	"github.com/julianreyes-dev/storefront-backend/pkg/metrics"
	stripeclient "github.com/julianreyes-dev/storefront-backend/pkg/stripe"
)

// ErrCartEmpty signals checkout was attempted with no cart or an empty one.
// No writes happen on this path.
var ErrCartEmpty = pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")

var centsFactor = decimal.NewFromInt(100)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type paymentGateway interface {
	CreateCheckoutSession(ctx context.Context, params stripeclient.SessionParams) (*stripeclient.Session, error)
}

// Result is what a successful checkout hands back: the committed order and the
// hosted payment page the shopper must be redirected to.
type Result struct {
	Order      *models.Order
	PaymentURL string
}

// Service converts a cart into an order and opens a payment session for it.
type Service interface {
	Execute(ctx context.Context, identity cart.Identity) (*Result, error)
}

type service struct {
	tx         txRunner
	cartRepo   cart.Repository
	ordersRepo orders.Repository
	gateway    paymentGateway
	cfg        config.CheckoutConfig
	logg       *logger.Logger
	metrics    *metrics.CheckoutMetrics
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	cartRepo cart.Repository,
	ordersRepo orders.Repository,
	gateway paymentGateway,
	cfg config.CheckoutConfig,
	logg *logger.Logger,
	checkoutMetrics *metrics.CheckoutMetrics,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	return &service{
		tx:         tx,
		cartRepo:   cartRepo,
		ordersRepo: ordersRepo,
		gateway:    gateway,
		cfg:        cfg,
		logg:       logg,
		metrics:    checkoutMetrics,
	}, nil
}

// Execute runs the commit-then-compensate checkout flow.
//
// Step 1 is one atomic transaction: read the cart with current product prices,
// create the order (statusless) and its frozen items, delete the cart. Step 2
// happens after commit: open a hosted payment session. If step 2 throws, the
// already-committed order is marked "failed" by a best-effort compensating
// write and the gateway error propagates unchanged.
func (s *service) Execute(ctx context.Context, identity cart.Identity) (*Result, error) {
	start := time.Now()
	result, err := s.execute(ctx, identity)
	outcome := "success"
	if err != nil {
		outcome = "error"
		if errors.Is(err, ErrCartEmpty) {
			outcome = "cart_empty"
		} else if pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
			outcome = "gateway_failed"
		}
	}
	s.metrics.ObserveCheckout(outcome, time.Since(start))
	return result, err
}

func (s *service) execute(ctx context.Context, identity cart.Identity) (*Result, error) {
	if identity.CartID == nil && identity.UserID == nil {
		return nil, ErrCartEmpty
	}

	var (
		order     *models.Order
		lineItems []stripeclient.SessionLineItem
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)

		record, err := s.loadCart(ctx, cartRepo, identity)
		if err != nil {
			return err
		}
		if record == nil || len(record.Items) == 0 {
			return ErrCartEmpty
		}

		// Totals use the product's price right now, not anything cached on
		// the cart item: the buyer pays current pricing.
		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(record.Items))
		lineItems = make([]stripeclient.SessionLineItem, 0, len(record.Items))
		for _, item := range record.Items {
			product := item.Product
			if product == nil {
				return pkgerrors.New(pkgerrors.CodeDependency, "cart item references missing product")
			}
			total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
			items = append(items, models.OrderItem{
				ProductID: product.ID,
				Name:      product.Title,
				Quantity:  item.Quantity,
				UnitPrice: product.Price,
			})
			line := stripeclient.SessionLineItem{
				Name:       product.Title,
				UnitAmount: product.Price.Mul(centsFactor).Round(0).IntPart(),
				Quantity:   int64(item.Quantity),
			}
			if product.Description != nil {
				line.Description = *product.Description
			}
			if product.ImageURL != nil {
				line.ImageURL = *product.ImageURL
			}
			lineItems = append(lineItems, line)
		}

		userID := record.UserID
		if userID == nil {
			userID = identity.UserID
		}
		order, err = ordersRepo.Create(ctx, &models.Order{
			UserID: userID,
			Total:  total,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := ordersRepo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}
		order.Items = items

		if err := cartRepo.DeleteCart(ctx, record.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, stripeclient.SessionParams{
		OrderID:    order.ID.String(),
		Currency:   s.cfg.CurrencyCode,
		LineItems:  lineItems,
		SuccessURL: s.cfg.SuccessURL(),
		CancelURL:  s.cfg.CancelURL(),
	})
	if err != nil {
		s.compensateFailedSession(ctx, order, err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment session")
	}

	if err := s.ordersRepo.SetPaymentSession(ctx, order.ID, session.ID, enums.OrderStatusPending); err != nil {
		// The session exists but the linkage write failed; the order stays
		// statusless, which operators can find and reconcile.
		if s.logg != nil {
			logCtx := s.logg.WithOrderID(ctx, order.ID.String())
			s.logg.Error(logCtx, "checkout.link_payment_session_failed", err)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link payment session")
	}

	order.Status = enums.OrderStatusPending
	sessionID := session.ID
	order.StripeSessionID = &sessionID

	return &Result{Order: order, PaymentURL: session.URL}, nil
}

// compensateFailedSession marks the committed order failed after the gateway
// call threw. A failure of the compensating write itself leaves the order
// statusless and must be loud in the logs.
func (s *service) compensateFailedSession(ctx context.Context, order *models.Order, cause error) {
	if err := s.ordersRepo.UpdateStatus(ctx, order.ID, enums.OrderStatusFailed); err != nil {
		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"order_id":      order.ID.String(),
				"gateway_error": cause.Error(),
			})
			s.logg.Error(logCtx, "checkout.compensating_write_failed", err)
		}
		return
	}
	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Error(logCtx, "checkout.payment_session_failed", cause)
	}
}

func (s *service) loadCart(ctx context.Context, repo cart.Repository, identity cart.Identity) (*models.Cart, error) {
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
