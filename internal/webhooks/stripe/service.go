package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/julianreyes-dev/storefront-backend/internal/orders"
	pkgerrors "github.com/julianreyes-dev/storefront-backend/pkg/errors"
	"github.com/julianreyes-dev/storefront-backend/pkg/logger"
	"github.com/julianreyes-dev/storefront-backend/pkg/metrics"
	stripeclient "github.com/julianreyes-dev/storefront-backend/pkg/stripe"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams wires the webhook service dependencies.
type ServiceParams struct {
	OrdersRepo        orders.Repository
	TransactionRunner txRunner
	Logger            *logger.Logger
	Metrics           *metrics.CheckoutMetrics
}

// Service applies payment-gateway notifications to the order ledger.
type Service struct {
	ordersRepo orders.Repository
	txRunner   txRunner
	logg       *logger.Logger
	metrics    *metrics.CheckoutMetrics
}

// NewService builds the webhook service.
func NewService(params ServiceParams) (*Service, error) {
	if params.OrdersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &Service{
		ordersRepo: params.OrdersRepo,
		txRunner:   params.TransactionRunner,
		logg:       params.Logger,
		metrics:    params.Metrics,
	}, nil
}

// HandleEvent routes a verified gateway event. Completion events mutate the
// ledger; everything else is acknowledged and dropped. Replaying a completion
// event re-applies the same update, so duplicate delivery is harmless.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		err := s.handleSessionCompleted(ctx, event)
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		s.metrics.IncWebhookEvent(string(event.Type), outcome)
		return err
	default:
		s.metrics.IncWebhookEvent(string(event.Type), "ignored")
		return nil
	}
}

func (s *Service) handleSessionCompleted(ctx context.Context, event *stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session event")
	}

	// The order id was stamped into metadata at session-creation time.
	// Missing or unknown ids surface as 400s so integration bugs stay visible.
	rawOrderID := session.Metadata[stripeclient.MetadataOrderIDKey]
	if rawOrderID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "checkout session metadata missing order id")
	}
	orderID, err := uuid.Parse(rawOrderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id in session metadata")
	}

	paymentIntentID := ""
	if session.PaymentIntent != nil {
		paymentIntentID = session.PaymentIntent.ID
	}

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.ordersRepo.WithTx(tx)

		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "unknown order id in session metadata")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		if err := repo.MarkPaid(ctx, order.ID, paymentIntentID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}

		if s.logg != nil {
			logCtx := s.logg.WithOrderID(ctx, order.ID.String())
			s.logg.Info(logCtx, "order marked paid")
		}
		return nil
	})
}
