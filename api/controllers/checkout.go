package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/julianreyes-dev/storefront-backend/api/responses"
	checkoutsvc "github.com/julianreyes-dev/storefront-backend/internal/checkout"
	"github.com/julianreyes-dev/storefront-backend/pkg/config"
	pkgerrors "github.com/julianreyes-dev/storefront-backend/pkg/errors"
	"github.com/julianreyes-dev/storefront-backend/pkg/logger"
)

// Checkout converts the shopper's cart into an order and returns the hosted
// payment page URL. The cart is consumed, so the cart cookie is cleared on
// success.
func Checkout(svc checkoutsvc.Service, cfg config.CheckoutConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		result, err := svc.Execute(r.Context(), cartIdentity(r, cfg))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		clearCartCookie(w, cfg)
		responses.WriteSuccessStatus(w, http.StatusCreated, newCheckoutResponse(result))
	}
}

type checkoutResponse struct {
	OrderID    uuid.UUID `json:"order_id"`
	Status     string    `json:"status"`
	Total      string    `json:"total"`
	PaymentURL string    `json:"payment_url"`
}

func newCheckoutResponse(result *checkoutsvc.Result) checkoutResponse {
	if result == nil || result.Order == nil {
		return checkoutResponse{}
	}
	return checkoutResponse{
		OrderID:    result.Order.ID,
		Status:     result.Order.Status.String(),
		Total:      result.Order.Total.StringFixed(2),
		PaymentURL: result.PaymentURL,
	}
}
