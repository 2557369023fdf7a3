package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/julianreyes-dev/storefront-backend/api/middleware"
	"github.com/julianreyes-dev/storefront-backend/api/responses"
	"github.com/julianreyes-dev/storefront-backend/api/validators"
	cartsvc "github.com/julianreyes-dev/storefront-backend/internal/cart"
	"github.com/julianreyes-dev/storefront-backend/pkg/config"
	pkgerrors "github.com/julianreyes-dev/storefront-backend/pkg/errors"
	"github.com/julianreyes-dev/storefront-backend/pkg/logger"
)

type addCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

// CartFetch returns the current cart. A shopper with no cart yet gets an
// empty view.
func CartFetch(svc cartsvc.Service, cfg config.CheckoutConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		view, err := svc.Get(r.Context(), cartIdentity(r, cfg))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(view))
	}
}

// CartAddItem puts a product into the cart, creating the cart on first use.
// Anonymous shoppers get the cart id back in a cookie.
func CartAddItem(svc cartsvc.Service, cfg config.CheckoutConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.AddItem(r.Context(), cartIdentity(r, cfg), payload.ProductID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		setCartCookie(w, cfg, view)
		responses.WriteSuccess(w, newCartResponse(view))
	}
}

func CartItemIncrement(svc cartsvc.Service, cfg config.CheckoutConfig, logg *logger.Logger) http.HandlerFunc {
	return cartItemAdjust(svc, cfg, logg, svcIncrement)
}

func CartItemDecrement(svc cartsvc.Service, cfg config.CheckoutConfig, logg *logger.Logger) http.HandlerFunc {
	return cartItemAdjust(svc, cfg, logg, svcDecrement)
}

func CartItemRemove(svc cartsvc.Service, cfg config.CheckoutConfig, logg *logger.Logger) http.HandlerFunc {
	return cartItemAdjust(svc, cfg, logg, svcRemove)
}

type cartItemOp int

const (
	svcIncrement cartItemOp = iota
	svcDecrement
	svcRemove
)

func cartItemAdjust(svc cartsvc.Service, cfg config.CheckoutConfig, logg *logger.Logger, op cartItemOp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		itemID, err := pathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		identity := cartIdentity(r, cfg)
		var view *cartsvc.View
		switch op {
		case svcIncrement:
			view, err = svc.IncrementItem(r.Context(), identity, itemID)
		case svcDecrement:
			view, err = svc.DecrementItem(r.Context(), identity, itemID)
		default:
			view, err = svc.RemoveItem(r.Context(), identity, itemID)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(view))
	}
}

type cartItemResponse struct {
	ItemID    uuid.UUID `json:"item_id"`
	ProductID uuid.UUID `json:"product_id"`
	Title     string    `json:"title"`
	UnitPrice string    `json:"unit_price"`
	Quantity  int       `json:"quantity"`
	LineTotal string    `json:"line_total"`
}

type cartResponse struct {
	CartID    *uuid.UUID         `json:"cart_id,omitempty"`
	Items     []cartItemResponse `json:"items"`
	Subtotal  string             `json:"subtotal"`
	ItemCount int                `json:"item_count"`
}

func newCartResponse(view *cartsvc.View) cartResponse {
	out := cartResponse{
		CartID:    view.CartID,
		Items:     make([]cartItemResponse, 0, len(view.Items)),
		Subtotal:  view.Subtotal.StringFixed(2),
		ItemCount: view.ItemCount,
	}
	for _, item := range view.Items {
		out.Items = append(out.Items, cartItemResponse{
			ItemID:    item.ItemID,
			ProductID: item.ProductID,
			Title:     item.Title,
			UnitPrice: item.UnitPrice.StringFixed(2),
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal.StringFixed(2),
		})
	}
	return out
}

// cartIdentity resolves who the cart operation is for: the cart cookie when
// present plus the authenticated user, either alone, or neither.
func cartIdentity(r *http.Request, cfg config.CheckoutConfig) cartsvc.Identity {
	identity := cartsvc.Identity{}
	if userID := middleware.UserIDFromContext(r.Context()); userID != uuid.Nil {
		id := userID
		identity.UserID = &id
	}
	if cookie, err := r.Cookie(cfg.CartCookieName); err == nil {
		if parsed, err := uuid.Parse(cookie.Value); err == nil {
			id := parsed
			identity.CartID = &id
		}
	}
	return identity
}

func setCartCookie(w http.ResponseWriter, cfg config.CheckoutConfig, view *cartsvc.View) {
	if view == nil || view.CartID == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CartCookieName,
		Value:    view.CartID.String(),
		Path:     "/",
		Expires:  time.Now().Add(cfg.CartCookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearCartCookie(w http.ResponseWriter, cfg config.CheckoutConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CartCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
