package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/julianreyes-dev/storefront-backend/api/middleware"
	"github.com/julianreyes-dev/storefront-backend/api/responses"
	"github.com/julianreyes-dev/storefront-backend/api/validators"
	ordersvc "github.com/julianreyes-dev/storefront-backend/internal/orders"
	"github.com/julianreyes-dev/storefront-backend/pkg/db/models"
	pkgerrors "github.com/julianreyes-dev/storefront-backend/pkg/errors"
	"github.com/julianreyes-dev/storefront-backend/pkg/logger"
)

// OrderList returns the authenticated shopper's order history.
func OrderList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, next, err := svc.ListForUser(r.Context(), middleware.UserIDFromContext(r.Context()), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderListResponse(rows, next))
	}
}

func OrderDetail(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetForUser(r.Context(), middleware.UserIDFromContext(r.Context()), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type orderItemResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	UnitPrice string    `json:"unit_price"`
}

type orderResponse struct {
	OrderID   uuid.UUID           `json:"order_id"`
	Status    string              `json:"status"`
	Total     string              `json:"total"`
	Items     []orderItemResponse `json:"items"`
	CreatedAt time.Time           `json:"created_at"`
}

type orderListResponse struct {
	Orders     []orderResponse `json:"orders"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

func newOrderResponse(order *models.Order) orderResponse {
	out := orderResponse{
		OrderID:   order.ID,
		Status:    order.Status.String(),
		Total:     order.Total.StringFixed(2),
		Items:     make([]orderItemResponse, 0, len(order.Items)),
		CreatedAt: order.CreatedAt,
	}
	for _, item := range order.Items {
		out.Items = append(out.Items, orderItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(2),
		})
	}
	return out
}

func newOrderListResponse(rows []models.Order, next string) orderListResponse {
	out := orderListResponse{
		Orders:     make([]orderResponse, 0, len(rows)),
		NextCursor: next,
	}
	for i := range rows {
		out.Orders = append(out.Orders, newOrderResponse(&rows[i]))
	}
	return out
}
