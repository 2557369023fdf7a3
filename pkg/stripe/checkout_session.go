package stripe

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v84"
)

// MetadataOrderIDKey is the metadata key carrying the internal order id on a
// hosted checkout session. The webhook handler reads the same key back.
const MetadataOrderIDKey = "order_id"

// SessionLineItem describes one purchasable line on a hosted checkout session.
// UnitAmount is in the currency's minor units.
type SessionLineItem struct {
	Name        string
	Description string
	ImageURL    string
	UnitAmount  int64
	Quantity    int64
}

// SessionParams carries everything needed to open a hosted checkout session.
type SessionParams struct {
	OrderID    string
	Currency   string
	LineItems  []SessionLineItem
	SuccessURL string
	CancelURL  string
}

// Session is the subset of the gateway response the checkout flow consumes.
type Session struct {
	ID  string
	URL string
}

// CreateCheckoutSession opens a payment-mode hosted checkout session. A
// response missing either the id or the redirect URL counts as a failure.
func (c *Client) CreateCheckoutSession(ctx context.Context, params SessionParams) (*Session, error) {
	if c == nil || c.api == nil {
		return nil, errors.New("stripe client not initialized")
	}
	if params.OrderID == "" {
		return nil, errors.New("order id is required")
	}
	if len(params.LineItems) == 0 {
		return nil, errors.New("at least one line item is required")
	}

	lineItems := make([]*stripe.CheckoutSessionCreateLineItemParams, 0, len(params.LineItems))
	for _, item := range params.LineItems {
		productData := &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if item.Description != "" {
			productData.Description = stripe.String(item.Description)
		}
		if item.ImageURL != "" {
			productData.Images = stripe.StringSlice([]string{item.ImageURL})
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionCreateLineItemParams{
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency:    stripe.String(params.Currency),
				UnitAmount:  stripe.Int64(item.UnitAmount),
				ProductData: productData,
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	created, err := c.api.V1CheckoutSessions.Create(ctx, &stripe.CheckoutSessionCreateParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
		Metadata:   map[string]string{MetadataOrderIDKey: params.OrderID},
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	if created.ID == "" || created.URL == "" {
		return nil, errors.New("checkout session response missing id or url")
	}

	return &Session{ID: created.ID, URL: created.URL}, nil
}
