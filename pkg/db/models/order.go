package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/julianreyes-dev/storefront-backend/pkg/enums"
)

// Order is the append-only record of a purchase intent. Items and Total are
// frozen at creation; only Status and the two Stripe identifiers mutate later.
//
// Status is empty between order creation and payment-session creation. That
// window is deliberate: the row commits before the gateway call, and a
// compensating update marks it "failed" if the gateway call throws.
type Order struct {
	ID                    uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID                *uuid.UUID        `gorm:"column:user_id;type:uuid"`
	Total                 decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	Status                enums.OrderStatus `gorm:"column:status;not null;default:''"`
	StripeSessionID       *string           `gorm:"column:stripe_session_id"`
	StripePaymentIntentID *string           `gorm:"column:stripe_payment_intent_id"`
	Items                 []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt             time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
