package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Booking est la copie locale d'une réservation créée chez le fournisseur
// billetterie, enrichie des informations de paiement Stripe
type Booking struct {
	ID              gocql.UUID `json:"id" db:"booking_id"`
	UpstreamRef     string     `json:"upstream_ref" db:"upstream_ref"` // référence chez le fournisseur
	CustomerID      string     `json:"customer_id" db:"customer_id"`
	EventID         string     `json:"event_id" db:"event_id"`
	EventName       string     `json:"event_name" db:"event_name"`
	Seats           int        `json:"seats" db:"seats"`
	TotalPrice      float64    `json:"total_price" db:"total_price"`
	Status          string     `json:"status" db:"status"` // pending, paid, cancelled, refunded
	PaymentIntentID string     `json:"payment_intent_id,omitempty" db:"payment_intent_id"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}
