package models

import (
	"encoding/json"
	"time"
)

// Types de demandes traitées par le workflow d'approbation
const (
	RequestKindCancellation = "cancellation"
	RequestKindRefund       = "refund"
)

// Statuts du workflow (les annulations n'ont pas de statut "processing")
const (
	StatusPending    = "pending"
	StatusApproved   = "approved"
	StatusRejected   = "rejected"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
)

// Priorités (informatives, n'influencent pas les transitions)
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// Request est une demande d'annulation ou de remboursement d'une réservation,
// suivie à travers le workflow d'approbation admin
type Request struct {
	ID              int64      `json:"id" db:"request_id"`
	Reference       string     `json:"reference" db:"reference"`
	Kind            string     `json:"kind" db:"kind"` // cancellation, refund
	BookingID       string     `json:"booking_id" db:"booking_id"`
	CustomerID      string     `json:"customer_id" db:"customer_id"`
	CustomerName    string     `json:"customer_name" db:"customer_name"`
	CustomerEmail   string     `json:"customer_email" db:"customer_email"`
	Reason          string     `json:"reason" db:"reason"`
	RequestedAmount float64    `json:"requested_amount" db:"requested_amount"`
	ApprovedAmount  *float64   `json:"approved_amount,omitempty" db:"approved_amount"`
	FeeAmount       float64    `json:"fee_amount" db:"fee_amount"`
	Status          string     `json:"status" db:"status"`
	Priority        string     `json:"priority" db:"priority"`
	AdminID         *int64     `json:"admin_id,omitempty" db:"admin_id"`
	AdminNotes      string     `json:"admin_notes,omitempty" db:"admin_notes"`
	RejectionReason string     `json:"rejection_reason,omitempty" db:"rejection_reason"`
	RefundReference string     `json:"refund_reference,omitempty" db:"refund_reference"`
	RequestedAt     time.Time  `json:"requested_at" db:"requested_at"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty" db:"processed_at"`
}

// NetRefundAmount calcule le montant net remboursé (montant approuvé moins frais)
func (r *Request) NetRefundAmount() *float64 {
	if r.ApprovedAmount == nil {
		return nil
	}
	net := *r.ApprovedAmount - r.FeeAmount
	if net < 0 {
		net = 0
	}
	return &net
}

// MarshalJSON expose net_refund_amount, champ dérivé non stocké en base
func (r Request) MarshalJSON() ([]byte, error) {
	type alias Request
	return json.Marshal(struct {
		alias
		NetRefundAmount *float64 `json:"net_refund_amount,omitempty"`
	}{alias(r), r.NetRefundAmount()})
}

// Terminal indique si le statut est terminal (aucune transition possible)
func (r *Request) Terminal() bool {
	return r.Status == StatusRejected || r.Status == StatusCompleted
}
