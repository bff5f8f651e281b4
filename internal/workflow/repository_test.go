package workflow

import (
	"testing"
	"time"

	"tribune_back_end/internal/models"
)

func TestMatchesFilters(t *testing.T) {
	requestedAt := time.Date(2026, 8, 15, 14, 30, 0, 0, time.UTC)
	req := models.Request{
		ID:            1,
		Reference:     "REQ-2026-000001",
		Kind:          models.RequestKindRefund,
		CustomerID:    "c-marie",
		CustomerName:  "Marie Lefèvre",
		CustomerEmail: "marie.lefevre@example.com",
		Status:        models.StatusPending,
		Priority:      models.PriorityHigh,
		RequestedAt:   requestedAt,
	}

	date := func(value string) *time.Time {
		parsed, err := time.Parse("2006-01-02", value)
		if err != nil {
			t.Fatalf("date de test invalide: %v", err)
		}
		return &parsed
	}

	cases := []struct {
		name    string
		filters Filters
		want    bool
	}{
		{"sans filtre", Filters{}, true},
		{"statut correspondant", Filters{Status: "pending"}, true},
		{"statut différent", Filters{Status: "approved"}, false},
		{"priorité correspondante", Filters{Priority: "high"}, true},
		{"recherche sur le nom, casse ignorée", Filters{Search: "LEFÈVRE"}, true},
		{"recherche sur l'email", Filters{Search: "marie.lefevre"}, true},
		{"recherche sur la référence", Filters{Search: "req-2026"}, true},
		{"recherche sans correspondance", Filters{Search: "durand"}, false},
		{"borne basse inclusive", Filters{StartDate: date("2026-08-15")}, true},
		{"borne haute inclusive le jour même", Filters{EndDate: date("2026-08-15")}, true},
		{"hors borne haute", Filters{DateTo: date("2026-08-14")}, false},
		{"hors borne basse", Filters{DateFrom: date("2026-08-16")}, false},
		{"refund_status sur un remboursement", Filters{RefundStatus: "pending"}, true},
		{"client correspondant", Filters{CustomerID: "c-marie"}, true},
		{"client différent", Filters{CustomerID: "c-paul"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := matchesFilters(&req, tc.filters); got != tc.want {
				t.Errorf("matchesFilters(%+v) = %v, attendu %v", tc.filters, got, tc.want)
			}
		})
	}

	t.Run("refund_status ignore les annulations", func(t *testing.T) {
		cancellation := req
		cancellation.Kind = models.RequestKindCancellation
		if matchesFilters(&cancellation, Filters{RefundStatus: "pending"}) {
			t.Error("une annulation ne doit pas matcher refund_status")
		}
	})
}
