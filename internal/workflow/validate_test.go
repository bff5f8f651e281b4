package workflow

import (
	"testing"

	"tribune_back_end/internal/models"
)

func TestValidateFilters(t *testing.T) {
	t.Run("Given known keys When validated Then all are kept", func(t *testing.T) {
		filters, errs := ValidateFilters(map[string]string{
			"search":     "dupont",
			"status":     "pending",
			"priority":   "high",
			"start_date": "2026-01-01",
			"end_date":   "2026-01-31",
		})
		if len(errs) != 0 {
			t.Fatalf("erreurs inattendues: %v", errs)
		}
		if filters.Search != "dupont" || filters.Status != "pending" || filters.Priority != "high" {
			t.Errorf("filtres mal retenus: %+v", filters)
		}
		if filters.StartDate == nil || filters.EndDate == nil {
			t.Error("dates non retenues")
		}
	})

	t.Run("Given unknown keys When validated Then they are dropped silently", func(t *testing.T) {
		filters, errs := ValidateFilters(map[string]string{
			"admin":  "1",
			"limit":  "9999",
			"search": "ref",
		})
		if len(errs) != 0 {
			t.Fatalf("erreurs inattendues: %v", errs)
		}
		if filters.Search != "ref" {
			t.Errorf("search perdu: %+v", filters)
		}
	})

	t.Run("Given invalid enum values When validated Then they are dropped without error", func(t *testing.T) {
		filters, errs := ValidateFilters(map[string]string{
			"status":   "exploded",
			"priority": "urgent",
		})
		if len(errs) != 0 {
			t.Fatalf("erreurs inattendues: %v", errs)
		}
		if filters.Status != "" || filters.Priority != "" {
			t.Errorf("valeurs invalides retenues: %+v", filters)
		}
	})

	t.Run("Given an unparsable date When validated Then a field error is returned", func(t *testing.T) {
		_, errs := ValidateFilters(map[string]string{
			"date_from": "31/01/2026",
		})
		if errs["date_from"] == "" {
			t.Errorf("erreur de champ attendue pour date_from, reçu %v", errs)
		}
	})
}

func TestValidateStatusTransition(t *testing.T) {
	legal := []struct{ kind, from, to string }{
		{models.RequestKindCancellation, "pending", "approved"},
		{models.RequestKindCancellation, "pending", "rejected"},
		{models.RequestKindCancellation, "approved", "completed"},
		{models.RequestKindRefund, "pending", "approved"},
		{models.RequestKindRefund, "pending", "rejected"},
		{models.RequestKindRefund, "approved", "processing"},
		{models.RequestKindRefund, "approved", "completed"},
		{models.RequestKindRefund, "processing", "completed"},
	}
	for _, tc := range legal {
		if errs := ValidateStatusTransition(tc.kind, tc.from, tc.to); errs != nil {
			t.Errorf("%s %s→%s devrait être légal: %v", tc.kind, tc.from, tc.to, errs)
		}
	}

	illegal := []struct{ kind, from, to string }{
		{models.RequestKindCancellation, "pending", "pending"},
		{models.RequestKindCancellation, "pending", "completed"},
		{models.RequestKindCancellation, "approved", "pending"},
		{models.RequestKindCancellation, "approved", "rejected"},
		{models.RequestKindCancellation, "approved", "processing"},
		{models.RequestKindCancellation, "rejected", "approved"},
		{models.RequestKindCancellation, "rejected", "pending"},
		{models.RequestKindCancellation, "completed", "pending"},
		{models.RequestKindCancellation, "completed", "completed"},
		{models.RequestKindRefund, "pending", "processing"},
		{models.RequestKindRefund, "processing", "rejected"},
		{models.RequestKindRefund, "completed", "processing"},
	}
	for _, tc := range illegal {
		if errs := ValidateStatusTransition(tc.kind, tc.from, tc.to); errs == nil {
			t.Errorf("%s %s→%s devrait être illégal", tc.kind, tc.from, tc.to)
		}
	}
}

func TestValidateStatusUpdatePayload(t *testing.T) {
	t.Run("Given a missing status When validated Then a status error is returned", func(t *testing.T) {
		errs := ValidateStatusUpdatePayload(StatusUpdatePayload{})
		if errs["status"] == "" {
			t.Errorf("erreur status attendue, reçu %v", errs)
		}
	})

	t.Run("Given a rejection without reason When validated Then a rejection_reason error is returned", func(t *testing.T) {
		errs := ValidateStatusUpdatePayload(StatusUpdatePayload{Status: "rejected"})
		if errs["rejection_reason"] == "" {
			t.Errorf("erreur rejection_reason attendue, reçu %v", errs)
		}
	})

	t.Run("Given a rejection with a short reason When validated Then it is refused", func(t *testing.T) {
		errs := ValidateStatusUpdatePayload(StatusUpdatePayload{Status: "rejected", RejectionReason: "non"})
		if errs["rejection_reason"] == "" {
			t.Errorf("erreur rejection_reason attendue, reçu %v", errs)
		}
	})

	t.Run("Given a rejection justified in admin_notes When validated Then it passes", func(t *testing.T) {
		errs := ValidateStatusUpdatePayload(StatusUpdatePayload{Status: "rejected", AdminNotes: "réservation déjà consommée"})
		if len(errs) != 0 {
			t.Errorf("erreurs inattendues: %v", errs)
		}
	})

	t.Run("Given a negative approved amount When validated Then it is refused", func(t *testing.T) {
		amount := -5.0
		errs := ValidateStatusUpdatePayload(StatusUpdatePayload{Status: "approved", ApprovedAmount: &amount})
		if errs["approved_amount"] == "" {
			t.Errorf("erreur approved_amount attendue, reçu %v", errs)
		}
	})
}
