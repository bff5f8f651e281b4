package workflow

import (
	"fmt"
	"strings"
	"time"

	"tribune_back_end/internal/models"
)

// Longueur minimale d'un motif de rejet ou d'une demande client
const MinReasonLength = 10

const dateLayout = "2006-01-02"

// Filters est l'ensemble des filtres acceptés pour le listing
// et l'export des demandes
type Filters struct {
	Search       string
	Status       string
	Priority     string
	RefundStatus string
	// CustomerID restreint le listing aux demandes d'un client donné.
	// Posé côté serveur uniquement, jamais exposé comme clé de requête
	CustomerID string
	StartDate  *time.Time
	EndDate    *time.Time
	DateFrom   *time.Time
	DateTo     *time.Time
}

// StatusUpdatePayload est le corps d'une mise à jour de statut générique
type StatusUpdatePayload struct {
	Status          string   `json:"status"`
	AdminNotes      string   `json:"admin_notes"`
	RejectionReason string   `json:"rejection_reason"`
	ApprovedAmount  *float64 `json:"approved_amount"`
}

var validStatuses = map[string]bool{
	models.StatusPending:    true,
	models.StatusApproved:   true,
	models.StatusRejected:   true,
	models.StatusProcessing: true,
	models.StatusCompleted:  true,
}

var validPriorities = map[string]bool{
	models.PriorityLow:    true,
	models.PriorityNormal: true,
	models.PriorityHigh:   true,
}

// Graphe des transitions pour les annulations : pending → approved|rejected,
// approved → completed, rejected et completed terminaux
var cancellationTransitions = map[string][]string{
	models.StatusPending:   {models.StatusApproved, models.StatusRejected},
	models.StatusApproved:  {models.StatusCompleted},
	models.StatusRejected:  {},
	models.StatusCompleted: {},
}

// Les remboursements ont en plus l'état "processing" entre l'approbation
// et la confirmation du prestataire de paiement
var refundTransitions = map[string][]string{
	models.StatusPending:    {models.StatusApproved, models.StatusRejected},
	models.StatusApproved:   {models.StatusProcessing, models.StatusCompleted},
	models.StatusProcessing: {models.StatusCompleted},
	models.StatusRejected:   {},
	models.StatusCompleted:  {},
}

// ValidateFilters ne retient que les clés connues ; les valeurs d'énumération
// inconnues sont ignorées silencieusement, les dates invalides produisent
// une erreur par champ
func ValidateFilters(raw map[string]string) (Filters, map[string]string) {
	filters := Filters{}
	errs := map[string]string{}

	for key, value := range raw {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}

		switch key {
		case "search":
			filters.Search = value
		case "status":
			if validStatuses[value] {
				filters.Status = value
			}
		case "priority":
			if validPriorities[value] {
				filters.Priority = value
			}
		case "refund_status":
			if validStatuses[value] {
				filters.RefundStatus = value
			}
		case "start_date", "end_date", "date_from", "date_to":
			parsed, err := time.Parse(dateLayout, value)
			if err != nil {
				errs[key] = fmt.Sprintf("date invalide (format attendu %s)", dateLayout)
				continue
			}
			switch key {
			case "start_date":
				filters.StartDate = &parsed
			case "end_date":
				filters.EndDate = &parsed
			case "date_from":
				filters.DateFrom = &parsed
			case "date_to":
				filters.DateTo = &parsed
			}
		default:
			// clé inconnue : ignorée
		}
	}

	return filters, errs
}

// ValidateStatusTransition vérifie qu'une arête existe dans le graphe
// du type de demande donné. Le graphe est figé : aucun retour vers
// pending, aucun no-op même statut
func ValidateStatusTransition(kind, current, requested string) map[string]string {
	graph := cancellationTransitions
	if kind == models.RequestKindRefund {
		graph = refundTransitions
	}

	allowed, known := graph[current]
	if !known {
		return map[string]string{"status": fmt.Sprintf("statut actuel inconnu: %s", current)}
	}

	for _, next := range allowed {
		if next == requested {
			return nil
		}
	}

	return map[string]string{
		"status": fmt.Sprintf("transition illégale: %s → %s", current, requested),
	}
}

// ValidateStatusUpdatePayload vérifie la cohérence interne d'un corps de
// mise à jour. La borne approved_amount ≤ requested_amount nécessite
// l'entité chargée et est revérifiée au niveau du service
func ValidateStatusUpdatePayload(body StatusUpdatePayload) map[string]string {
	errs := map[string]string{}

	if body.Status == "" {
		errs["status"] = "statut requis"
	} else if !validStatuses[body.Status] {
		errs["status"] = fmt.Sprintf("statut inconnu: %s", body.Status)
	}

	if body.Status == models.StatusRejected {
		reason := strings.TrimSpace(body.RejectionReason)
		if reason == "" {
			reason = strings.TrimSpace(body.AdminNotes)
		}
		if len([]rune(reason)) < MinReasonLength {
			errs["rejection_reason"] = fmt.Sprintf("motif de rejet requis (%d caractères minimum)", MinReasonLength)
		}
	}

	if body.Status == models.StatusApproved && body.ApprovedAmount != nil && *body.ApprovedAmount < 0 {
		errs["approved_amount"] = "le montant approuvé doit être positif"
	}

	return errs
}
