package payement

import (
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/refund"

	"tribune_back_end/internal/cache"
	"tribune_back_end/internal/database"
	"tribune_back_end/internal/models"
	"tribune_back_end/internal/utils"
	"tribune_back_end/internal/workflow"
)

// cancellationFee calcule les frais retenus sur une annulation,
// en pourcentage du prix payé (CANCELLATION_FEE_PERCENT, 0 par défaut)
func cancellationFee(totalPrice float64) float64 {
	percent := 0.0
	if raw := os.Getenv("CANCELLATION_FEE_PERCENT"); raw != "" {
		if p, err := strconv.ParseFloat(raw, 64); err == nil && p > 0 {
			percent = p
		}
	}
	return totalPrice * percent / 100
}

// RequestCancellation permet à un client de demander l'annulation d'une réservation payée
func RequestCancellation(c *gin.Context) {
	submitRequest(c, models.RequestKindCancellation)
}

// RequestRefund permet à un client de demander un remboursement
func RequestRefund(c *gin.Context) {
	submitRequest(c, models.RequestKindRefund)
}

func submitRequest(c *gin.Context, kind string) {
	customerID := c.GetString("customer_id")
	email := c.GetString("email")

	var input struct {
		BookingID string  `json:"booking_id"`
		Reason    string  `json:"reason"`
		Amount    float64 `json:"amount"`
		Priority  string  `json:"priority"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	bookingID, err := gocql.ParseUUID(input.BookingID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant de réservation invalide"})
		return
	}

	// Vérifier que la réservation existe et appartient au client
	session, err := database.GetBookingsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var ownerID, status string
	var totalPrice float64
	err = session.Query(`SELECT customer_id, status, total_price FROM bookings WHERE booking_id = ?`,
		bookingID).Scan(&ownerID, &status, &totalPrice)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Réservation introuvable"})
		return
	}

	if ownerID != customerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cette réservation ne vous appartient pas"})
		return
	}

	if status != "paid" {
		c.JSON(http.StatusConflict, gin.H{"error": "Seule une réservation payée peut faire l'objet d'une demande"})
		return
	}

	amount := input.Amount
	if amount <= 0 {
		amount = totalPrice
	}

	customer, _ := cache.GetCustomerFromCache(customerID)
	customerName := ""
	if customer != nil {
		customerName = customer.Name
	}

	req, err := requests.Submit(c.Request.Context(), workflow.SubmitParams{
		Kind:          kind,
		BookingID:     input.BookingID,
		CustomerID:    customerID,
		CustomerName:  customerName,
		CustomerEmail: email,
		Reason:        input.Reason,
		Amount:        amount,
		FeeAmount:     cancellationFee(totalPrice),
		Priority:      input.Priority,
	})
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	log.Printf("💰 Demande %s créée: %s pour la réservation %s", kind, req.Reference, input.BookingID)

	go func() {
		if err := utils.SendRequestReceivedEmail(*req); err != nil {
			log.Printf("⚠️ Email de confirmation de demande non envoyé: %v", err)
		}
	}()

	c.JSON(http.StatusCreated, gin.H{
		"message": "Demande créée",
		"request": req,
	})
}

// GetMyRequests liste les demandes du client connecté, filtrées côté
// dépôt pour que la pagination porte sur ses demandes à lui
func GetMyRequests(c *gin.Context) {
	customerID := c.GetString("customer_id")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(workflow.DefaultPerPage)))

	mine, total, err := requests.List(c.Request.Context(),
		workflow.Filters{CustomerID: customerID}, page, perPage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture demandes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": mine, "count": total})
}

// ExecuteRefund (admin) crée le remboursement Stripe d'une demande
// approuvée puis clôt la demande avec la référence Stripe
func ExecuteRefund(c *gin.Context) {
	adminID := c.GetInt64("admin_id")

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant de demande invalide"})
		return
	}

	req, err := requests.GetByID(c.Request.Context(), id)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	if req.Kind != models.RequestKindRefund {
		c.JSON(http.StatusConflict, gin.H{"error": "Seule une demande de remboursement peut passer par Stripe"})
		return
	}

	net := req.NetRefundAmount()
	if net == nil || *net <= 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Aucun montant approuvé à rembourser"})
		return
	}

	// Retrouver le PaymentIntent de la réservation d'origine
	bookingID, err := gocql.ParseUUID(req.BookingID)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Réservation d'origine invalide"})
		return
	}

	session, err := database.GetBookingsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var paymentIntentID string
	if err := session.Query(`SELECT payment_intent_id FROM bookings WHERE booking_id = ?`,
		bookingID).Scan(&paymentIntentID); err != nil || paymentIntentID == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "Aucun paiement Stripe associé à cette réservation"})
		return
	}

	// La demande passe en processing le temps de l'appel Stripe
	if req.Status == models.StatusApproved {
		if _, err := requests.StartProcessing(c.Request.Context(), id, adminID); err != nil {
			respondWorkflowError(c, err)
			return
		}
	}

	stripeRefund, err := refund.New(&stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
		Amount:        stripe.Int64(amountToCents(*net)),
		Reason:        stripe.String("requested_by_customer"),
	})
	if err != nil {
		log.Printf("❌ Erreur remboursement Stripe: %v", err)
		utils.LogFailedAction(c, utils.ACTION_BOOKING_REFUND, utils.RESOURCE_REQUEST, c.Param("id"), err.Error())
		c.JSON(http.StatusBadGateway, gin.H{"error": "Le remboursement Stripe a échoué"})
		return
	}

	log.Printf("💰 Remboursement Stripe créé: %s (%.2f€)", stripeRefund.ID, *net)

	completed, err := requests.Complete(c.Request.Context(), id, adminID, stripeRefund.ID, "")
	if err != nil {
		// Le virement Stripe est parti mais la clôture a échoué : à
		// rejouer manuellement, la référence est dans les logs
		log.Printf("❌ Clôture de la demande %d échouée après remboursement %s: %v", id, stripeRefund.ID, err)
		respondWorkflowError(c, err)
		return
	}

	// Marquer la réservation remboursée
	session.Query(`UPDATE bookings SET status = ? WHERE booking_id = ?`, "refunded", bookingID).Exec()

	go func() {
		if err := utils.SendRequestStatusEmail(*completed, completed.Status); err != nil {
			log.Printf("⚠️ Email de statut non envoyé: %v", err)
		}
	}()

	c.JSON(http.StatusOK, gin.H{
		"message":          "Remboursement effectué",
		"request":          completed,
		"stripe_refund_id": stripeRefund.ID,
	})
}

// respondWorkflowError traduit les erreurs du workflow en statuts HTTP
func respondWorkflowError(c *gin.Context, err error) {
	var wErr *workflow.Error
	status := http.StatusInternalServerError
	switch workflow.KindOf(err) {
	case workflow.KindNotFound:
		status = http.StatusNotFound
	case workflow.KindInvalidTransition:
		status = http.StatusConflict
	case workflow.KindValidation:
		status = http.StatusBadRequest
	case workflow.KindUnauthorized:
		status = http.StatusForbidden
	}

	body := gin.H{"error": err.Error()}
	if errors.As(err, &wErr) && len(wErr.Fields) > 0 {
		body["fields"] = wErr.Fields
	}
	c.JSON(status, body)
}
