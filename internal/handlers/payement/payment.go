package payement

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"github.com/stripe/stripe-go/v83/webhook"

	"tribune_back_end/internal/database"
	"tribune_back_end/internal/models"
	"tribune_back_end/internal/utils"
)

// ✅ Crée un PaymentIntent Stripe pour une réservation
func CreatePaymentIntent(c *gin.Context) {
	customerID := c.GetString("customer_id")
	email := c.GetString("email")

	var req struct {
		BookingID string `json:"booking_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.BookingID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "booking_id requis"})
		return
	}

	bookingID, err := gocql.ParseUUID(req.BookingID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant de réservation invalide"})
		return
	}

	session, err := database.GetBookingsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Base réservations indisponible"})
		return
	}

	var ownerID, status, eventName string
	var totalPrice float64
	err = session.Query(`SELECT customer_id, status, event_name, total_price FROM bookings WHERE booking_id = ?`,
		bookingID).Scan(&ownerID, &status, &eventName, &totalPrice)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Réservation introuvable"})
		return
	}

	if ownerID != customerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cette réservation ne vous appartient pas"})
		return
	}
	if status != "pending" {
		c.JSON(http.StatusConflict, gin.H{"error": "Cette réservation n'est pas en attente de paiement"})
		return
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountToCents(totalPrice)),
		Currency: stripe.String("eur"),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{
			"booking_id":  req.BookingID,
			"customer_id": customerID,
			"email":       email,
		},
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		log.Println("❌ Erreur Stripe:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Printf("💳 PaymentIntent créé : %s (%.2f€) pour %s", intent.ID, totalPrice, email)

	c.JSON(http.StatusOK, gin.H{
		"clientSecret": intent.ClientSecret,
		"paymentId":    intent.ID,
	})
}

// ✅ Webhook Stripe
func StripeWebhook(c *gin.Context) {
	const MaxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

	payload, err := c.GetRawData()
	if err != nil {
		log.Println("❌ Lecture payload échouée:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Échec lecture body"})
		return
	}

	secret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	var event stripe.Event

	if secret == "" {
		log.Println("⚠️ Pas de STRIPE_WEBHOOK_SECRET — mode test")
		if err := json.Unmarshal(payload, &event); err != nil {
			log.Println("❌ JSON invalide:", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "JSON invalide"})
			return
		}
	} else {
		event, err = webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), secret)
		if err != nil {
			log.Println("❌ Signature Stripe invalide:", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Signature invalide"})
			return
		}
	}

	log.Printf("📥 Événement Stripe reçu : %s", event.Type)
	handleStripeEvent(event)

	c.Status(http.StatusOK)
}

// ✅ Traitement de l'événement Stripe
func handleStripeEvent(event stripe.Event) {
	if event.Type != "payment_intent.succeeded" {
		log.Printf("ℹ️ Événement ignoré : %s", event.Type)
		return
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		log.Println("❌ Erreur décodage PaymentIntent:", err)
		return
	}
	log.Printf("🧠 PaymentIntent reçu : %s", pi.ID)

	bookingIDRaw := pi.Metadata["booking_id"]
	customerEmail := pi.Metadata["email"]

	if bookingIDRaw == "" {
		log.Println("⚠️ Métadonnées incomplètes, booking_id manquant")
		return
	}

	bookingID, err := gocql.ParseUUID(bookingIDRaw)
	if err != nil {
		log.Println("❌ booking_id invalide dans les métadonnées:", bookingIDRaw)
		return
	}

	session, err := database.GetBookingsSession()
	if err != nil {
		log.Println("❌ Base réservations indisponible:", err)
		return
	}

	// Idempotence : ne marquer paid qu'une seule fois
	var status string
	if err := session.Query(`SELECT status FROM bookings WHERE booking_id = ?`, bookingID).Scan(&status); err != nil {
		log.Println("❌ Réservation introuvable pour le webhook:", bookingIDRaw)
		return
	}
	if status != "pending" {
		log.Println("🔁 Réservation déjà traitée, on ignore.")
		return
	}

	now := time.Now()
	if err := session.Query(`UPDATE bookings SET status = ?, payment_intent_id = ?, updated_at = ? WHERE booking_id = ?`,
		"paid", pi.ID, now, bookingID).Exec(); err != nil {
		log.Println("❌ Erreur mise à jour réservation:", err)
		return
	}
	log.Printf("✅ Réservation %s marquée payée", bookingIDRaw)

	if customerEmail == "" {
		return
	}

	// Confirmation par email avec e-billet en pièce jointe si possible
	go func() {
		booking, err := loadBookingForEmail(session, bookingID)
		if err != nil {
			log.Println("❌ Chargement réservation pour email:", err)
			return
		}

		qr, err := utils.GenerateETicketQR(booking.UpstreamRef, booking.EventID, booking.ID.String())
		if err != nil {
			log.Println("❌ Erreur génération QR:", err)
			qr = ""
		}

		var pdf []byte
		if qr != "" {
			pdf, err = utils.RenderConfirmationPDF(utils.GetFrontendConfirmationBaseURL(), booking.UpstreamRef, qr)
			if err != nil {
				log.Println("❌ Erreur génération PDF :", err)
				pdf = nil
			}
		}

		html := generatePaymentConfirmationHTML(*booking)
		if err := utils.SendConfirmationEmail(customerEmail, "🎟️ Vos places sont confirmées - Tribune", html, pdf); err != nil {
			log.Println("❌ Erreur envoi e-mail confirmation :", err)
		} else {
			log.Println("📧 E-mail de confirmation envoyé à", customerEmail)
		}
	}()
}

func loadBookingForEmail(session *gocql.Session, bookingID gocql.UUID) (*models.Booking, error) {
	var b models.Booking
	b.ID = bookingID
	err := session.Query(`SELECT upstream_ref, customer_id, event_id, event_name, seats, total_price, status, payment_intent_id, created_at, updated_at
		FROM bookings WHERE booking_id = ?`, bookingID).Scan(
		&b.UpstreamRef, &b.CustomerID, &b.EventID, &b.EventName, &b.Seats,
		&b.TotalPrice, &b.Status, &b.PaymentIntentID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
