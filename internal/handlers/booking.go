package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"tribune_back_end/internal/database"
	"tribune_back_end/internal/models"
	"tribune_back_end/internal/services"
	"tribune_back_end/internal/utils"
)

// ================== RÉSERVATIONS ==================

// CreateBooking crée la réservation chez le fournisseur puis en garde
// une copie locale pour le paiement et le suivi
func CreateBooking(c *gin.Context) {
	customerID := c.GetString("customer_id")

	var input struct {
		EventID   string `json:"event_id"`
		EventName string `json:"event_name"`
		Seats     int    `json:"seats"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.EventID == "" || input.Seats <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "event_id et seats requis"})
		return
	}

	upstreamBooking, err := Upstream.CreateBooking(c.Request.Context(), services.CreateBookingParams{
		EventID:  input.EventID,
		Seats:    input.Seats,
		Customer: customerID,
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Réservation impossible chez le fournisseur"})
		return
	}

	session, err := database.GetBookingsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Base réservations indisponible"})
		return
	}

	booking := models.Booking{
		ID:          gocql.TimeUUID(),
		UpstreamRef: upstreamBooking.Reference,
		CustomerID:  customerID,
		EventID:     input.EventID,
		EventName:   input.EventName,
		Seats:       input.Seats,
		TotalPrice:  upstreamBooking.TotalPrice,
		Status:      "pending",
		CreatedAt:   time.Now(),
	}

	if err := session.Query(`INSERT INTO bookings (booking_id, upstream_ref, customer_id, event_id, event_name, seats, total_price, status, payment_intent_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		booking.ID, booking.UpstreamRef, booking.CustomerID, booking.EventID,
		booking.EventName, booking.Seats, booking.TotalPrice, booking.Status,
		"", booking.CreatedAt,
	).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	utils.LogAction(c, utils.ACTION_BOOKING_CREATE, utils.RESOURCE_BOOKING, booking.ID.String(), nil, booking)

	c.JSON(http.StatusCreated, booking)
}

// GetMyBookings liste les réservations du client connecté
func GetMyBookings(c *gin.Context) {
	customerID := c.GetString("customer_id")

	session, err := database.GetBookingsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Base réservations indisponible"})
		return
	}

	iter := session.Query(`SELECT booking_id, upstream_ref, customer_id, event_id, event_name, seats, total_price, status, payment_intent_id, created_at, updated_at
		FROM bookings`).Iter()

	bookings := []models.Booking{}
	var b models.Booking
	for iter.Scan(&b.ID, &b.UpstreamRef, &b.CustomerID, &b.EventID, &b.EventName,
		&b.Seats, &b.TotalPrice, &b.Status, &b.PaymentIntentID, &b.CreatedAt, &b.UpdatedAt) {
		if b.CustomerID == customerID {
			bookings = append(bookings, b)
		}
		b = models.Booking{}
	}
	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "count": len(bookings)})
}

// GetBooking récupère une réservation du client connecté
func GetBooking(c *gin.Context) {
	customerID := c.GetString("customer_id")

	bookingID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant de réservation invalide"})
		return
	}

	booking, err := loadBooking(bookingID)
	if err == gocql.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Réservation introuvable"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if booking.CustomerID != customerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cette réservation ne vous appartient pas"})
		return
	}

	c.JSON(http.StatusOK, booking)
}

// GetETicket récupère l'e-billet amont et y joint le QR code
func GetETicket(c *gin.Context) {
	customerID := c.GetString("customer_id")

	bookingID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant de réservation invalide"})
		return
	}

	booking, err := loadBooking(bookingID)
	if err == gocql.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Réservation introuvable"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if booking.CustomerID != customerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cette réservation ne vous appartient pas"})
		return
	}

	if booking.Status != "paid" {
		c.JSON(http.StatusConflict, gin.H{"error": "La réservation n'est pas payée"})
		return
	}

	ticket, err := Upstream.ETicket(c.Request.Context(), booking.UpstreamRef)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "E-billet indisponible chez le fournisseur"})
		return
	}

	qr, err := utils.GenerateETicketQR(booking.UpstreamRef, booking.EventID, ticket.TicketNumber)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération QR code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"eticket": ticket,
		"qr_code": qr,
	})
}

// loadBooking lit une réservation locale par id
func loadBooking(bookingID gocql.UUID) (*models.Booking, error) {
	session, err := database.GetBookingsSession()
	if err != nil {
		return nil, err
	}

	var b models.Booking
	b.ID = bookingID
	err = session.Query(`SELECT upstream_ref, customer_id, event_id, event_name, seats, total_price, status, payment_intent_id, created_at, updated_at
		FROM bookings WHERE booking_id = ?`, bookingID).Scan(
		&b.UpstreamRef, &b.CustomerID, &b.EventID, &b.EventName, &b.Seats,
		&b.TotalPrice, &b.Status, &b.PaymentIntentID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
