package admin

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"tribune_back_end/internal/database"
)

// Dashboard agrège les compteurs réservations et les statistiques du
// workflow de demandes pour l'écran d'accueil admin
func (h *RequestsHandler) Dashboard(c *gin.Context) {
	session, err := database.GetBookingsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`SELECT status, total_price FROM bookings`).Iter()

	var status string
	var totalPrice float64

	totalBookings := 0
	byStatus := map[string]int{}
	var revenue float64

	for iter.Scan(&status, &totalPrice) {
		totalBookings++
		byStatus[status]++
		if status == "paid" {
			revenue += totalPrice
		}
	}
	if err := iter.Close(); err != nil {
		log.Printf("❌ Erreur agrégation réservations: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	requestStats, err := h.svc.GetStatistics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings": gin.H{
			"total":     totalBookings,
			"by_status": byStatus,
			"revenue":   revenue,
		},
		"requests": requestStats,
	})
}
