package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAdmin doit être chaîné APRÈS AuthRequired.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists || role != "admin" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Accès réservé aux administrateurs"})
			c.Abort()
			return
		}

		adminID := c.GetInt64("admin_id")
		if adminID <= 0 {
			c.JSON(http.StatusForbidden, gin.H{"error": "Compte administrateur invalide"})
			c.Abort()
			return
		}

		c.Next()
	}
}
