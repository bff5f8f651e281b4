package utils

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"tribune_back_end/internal/database"
	"tribune_back_end/internal/models"
	"tribune_back_end/internal/workflow"
)

// Actions d'audit prédéfinies
const (
	// Actions demandes (annulation / remboursement)
	ACTION_REQUEST_SUBMIT   = "request.submit"
	ACTION_REQUEST_APPROVE  = "request.approve"
	ACTION_REQUEST_REJECT   = "request.reject"
	ACTION_REQUEST_PROCESS  = "request.start_processing"
	ACTION_REQUEST_COMPLETE = "request.complete"

	// Actions réservations
	ACTION_BOOKING_CREATE = "booking.create"
	ACTION_BOOKING_PAID   = "booking.paid"
	ACTION_BOOKING_REFUND = "booking.refund"

	// Actions pages de contenu
	ACTION_PAGE_CREATE = "page.create"
	ACTION_PAGE_UPDATE = "page.update"
	ACTION_PAGE_DELETE = "page.delete"

	// Actions système
	ACTION_LOGIN_SUCCESS = "auth.login_success"
	ACTION_LOGIN_FAILED  = "auth.login_failed"
	ACTION_LOGOUT        = "auth.logout"
	ACTION_EXPORT_CSV    = "report.export_csv"
)

// Resources d'audit
const (
	RESOURCE_REQUEST = "request"
	RESOURCE_BOOKING = "booking"
	RESOURCE_PAGE    = "page"
	RESOURCE_AUTH    = "auth"
	RESOURCE_REPORT  = "report"
)

// AuditNotifier persiste les événements du workflow dans audit_logs,
// sans jamais bloquer la transition qui les a produits.
type AuditNotifier struct{}

func NewAuditNotifier() *AuditNotifier {
	return &AuditNotifier{}
}

// Notify est appelé depuis une goroutine du service : l'échec d'écriture
// est loggé mais n'est pas remonté.
func (n *AuditNotifier) Notify(event workflow.AuditEvent) {
	entry := models.AuditLog{
		ID:         gocql.TimeUUID(),
		AdminID:    event.AdminID,
		Action:     event.Action,
		Resource:   RESOURCE_REQUEST,
		ResourceID: fmt.Sprintf("%d", event.RequestID),
		OldValue:   event.FromStatus,
		NewValue:   event.ToStatus,
		Success:    true,
		Timestamp:  event.At,
	}

	if err := insertAuditLog(entry); err != nil {
		log.Printf("❌ Erreur enregistrement log audit: %v", err)
	}
}

// LogAction enregistre une action admin dans les logs d'audit
func LogAction(c *gin.Context, action, resource, resourceID string, oldValue, newValue interface{}) {
	adminID := c.GetInt64("admin_id")
	email := c.GetString("email")

	go func() {
		var oldValueStr, newValueStr string
		if oldValue != nil {
			if oldBytes, err := json.Marshal(oldValue); err == nil {
				oldValueStr = string(oldBytes)
			}
		}
		if newValue != nil {
			if newBytes, err := json.Marshal(newValue); err == nil {
				newValueStr = string(newBytes)
			}
		}

		entry := models.AuditLog{
			ID:         gocql.TimeUUID(),
			AdminID:    adminID,
			UserEmail:  email,
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID,
			OldValue:   oldValueStr,
			NewValue:   newValueStr,
			Success:    true,
			Timestamp:  time.Now(),
		}

		if err := insertAuditLog(entry); err != nil {
			log.Printf("❌ Erreur enregistrement log audit: %v", err)
		}
	}()
}

// LogFailedAction enregistre une action échouée dans les logs d'audit
func LogFailedAction(c *gin.Context, action, resource, resourceID, errorMsg string) {
	adminID := c.GetInt64("admin_id")
	email := c.GetString("email")

	go func() {
		entry := models.AuditLog{
			ID:         gocql.TimeUUID(),
			AdminID:    adminID,
			UserEmail:  email,
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID,
			Success:    false,
			ErrorMsg:   errorMsg,
			Timestamp:  time.Now(),
		}

		if err := insertAuditLog(entry); err != nil {
			log.Printf("❌ Erreur enregistrement log audit: %v", err)
		}
	}()
}

func insertAuditLog(entry models.AuditLog) error {
	session, err := database.GetRequestsSession()
	if err != nil {
		return err
	}

	query := `
		INSERT INTO audit_logs (
			id, admin_id, user_email, action, resource, resource_id,
			old_value, new_value, success, error_msg, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	return session.Query(query,
		entry.ID, entry.AdminID, entry.UserEmail, entry.Action,
		entry.Resource, entry.ResourceID, entry.OldValue, entry.NewValue,
		entry.Success, entry.ErrorMsg, entry.Timestamp,
	).Exec()
}
