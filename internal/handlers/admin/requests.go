package admin

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"tribune_back_end/internal/cache"
	"tribune_back_end/internal/models"
	"tribune_back_end/internal/services"
	"tribune_back_end/internal/utils"
	"tribune_back_end/internal/workflow"
)

// RequestsHandler regroupe les endpoints admin du workflow de demandes.
// Le service est injecté au démarrage plutôt que résolu globalement.
type RequestsHandler struct {
	svc *workflow.Service
}

func NewRequestsHandler(svc *workflow.Service) *RequestsHandler {
	return &RequestsHandler{svc: svc}
}

// respondError traduit une erreur du workflow en réponse HTTP
func respondError(c *gin.Context, err error) {
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
	var wErr *workflow.Error
	if errors.As(err, &wErr) && len(wErr.Fields) > 0 {
		body["fields"] = wErr.Fields
	}
	c.JSON(status, body)
}

// List renvoie les demandes paginées ; les filtres inconnus ou mal formés
// sont ignorés, seules les dates invalides font échouer la requête
func (h *RequestsHandler) List(c *gin.Context) {
	raw := map[string]string{}
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			raw[key] = values[0]
		}
	}
	delete(raw, "page")
	delete(raw, "per_page")

	filters, fieldErrs := workflow.ValidateFilters(raw)
	if len(fieldErrs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Filtres invalides", "fields": fieldErrs})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(workflow.DefaultPerPage)))

	items, total, err := h.svc.List(c.Request.Context(), filters, page, perPage)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": items,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

// GetByID renvoie une demande
func (h *RequestsHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant de demande invalide"})
		return
	}

	req, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// Approve approuve une demande pending, avec montant approuvé optionnel
func (h *RequestsHandler) Approve(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant de demande invalide"})
		return
	}

	var input struct {
		ApprovedAmount *float64 `json:"approved_amount"`
		AdminNotes     string   `json:"admin_notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	adminID := c.GetInt64("admin_id")
	req, err := h.svc.Approve(c.Request.Context(), id, adminID, input.ApprovedAmount, input.AdminNotes)
	if err != nil {
		utils.LogFailedAction(c, utils.ACTION_REQUEST_APPROVE, utils.RESOURCE_REQUEST, c.Param("id"), err.Error())
		respondError(c, err)
		return
	}

	h.afterTransition(*req)
	c.JSON(http.StatusOK, gin.H{"message": "Demande approuvée", "request": req})
}

// Reject rejette une demande pending avec un motif obligatoire
func (h *RequestsHandler) Reject(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant de demande invalide"})
		return
	}

	var input struct {
		RejectionReason string `json:"rejection_reason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	adminID := c.GetInt64("admin_id")
	req, err := h.svc.Reject(c.Request.Context(), id, adminID, input.RejectionReason)
	if err != nil {
		utils.LogFailedAction(c, utils.ACTION_REQUEST_REJECT, utils.RESOURCE_REQUEST, c.Param("id"), err.Error())
		respondError(c, err)
		return
	}

	h.afterTransition(*req)
	c.JSON(http.StatusOK, gin.H{"message": "Demande rejetée", "request": req})
}

// StartProcessing passe un remboursement approuvé en processing
func (h *RequestsHandler) StartProcessing(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant de demande invalide"})
		return
	}

	adminID := c.GetInt64("admin_id")
	req, err := h.svc.StartProcessing(c.Request.Context(), id, adminID)
	if err != nil {
		utils.LogFailedAction(c, utils.ACTION_REQUEST_PROCESS, utils.RESOURCE_REQUEST, c.Param("id"), err.Error())
		respondError(c, err)
		return
	}

	h.afterTransition(*req)
	c.JSON(http.StatusOK, gin.H{"message": "Traitement démarré", "request": req})
}

// Complete clôt une demande, avec référence de remboursement optionnelle
func (h *RequestsHandler) Complete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant de demande invalide"})
		return
	}

	var input struct {
		RefundReference string `json:"refund_reference"`
		AdminNotes      string `json:"admin_notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	adminID := c.GetInt64("admin_id")
	req, err := h.svc.Complete(c.Request.Context(), id, adminID, input.RefundReference, input.AdminNotes)
	if err != nil {
		utils.LogFailedAction(c, utils.ACTION_REQUEST_COMPLETE, utils.RESOURCE_REQUEST, c.Param("id"), err.Error())
		respondError(c, err)
		return
	}

	h.afterTransition(*req)
	c.JSON(http.StatusOK, gin.H{"message": "Demande finalisée", "request": req})
}

// UpdateStatus est l'endpoint générique de mise à jour : le corps porte
// le statut cible et est validé avant d'être routé vers l'opération typée
func (h *RequestsHandler) UpdateStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant de demande invalide"})
		return
	}

	var body workflow.StatusUpdatePayload
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	if fieldErrs := workflow.ValidateStatusUpdatePayload(body); len(fieldErrs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "fields": fieldErrs})
		return
	}

	adminID := c.GetInt64("admin_id")

	var req *models.Request
	switch body.Status {
	case models.StatusApproved:
		req, err = h.svc.Approve(c.Request.Context(), id, adminID, body.ApprovedAmount, body.AdminNotes)
	case models.StatusRejected:
		reason := body.RejectionReason
		if strings.TrimSpace(reason) == "" {
			reason = body.AdminNotes
		}
		req, err = h.svc.Reject(c.Request.Context(), id, adminID, reason)
	case models.StatusProcessing:
		req, err = h.svc.StartProcessing(c.Request.Context(), id, adminID)
	case models.StatusCompleted:
		req, err = h.svc.Complete(c.Request.Context(), id, adminID, "", body.AdminNotes)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Aucune transition ne mène vers ce statut"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	h.afterTransition(*req)
	c.JSON(http.StatusOK, gin.H{"message": "Statut mis à jour", "request": req})
}

// Statistics renvoie l'agrégat du tableau de bord demandes
func (h *RequestsHandler) Statistics(c *gin.Context) {
	stats, err := h.svc.GetStatistics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Search interroge l'index Elasticsearch des demandes
func (h *RequestsHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre q requis"})
		return
	}

	results, err := services.SearchRequests(query)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

// afterTransition pousse les effets de bord non bloquants d'une
// transition : index de recherche, flux temps réel, email client
func (h *RequestsHandler) afterTransition(req models.Request) {
	go services.IndexRequest(req)

	if payload, err := json.Marshal(req); err == nil {
		cache.PublishRequestEvent(string(payload))
	}

	go func() {
		if err := utils.SendRequestStatusEmail(req, req.Status); err != nil {
			log.Printf("⚠️ Email de statut non envoyé: %v", err)
		}
	}()
}
