package admin

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"tribune_back_end/internal/models"
	"tribune_back_end/internal/services"
	"tribune_back_end/internal/utils"
	"tribune_back_end/internal/workflow"
)

// ExportCSV exporte les demandes filtrées en CSV, archivé dans MinIO,
// et renvoie une URL de téléchargement signée
func (h *RequestsHandler) ExportCSV(c *gin.Context) {
	raw := map[string]string{}
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			raw[key] = values[0]
		}
	}

	filters, fieldErrs := workflow.ValidateFilters(raw)
	if len(fieldErrs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Filtres invalides", "fields": fieldErrs})
		return
	}

	// L'export couvre la totalité du filtre : on déroule les pages du
	// listing jusqu'à épuisement au lieu de se limiter à la première
	var requests []models.Request
	for page := 1; ; page++ {
		batch, total, err := h.svc.List(c.Request.Context(), filters, page, workflow.MaxPerPage)
		if err != nil {
			respondError(c, err)
			return
		}
		requests = append(requests, batch...)
		if len(batch) == 0 || len(requests) >= total {
			break
		}
	}

	data, err := services.BuildRequestsCSV(requests)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération CSV"})
		return
	}

	objectName, err := services.UploadExport(c.Request.Context(), data)
	if err != nil {
		// MinIO absent : on renvoie le CSV en direct
		log.Printf("⚠️ Archivage MinIO indisponible, export renvoyé en direct: %v", err)
		c.Header("Content-Disposition", `attachment; filename="demandes.csv"`)
		c.Data(http.StatusOK, "text/csv", data)
		return
	}

	url, err := services.GenerateSignedURL(c.Request.Context(), objectName, services.ExportURLExpiry)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération URL signée"})
		return
	}

	utils.LogAction(c, utils.ACTION_EXPORT_CSV, utils.RESOURCE_REPORT, objectName, nil, gin.H{
		"rows": len(requests),
	})

	c.JSON(http.StatusOK, gin.H{
		"object":       objectName,
		"download_url": url,
		"rows":         len(requests),
	})
}
