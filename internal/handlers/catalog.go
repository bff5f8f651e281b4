package handlers

import (
	"log"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"tribune_back_end/internal/cache"
	"tribune_back_end/internal/services"
)

// Upstream est le client partagé vers le fournisseur billetterie,
// initialisé au démarrage (après le chargement du .env)
var Upstream *services.UpstreamClient

func InitUpstream() {
	Upstream = services.NewUpstreamClient()
	log.Println("✅ Client billetterie initialisé")
}

// ================== CATALOGUE ==================

func GetSports(c *gin.Context) {
	if payload, ok := cache.GetCatalog("sports"); ok {
		c.Data(http.StatusOK, "application/json", payload)
		return
	}

	payload, err := Upstream.Sports(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Fournisseur billetterie indisponible"})
		return
	}

	cache.SetCatalog("sports", payload, cache.CatalogCacheTTL)
	c.Data(http.StatusOK, "application/json", payload)
}

func GetTournaments(c *gin.Context) {
	sportID := c.Query("sport_id")
	cacheKey := "tournaments:" + sportID

	if payload, ok := cache.GetCatalog(cacheKey); ok {
		c.Data(http.StatusOK, "application/json", payload)
		return
	}

	payload, err := Upstream.Tournaments(c.Request.Context(), sportID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Fournisseur billetterie indisponible"})
		return
	}

	cache.SetCatalog(cacheKey, payload, cache.CatalogCacheTTL)
	c.Data(http.StatusOK, "application/json", payload)
}

func GetTeams(c *gin.Context) {
	tournamentID := c.Query("tournament_id")
	cacheKey := "teams:" + tournamentID

	if payload, ok := cache.GetCatalog(cacheKey); ok {
		c.Data(http.StatusOK, "application/json", payload)
		return
	}

	payload, err := Upstream.Teams(c.Request.Context(), tournamentID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Fournisseur billetterie indisponible"})
		return
	}

	cache.SetCatalog(cacheKey, payload, cache.CatalogCacheTTL)
	c.Data(http.StatusOK, "application/json", payload)
}

func GetCities(c *gin.Context) {
	if payload, ok := cache.GetCatalog("cities"); ok {
		c.Data(http.StatusOK, "application/json", payload)
		return
	}

	payload, err := Upstream.Cities(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Fournisseur billetterie indisponible"})
		return
	}

	cache.SetCatalog("cities", payload, cache.CatalogCacheTTL)
	c.Data(http.StatusOK, "application/json", payload)
}

func GetCountries(c *gin.Context) {
	if payload, ok := cache.GetCatalog("countries"); ok {
		c.Data(http.StatusOK, "application/json", payload)
		return
	}

	payload, err := Upstream.Countries(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Fournisseur billetterie indisponible"})
		return
	}

	cache.SetCatalog("countries", payload, cache.CatalogCacheTTL)
	c.Data(http.StatusOK, "application/json", payload)
}

// GetEvents relaie la liste des événements ; les filtres amont
// sont passés tels quels, le cache est découpé par combinaison de filtres
func GetEvents(c *gin.Context) {
	filters := url.Values{}
	for _, key := range []string{"sport_id", "tournament_id", "team_id", "city_id", "date_from", "date_to"} {
		if v := c.Query(key); v != "" {
			filters.Set(key, v)
		}
	}

	cacheKey := "events:" + filters.Encode()
	if payload, ok := cache.GetCatalog(cacheKey); ok {
		c.Data(http.StatusOK, "application/json", payload)
		return
	}

	payload, err := Upstream.Events(c.Request.Context(), filters)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Fournisseur billetterie indisponible"})
		return
	}

	cache.SetCatalog(cacheKey, payload, cache.EventsCacheTTL)
	c.Data(http.StatusOK, "application/json", payload)
}

func GetEventDetails(c *gin.Context) {
	eventID := c.Param("id")
	cacheKey := "event:" + eventID

	if payload, ok := cache.GetCatalog(cacheKey); ok {
		c.Data(http.StatusOK, "application/json", payload)
		return
	}

	payload, err := Upstream.EventDetails(c.Request.Context(), eventID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Fournisseur billetterie indisponible"})
		return
	}

	cache.SetCatalog(cacheKey, payload, cache.EventsCacheTTL)
	c.Data(http.StatusOK, "application/json", payload)
}
