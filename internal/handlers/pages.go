package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"tribune_back_end/internal/cache"
	"tribune_back_end/internal/database"
	"tribune_back_end/internal/models"
	"tribune_back_end/internal/utils"
)

// ================== PAGES DE CONTENU ==================

// GetPage renvoie une page publiée (about, faq, cgv...), cache Redis
func GetPage(c *gin.Context) {
	slug := c.Param("slug")
	cacheKey := "page:" + slug

	if cached, err := cache.GetCache(cacheKey); err == nil && cached != "" {
		var page models.Page
		if json.Unmarshal([]byte(cached), &page) == nil {
			c.JSON(http.StatusOK, page)
			return
		}
	}

	page, err := loadPage(slug)
	if err == gocql.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Page introuvable"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if !page.Published {
		c.JSON(http.StatusNotFound, gin.H{"error": "Page introuvable"})
		return
	}

	if data, err := json.Marshal(page); err == nil {
		cache.SetCache(cacheKey, string(data), cache.PageCacheTTL)
	}

	c.JSON(http.StatusOK, page)
}

// ListPages liste toutes les pages (admin, y compris non publiées)
func ListPages(c *gin.Context) {
	session, err := database.GetCustomersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Base indisponible"})
		return
	}

	iter := session.Query(`SELECT slug, title, body, published, updated_by, created_at, updated_at FROM pages`).Iter()

	pages := []models.Page{}
	var p models.Page
	for iter.Scan(&p.Slug, &p.Title, &p.Body, &p.Published, &p.UpdatedBy, &p.CreatedAt, &p.UpdatedAt) {
		pages = append(pages, p)
		p = models.Page{}
	}
	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"pages": pages, "count": len(pages)})
}

// UpsertPage crée ou met à jour une page de contenu (admin)
func UpsertPage(c *gin.Context) {
	slug := c.Param("slug")
	adminID := c.GetInt64("admin_id")

	var input struct {
		Title     string `json:"title"`
		Body      string `json:"body"`
		Published bool   `json:"published"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Titre requis"})
		return
	}

	session, err := database.GetCustomersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Base indisponible"})
		return
	}

	old, _ := loadPage(slug)
	now := time.Now()

	page := models.Page{
		Slug:      slug,
		Title:     input.Title,
		Body:      input.Body,
		Published: input.Published,
		UpdatedBy: adminID,
		CreatedAt: now,
		UpdatedAt: &now,
	}
	action := utils.ACTION_PAGE_CREATE
	if old != nil {
		page.CreatedAt = old.CreatedAt
		action = utils.ACTION_PAGE_UPDATE
	}

	if err := session.Query(`INSERT INTO pages (slug, title, body, published, updated_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		page.Slug, page.Title, page.Body, page.Published, page.UpdatedBy,
		page.CreatedAt, page.UpdatedAt,
	).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	cache.DeleteCache("page:" + slug)
	utils.LogAction(c, action, utils.RESOURCE_PAGE, slug, old, page)

	c.JSON(http.StatusOK, page)
}

// DeletePage supprime une page de contenu (admin)
func DeletePage(c *gin.Context) {
	slug := c.Param("slug")

	session, err := database.GetCustomersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Base indisponible"})
		return
	}

	old, err := loadPage(slug)
	if err == gocql.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Page introuvable"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := session.Query(`DELETE FROM pages WHERE slug = ?`, slug).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	cache.DeleteCache("page:" + slug)
	utils.LogAction(c, utils.ACTION_PAGE_DELETE, utils.RESOURCE_PAGE, slug, old, nil)

	c.JSON(http.StatusOK, gin.H{"message": "Page supprimée"})
}

func loadPage(slug string) (*models.Page, error) {
	session, err := database.GetCustomersSession()
	if err != nil {
		return nil, err
	}

	var p models.Page
	p.Slug = slug
	err = session.Query(`SELECT title, body, published, updated_by, created_at, updated_at
		FROM pages WHERE slug = ?`, slug).Scan(
		&p.Title, &p.Body, &p.Published, &p.UpdatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
