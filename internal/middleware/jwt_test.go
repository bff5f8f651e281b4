package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"tribune_back_end/internal/models"
	"tribune_back_end/internal/utils"
)

func newProtectedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/privé", AuthRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"customer_id": c.GetString("customer_id"),
			"admin_id":    c.GetInt64("admin_id"),
		})
	})
	return r
}

func TestAuthRequired(t *testing.T) {
	t.Run("Given a secret loaded after startup When a fresh token is presented Then it verifies", func(t *testing.T) {
		// Le secret arrive via .env au démarrage, bien après l'init du
		// package : signature et vérification doivent le lire au même moment
		t.Setenv("JWT_SECRET", "secret-chargé-tardivement")

		token, err := utils.GenerateJWT(models.Customer{ID: "c-42", Email: "jean@exemple.fr", Role: "customer"})
		if err != nil {
			t.Fatalf("génération token: %v", err)
		}

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/privé", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		newProtectedRouter().ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("code = %d, attendu 200: %s", w.Code, w.Body.String())
		}
	})

	t.Run("Given an admin token When presented Then the numeric admin id lands in the context", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secret-chargé-tardivement")

		adminID := int64(7)
		token, err := utils.GenerateJWT(models.Customer{
			ID: "a-7", Email: "admin@exemple.fr", Role: "admin", AdminID: &adminID,
		})
		if err != nil {
			t.Fatalf("génération token: %v", err)
		}

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/privé", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		newProtectedRouter().ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("code = %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("Given a token signed under another secret When presented Then 401", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "ancien-secret")
		token, err := utils.GenerateJWT(models.Customer{ID: "c-42", Email: "jean@exemple.fr"})
		if err != nil {
			t.Fatalf("génération token: %v", err)
		}

		t.Setenv("JWT_SECRET", "nouveau-secret")
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/privé", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		newProtectedRouter().ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("code = %d, attendu 401", w.Code)
		}
	})

	t.Run("Given no Authorization header When requested Then 401", func(t *testing.T) {
		w := httptest.NewRecorder()
		newProtectedRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/privé", nil))
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("code = %d, attendu 401", w.Code)
		}
	})
}
