package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"tribune_back_end/internal/cache"
	"tribune_back_end/internal/database"
	"tribune_back_end/internal/models"
	"tribune_back_end/internal/utils"
)

const RefreshTokenTTL = 30 * 24 * time.Hour

// ================== AUTH LOCALE ==================

func Register(c *gin.Context) {
	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Phone    string `json:"phone"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Email == "" || input.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email et mot de passe requis"})
		return
	}

	// ⚡ Vérifier si l'email existe déjà
	var existingID string
	err := database.GetPreparedGetCustomerByEmail().Bind(input.Email).Scan(&existingID)
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Un compte avec cet email existe déjà",
			"email": input.Email,
		})
		return
	}
	if err != gocql.ErrNotFound {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur vérification email"})
		return
	}

	// ✅ hash password (Argon2id)
	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur hash mot de passe"})
		return
	}

	customer := models.Customer{
		ID:       uuid.New().String(),
		Name:     input.Name,
		Email:    input.Email,
		Password: hashedPassword,
		Phone:    input.Phone,
		Role:     "customer",
		Provider: "local",
	}

	if err := database.GetPreparedInsertCustomer().Bind(
		customer.ID, customer.Email, customer.Password, customer.Name,
		customer.Phone, customer.Role, customer.Provider, "", nil, time.Now(),
	).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := database.GetPreparedInsertCustomerByEmail().Bind(customer.Email, customer.ID).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Email de bienvenue sans bloquer la réponse
	go func() {
		if err := utils.SendWelcomeEmail(customer.Email, customer.Name); err != nil {
			log.Printf("⚠️ Email de bienvenue non envoyé: %v", err)
		}
	}()

	c.JSON(http.StatusCreated, gin.H{
		"customer_id": customer.ID,
		"email":       customer.Email,
		"role":        customer.Role,
	})
}

func Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var customerID string
	if err := database.GetPreparedGetCustomerByEmail().Bind(input.Email).Scan(&customerID); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur introuvable"})
		return
	}

	// Lecture directe en base : la copie Redis ne porte jamais le hash
	// du mot de passe, seule cette lecture permet la vérification
	customer, err := loadCustomerCredentials(customerID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur introuvable"})
		return
	}

	ok, err := utils.VerifyPassword(input.Password, customer.Password)
	if err != nil || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Mot de passe incorrect"})
		return
	}

	token, err := utils.GenerateJWT(*customer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}

	refreshToken := utils.GenerateRefreshToken()
	if err := cache.StoreRefreshToken(customer.ID, refreshToken, RefreshTokenTTL); err != nil {
		log.Printf("⚠️ Stockage refresh token impossible: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"token":         token,
		"refresh_token": refreshToken,
		"customer_id":   customer.ID,
		"name":          customer.Name,
		"email":         customer.Email,
		"role":          customer.Role,
	})
}

// loadCustomerCredentials charge le compte complet, hash du mot de passe
// compris, depuis ScyllaDB sans passer par le cache
func loadCustomerCredentials(customerID string) (*models.Customer, error) {
	var (
		email, password, name, phone, role, provider, providerID string
		adminID                                                  *int64
	)
	if err := database.GetPreparedGetCustomerByID().Bind(customerID).Scan(
		&email, &password, &name, &phone, &role, &provider, &providerID, &adminID,
	); err != nil {
		return nil, err
	}

	return &models.Customer{
		ID:         customerID,
		Email:      email,
		Password:   password,
		Name:       name,
		Phone:      phone,
		Role:       role,
		Provider:   provider,
		ProviderID: providerID,
		AdminID:    adminID,
	}, nil
}

// Refresh échange un refresh token valide contre un nouveau JWT
func Refresh(c *gin.Context) {
	var input struct {
		CustomerID   string `json:"customer_id"`
		RefreshToken string `json:"refresh_token"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stored, err := cache.GetRefreshToken(input.CustomerID)
	if err != nil || stored == "" || stored != input.RefreshToken {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token invalide ou expiré"})
		return
	}

	customer, err := cache.GetCustomerFromCache(input.CustomerID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur introuvable"})
		return
	}

	token, err := utils.GenerateJWT(*customer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}

	// Rotation du refresh token
	newRefresh := utils.GenerateRefreshToken()
	if err := cache.StoreRefreshToken(customer.ID, newRefresh, RefreshTokenTTL); err != nil {
		log.Printf("⚠️ Rotation refresh token impossible: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"token":         token,
		"refresh_token": newRefresh,
	})
}

func Logout(c *gin.Context) {
	customerID := c.GetString("customer_id")

	if err := cache.DeleteRefreshToken(customerID); err != nil {
		log.Printf("⚠️ Suppression refresh token impossible: %v", err)
	}

	utils.LogAction(c, utils.ACTION_LOGOUT, utils.RESOURCE_AUTH, customerID, nil, nil)

	c.JSON(http.StatusOK, gin.H{"message": "Déconnecté"})
}

func Me(c *gin.Context) {
	customerID := c.GetString("customer_id")

	customer, err := cache.GetCustomerFromCache(customerID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		return
	}

	c.JSON(http.StatusOK, customer)
}
