package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/markbates/goth/gothic"

	"tribune_back_end/internal/database"
	"tribune_back_end/internal/models"
	"tribune_back_end/internal/utils"
)

type ctxKey string

const ProviderKey ctxKey = "provider"

func BeginAuth(c *gin.Context) {
	provider := c.Param("provider")
	if provider == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "aucun provider spécifié"})
		return
	}

	c.Request = c.Request.WithContext(
		context.WithValue(c.Request.Context(), ProviderKey, provider),
	)

	gothic.BeginAuthHandler(c.Writer, c.Request)
}

func CallbackAuth(c *gin.Context) {
	provider := c.Param("provider")
	if provider == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "aucun provider spécifié"})
		return
	}

	c.Request = c.Request.WithContext(
		context.WithValue(c.Request.Context(), ProviderKey, provider),
	)

	userInfo, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customer, err := findOrCreateSocialCustomer(provider, userInfo.UserID, userInfo.Email, userInfo.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur enregistrement utilisateur"})
		return
	}

	token, err := utils.GenerateJWT(*customer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"provider": provider,
		"email":    customer.Email,
		"name":     customer.Name,
		"role":     customer.Role,
	})
}

// findOrCreateSocialCustomer rattache un compte social à un client existant
// via l'email, sinon en crée un nouveau.
func findOrCreateSocialCustomer(provider, providerID, email, name string) (*models.Customer, error) {
	session, err := database.GetCustomersSession()
	if err != nil {
		return nil, err
	}

	var customerID string
	err = database.GetPreparedGetCustomerByEmail().Bind(email).Scan(&customerID)
	if err == nil {
		var customer models.Customer
		customer.ID = customerID
		if err := database.GetPreparedGetCustomerByID().Bind(customerID).Scan(
			&customer.Email, &customer.Password, &customer.Name, &customer.Phone,
			&customer.Role, &customer.Provider, &customer.ProviderID, &customer.AdminID,
		); err != nil {
			return nil, err
		}
		return &customer, nil
	}
	if err != gocql.ErrNotFound {
		return nil, err
	}

	// Création d'un nouveau compte social
	customer := models.Customer{
		ID:         uuid.New().String(),
		Name:       name,
		Email:      email,
		Role:       "customer",
		Provider:   provider,
		ProviderID: providerID,
	}

	if err := session.Query(`INSERT INTO customers (customer_id, email, password, name, phone, role, provider, provider_id, admin_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		customer.ID, customer.Email, "", customer.Name, "", customer.Role,
		customer.Provider, customer.ProviderID, nil, time.Now(),
	).Exec(); err != nil {
		return nil, err
	}

	if err := database.GetPreparedInsertCustomerByEmail().Bind(customer.Email, customer.ID).Exec(); err != nil {
		return nil, err
	}

	return &customer, nil
}
