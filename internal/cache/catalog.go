package cache

import (
	"context"
	"encoding/json"
	"time"

	"tribune_back_end/internal/database"
	"tribune_back_end/internal/models"
)

// TTL statiques du cache : le catalogue du fournisseur change peu,
// les pages de contenu encore moins
const (
	CatalogCacheTTL  = 10 * time.Minute
	EventsCacheTTL   = 2 * time.Minute
	PageCacheTTL     = 30 * time.Minute
	CustomerCacheTTL = 5 * time.Minute
)

// GetCatalog récupère une réponse catalogue brute depuis Redis
func GetCatalog(key string) ([]byte, bool) {
	data, err := database.Redis.Get(context.Background(), "catalog:"+key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetCatalog met en cache une réponse catalogue brute
func SetCatalog(key string, payload []byte, ttl time.Duration) {
	database.Redis.Set(context.Background(), "catalog:"+key, payload, ttl)
}

// GetCustomerFromCache récupère un client depuis Redis ou ScyllaDB
func GetCustomerFromCache(customerID string) (*models.Customer, error) {
	ctx := context.Background()
	key := "customer:" + customerID

	// 1. Essayer le cache Redis
	data, err := database.Redis.Get(ctx, key).Result()
	if err == nil {
		var customer models.Customer
		if json.Unmarshal([]byte(data), &customer) == nil {
			return &customer, nil
		}
	}

	// 2. Récupérer de ScyllaDB
	session, err := database.GetCustomersSession()
	if err != nil {
		return nil, err
	}

	var (
		email, name, phone, role, provider string
		adminID                            *int64
	)
	err = session.Query(`SELECT email, name, phone, role, provider, admin_id
		FROM customers WHERE customer_id = ?`, customerID).Scan(
		&email, &name, &phone, &role, &provider, &adminID)
	if err != nil {
		return nil, err
	}

	customer := &models.Customer{
		ID:       customerID,
		Email:    email,
		Name:     name,
		Phone:    phone,
		Role:     role,
		Provider: provider,
		AdminID:  adminID,
	}

	// 3. Mettre en cache
	jsonData, _ := json.Marshal(customer)
	database.Redis.Set(ctx, key, jsonData, CustomerCacheTTL)

	return customer, nil
}

// InvalidateCustomerCache invalide le cache d'un client
func InvalidateCustomerCache(customerID string) {
	database.Redis.Del(context.Background(), "customer:"+customerID)
}
