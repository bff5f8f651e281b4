package models

type Customer struct {
	ID         string `json:"customer_id"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email"`
	Password   string `json:"-"`
	Phone      string `json:"phone,omitempty"`
	Role       string `json:"role,omitempty"` // customer, admin
	Provider   string `json:"provider,omitempty"`
	ProviderID string `json:"-"`
	AdminID    *int64 `json:"admin_id,omitempty"` // identifiant numérique pour les comptes admin
}
