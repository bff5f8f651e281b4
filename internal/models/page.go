package models

import "time"

// Page est une page de contenu statique gérée par les admins (cgv, faq, a-propos...)
type Page struct {
	Slug      string     `json:"slug"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Published bool       `json:"published"`
	UpdatedBy int64      `json:"updated_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}
