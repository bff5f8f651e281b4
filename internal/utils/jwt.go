package utils

import (
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"tribune_back_end/internal/models"
)

const AccessTokenTTL = 24 * time.Hour

// JWTSecret lit le secret à chaque appel : la variable d'environnement
// n'est disponible qu'après le chargement du .env, pas à l'init du package.
// Signature et vérification doivent passer par cette même fonction
func JWTSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "super_secret"
	}
	return []byte(secret)
}

func GenerateJWT(customer models.Customer) (string, error) {
	claims := jwt.MapClaims{
		"customer_id": customer.ID,
		"email":       customer.Email,
		"role":        customer.Role,
		"jti":         uuid.New().String(),
		"exp":         time.Now().Add(AccessTokenTTL).Unix(),
	}

	// Seuls les comptes admin portent un identifiant numérique
	if customer.AdminID != nil {
		claims["admin_id"] = *customer.AdminID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JWTSecret())
}

// GenerateRefreshToken génère un token opaque stocké côté Redis
func GenerateRefreshToken() string {
	return uuid.New().String() + uuid.New().String()
}
