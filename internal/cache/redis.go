package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"tribune_back_end/internal/database"
)

var ctx = context.Background()

// --- Refresh Tokens ---

// StoreRefreshToken stocke un refresh token pour un client
func StoreRefreshToken(customerID, refreshToken string, duration time.Duration) error {
	key := fmt.Sprintf("refresh:%s", customerID)
	return database.Redis.Set(ctx, key, refreshToken, duration).Err()
}

// GetRefreshToken récupère le refresh token d'un client
func GetRefreshToken(customerID string) (string, error) {
	key := fmt.Sprintf("refresh:%s", customerID)
	return database.Redis.Get(ctx, key).Result()
}

// DeleteRefreshToken supprime le refresh token (logout)
func DeleteRefreshToken(customerID string) error {
	key := fmt.Sprintf("refresh:%s", customerID)
	return database.Redis.Del(ctx, key).Err()
}

// --- Blacklist JWT (révocation avant expiration) ---

// BlacklistToken ajoute un token JWT à la blacklist
func BlacklistToken(tokenID string, duration time.Duration) error {
	key := fmt.Sprintf("blacklist:%s", tokenID)
	return database.Redis.Set(ctx, key, "revoked", duration).Err()
}

// IsTokenBlacklisted vérifie si un token est blacklisté
func IsTokenBlacklisted(tokenID string) bool {
	if database.Redis == nil {
		return false
	}
	key := fmt.Sprintf("blacklist:%s", tokenID)
	exists, err := database.Redis.Exists(ctx, key).Result()
	if err != nil {
		log.Printf("⚠️ Erreur vérification blacklist: %v", err)
		return false
	}
	return exists > 0
}

// --- Compteur d'identifiants de demandes ---

// NextRequestID alloue un identifiant entier croissant pour les demandes
// d'annulation/remboursement
func NextRequestID(ctx context.Context) (int64, error) {
	return database.Redis.Incr(ctx, "requests:next_id").Result()
}

// --- Pub/Sub pour le fil admin temps réel ---

const RequestsFeedChannel = "requests:feed"

// PublishRequestEvent notifie le fil admin qu'une demande a changé.
// Best-effort : la transition est déjà persistée quand on publie
func PublishRequestEvent(payload string) {
	if database.Redis == nil {
		return
	}
	if err := database.Redis.Publish(ctx, RequestsFeedChannel, payload).Err(); err != nil {
		log.Printf("⚠️ Erreur publication fil demandes: %v", err)
	}
}

// --- Cache générique ---

// SetCache stocke une valeur dans le cache
func SetCache(key string, value interface{}, duration time.Duration) error {
	return database.Redis.Set(ctx, key, value, duration).Err()
}

// GetCache récupère une valeur du cache
func GetCache(key string) (string, error) {
	return database.Redis.Get(ctx, key).Result()
}

// DeleteCache supprime une clé du cache
func DeleteCache(key string) error {
	return database.Redis.Del(ctx, key).Err()
}

// --- Rate Limiting Global ---

// IncrementRateLimit incrémente le compteur de rate limit
func IncrementRateLimit(key string, window time.Duration) (int64, error) {
	pipe := database.Redis.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// GetRateLimit récupère le compteur de rate limit
func GetRateLimit(key string) (int64, error) {
	val, err := database.Redis.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}
