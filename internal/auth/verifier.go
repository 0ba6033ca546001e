package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chat-app-api/internal/cache"
	"chat-app-api/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxCachedTokens = 10_000

// TokenVerifier resolves a credential token into the Identity of a
// registered account. Successful verifications are cached until the
// earlier of the cache TTL and the token's own expiry.
type TokenVerifier struct {
	tokens *TokenManager
	db     *gorm.DB
	cache  cache.Cache[string, models.Identity]
	ttl    time.Duration
	log    *zap.Logger
}

// NewTokenVerifier creates a verifier backed by the users table.
func NewTokenVerifier(tokens *TokenManager, db *gorm.DB, ttl time.Duration, log *zap.Logger) *TokenVerifier {
	return &TokenVerifier{
		tokens: tokens,
		db:     db,
		cache:  cache.NewSimpleCache[string, models.Identity](cache.Options{ConcurrencySafe: true, MaxItems: maxCachedTokens}),
		ttl:    ttl,
		log:    log,
	}
}

// VerifyToken implements realtime.Verifier. All failures wrap ErrAuth.
func (v *TokenVerifier) VerifyToken(ctx context.Context, token string) (models.Identity, error) {
	if identity, ok := v.cache.Get(token); ok {
		return identity, nil
	}

	claims, err := v.tokens.ValidateToken(token)
	if err != nil {
		return models.Identity{}, err
	}

	var user models.User
	err = v.db.WithContext(ctx).Where("id = ?", claims.UserID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Identity{}, fmt.Errorf("%w: unknown account %s", ErrAuth, claims.UserID)
		}
		v.log.Warn("account lookup failed", zap.String("user_id", claims.UserID), zap.Error(err))
		return models.Identity{}, fmt.Errorf("%w: account lookup: %v", ErrAuth, err)
	}

	identity := user.Identity()
	if v.ttl > 0 {
		until := time.Now().Add(v.ttl)
		if claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(until) {
			until = claims.ExpiresAt.Time
		}
		v.cache.SetUntil(token, identity, until)
	}
	return identity, nil
}


// Sweep drops expired verifications every interval until ctx is done.
func (v *TokenVerifier) Sweep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v.cache.PurgeExpired()
			v.log.Debug("token cache swept", zap.Int("cached", v.cache.Len()))
		}
	}
}
