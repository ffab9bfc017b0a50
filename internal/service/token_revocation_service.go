// Package service implements the application's business logic on top of the
// repository and auth layers.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/authgate/authgate/internal/cache"
	"github.com/authgate/authgate/internal/constants"
	"github.com/authgate/authgate/internal/models"
	"github.com/authgate/authgate/internal/repository"
	"github.com/authgate/authgate/internal/utils"
)

// TokenRevocationService coordinates the two revocation stores: the Redis
// cache for fast lookups and the tombstone table as the durable source of
// truth. A cache hit is authoritative for "revoked"; a cache miss proves
// nothing and falls through to the database.
type TokenRevocationService struct {
	revokedRepo repository.RevokedTokenRepository
	revCache    cache.RevocationCache
}

// NewTokenRevocationService creates a new TokenRevocationService.
func NewTokenRevocationService(
	revokedRepo repository.RevokedTokenRepository,
	revCache cache.RevocationCache,
) *TokenRevocationService {
	return &TokenRevocationService{
		revokedRepo: revokedRepo,
		revCache:    revCache,
	}
}

// IsTokenRevoked reports whether the given JTI has been revoked. It
// satisfies auth.RevocationChecker.
//
// The cache is consulted first. On a hit the token is revoked and the
// database is not touched. On a miss the tombstone table decides. A cache
// lookup failure is logged and treated as a miss so an unhealthy Redis
// degrades to database-only checks instead of blocking every request; a
// database failure is returned to the caller, who must refuse the token.
func (s *TokenRevocationService) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	revoked, err := s.revCache.IsRevoked(ctx, jti)
	if err != nil {
		log.Warn().Err(err).Str(constants.ColumnJTI, jti).Msg("Revocation cache lookup failed, falling back to database")
	} else if revoked {
		return true, nil
	}

	revoked, err = s.revokedRepo.IsRevoked(ctx, jti)
	if err != nil {
		return false, fmt.Errorf("failed to check revocation status: %w", err)
	}

	return revoked, nil
}

// RevokeJTI writes a revocation tombstone for a token and mirrors it into
// the cache.
//
// The tombstone write is the one that matters: if it fails the error is
// returned and the token stays valid. The cache write is best-effort; its
// TTL is the token's remaining lifetime, and nothing is cached for tokens
// that have already expired. Revoking an already-revoked JTI succeeds.
func (s *TokenRevocationService) RevokeJTI(ctx context.Context, jti string, userID int64, expiresAt time.Time, reason string) error {
	tombstone := models.NewRevokedToken(jti, userID, reason, expiresAt)

	if err := s.revokedRepo.Create(ctx, tombstone); err != nil {
		if utils.IsDuplicateError(err) {
			log.Debug().Str(constants.ColumnJTI, jti).Msg("Token already revoked")
			return nil
		}
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	ttl := time.Until(expiresAt)
	if err := s.revCache.MarkRevoked(ctx, jti, ttl); err != nil {
		log.Warn().Err(err).Str(constants.ColumnJTI, jti).Msg("Failed to cache revocation, database remains authoritative")
	}

	return nil
}
