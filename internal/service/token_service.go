package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/school-auth/internal/auth"
	"github.com/spec-kit/school-auth/internal/domain"
	"github.com/spec-kit/school-auth/internal/events"
	"github.com/spec-kit/school-auth/internal/revocation"
)

// TokenService coordinates token pair issuance, refresh rotation and
// logout against the revocation store.
type TokenService struct {
	tokens     *auth.TokenProvider
	store      revocation.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewTokenService builds the service.
func NewTokenService(tokens *auth.TokenProvider, store revocation.Store, dispatcher events.Dispatcher, logger *zap.Logger) *TokenService {
	return &TokenService{tokens: tokens, store: store, dispatcher: dispatcher, logger: logger}
}

// IssuePair issues a fresh access/refresh pair and records the refresh
// entry so it is eligible for exactly one rotation.
func (s *TokenService) IssuePair(ctx context.Context, subject string, role domain.Role) (*domain.TokenPair, error) {
	pair, _, err := s.issuePair(ctx, subject, role)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.NewTokenIssued(subject))
	return pair, nil
}

func (s *TokenService) issuePair(ctx context.Context, subject string, role domain.Role) (*domain.TokenPair, *domain.Token, error) {
	accessStr, accessToken, err := s.tokens.Issue(subject, role, domain.TokenTypeAccess)
	if err != nil {
		return nil, nil, err
	}
	refreshStr, refreshToken, err := s.tokens.Issue(subject, role, domain.TokenTypeRefresh)
	if err != nil {
		return nil, nil, err
	}

	entry := revocation.Entry{
		TokenID:   refreshToken.ID,
		Subject:   subject,
		ExpiresAt: refreshToken.ExpiresAt,
	}
	if err := s.store.Put(ctx, entry, s.tokens.RefreshTTL()); err != nil {
		return nil, nil, err
	}

	return &domain.TokenPair{
		AccessToken:      accessStr,
		RefreshToken:     refreshStr,
		AccessExpiresAt:  accessToken.ExpiresAt,
		RefreshExpiresAt: refreshToken.ExpiresAt,
	}, refreshToken, nil
}

// Refresh rotates a refresh token: the old entry is taken from the store
// atomically, so of two concurrent attempts with the same token exactly
// one wins and the loser sees ErrRevoked. A store that cannot answer
// fails closed: the rotation is refused rather than double-issued.
func (s *TokenService) Refresh(ctx context.Context, refreshTokenStr string) (*domain.TokenPair, error) {
	claims, err := s.tokens.Validate(refreshTokenStr)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != domain.TokenTypeRefresh {
		return nil, auth.ErrMalformed
	}

	entry, err := s.store.Take(ctx, claims.ID)
	if err != nil {
		s.logger.Warn("revocation store unavailable, refusing rotation",
			zap.String("subject", claims.Subject), zap.Error(err))
		return nil, auth.ErrRevoked
	}
	if entry == nil {
		return nil, auth.ErrRevoked
	}

	// Point of no return: the old entry is gone. A client abort from here
	// on must not resurrect it.
	pair, refreshToken, err := s.issuePair(ctx, claims.Subject, claims.Role)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewTokenRefreshed(claims.Subject, claims.ID, refreshToken.ID))
	return pair, nil
}

// Logout revokes the caller's tokens: the access token id goes on the
// blacklist until its natural expiry, and the refresh entry is deleted
// when the client presents its refresh token.
func (s *TokenService) Logout(ctx context.Context, accessToken domain.Token, refreshTokenStr string) error {
	ttl := time.Until(accessToken.ExpiresAt)
	entry := revocation.Entry{
		TokenID:   accessToken.ID,
		Subject:   accessToken.Subject,
		ExpiresAt: accessToken.ExpiresAt,
	}
	if err := s.store.Blacklist(ctx, entry, ttl); err != nil {
		return err
	}

	refreshTokenID := ""
	if refreshTokenStr != "" {
		claims, err := s.tokens.Validate(refreshTokenStr)
		if err == nil && claims.TokenType == domain.TokenTypeRefresh && claims.Subject == accessToken.Subject {
			if err := s.store.Delete(ctx, claims.ID); err != nil {
				return err
			}
			refreshTokenID = claims.ID
		}
	}

	s.publish(ctx, events.NewLoggedOut(accessToken.Subject, accessToken.ID, refreshTokenID))
	return nil
}

func (s *TokenService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
