package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"minitwit/internal/config"
	"minitwit/internal/model"
	"minitwit/internal/repository"
)

// AuthService issues login sessions: a short-lived access token carrying the
// user id and a rotating refresh token that bounds the session lifetime.
type AuthService struct {
	refreshTokenRepo repository.RefreshTokenRepository
	config           *config.Config
	now              func() time.Time
}

func NewAuthService(refreshTokenRepo repository.RefreshTokenRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		refreshTokenRepo: refreshTokenRepo,
		config:           cfg,
		now:              time.Now,
	}
}

// GenerateTokenPair issues a new access token and persists a refresh token.
func (s *AuthService) GenerateTokenPair(ctx context.Context, userID int64) (*model.TokenPair, error) {
	pair, _, err := s.generateTokenPair(ctx, userID)
	return pair, err
}

func (s *AuthService) generateTokenPair(ctx context.Context, userID int64) (*model.TokenPair, *model.RefreshToken, error) {
	accessToken, err := s.generateAccessToken(userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshTokenRaw := uuid.New().String()
	refreshToken := &model.RefreshToken{
		UserID:    userID,
		TokenHash: hashToken(refreshTokenRaw),
		ExpiresAt: s.now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
	}

	if err := s.refreshTokenRepo.Create(ctx, refreshToken); err != nil {
		return nil, nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshTokenRaw,
		ExpiresIn:    s.config.AccessTokenMaxAge,
	}, refreshToken, nil
}

// RefreshTokens validates the refresh token and rotates a new pair.
// Presenting an already revoked token revokes every session of its user.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshTokenRaw string) (*model.TokenPair, int64, error) {
	token, err := s.refreshTokenRepo.FindByTokenHash(ctx, hashToken(refreshTokenRaw))
	if err != nil {
		if errors.Is(err, model.ErrRefreshTokenNotFound) {
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("failed to find refresh token: %w", err)
	}

	if token.IsRevoked() {
		if err := s.refreshTokenRepo.RevokeAllForUser(ctx, token.UserID); err != nil {
			slog.ErrorContext(ctx, "revoke token family failed", "component", "AuthService", "user", token.UserID, "error", err)
		}
		slog.WarnContext(ctx, "refresh token reuse detected", "component", "AuthService", "user", token.UserID)
		return nil, 0, model.ErrRefreshTokenReused
	}

	if token.IsExpired(s.now()) {
		return nil, 0, model.ErrRefreshTokenExpired
	}

	pair, replacement, err := s.generateTokenPair(ctx, token.UserID)
	if err != nil {
		return nil, 0, err
	}

	if err := s.refreshTokenRepo.Revoke(ctx, token.ID, &replacement.ID); err != nil {
		slog.ErrorContext(ctx, "revoke rotated token failed", "component", "AuthService", "token", token.ID, "error", err)
	}

	return pair, token.UserID, nil
}

// RevokeRefreshToken ends the session identified by refreshTokenRaw.
func (s *AuthService) RevokeRefreshToken(ctx context.Context, refreshTokenRaw string) error {
	token, err := s.refreshTokenRepo.FindByTokenHash(ctx, hashToken(refreshTokenRaw))
	if err != nil {
		return err
	}
	return s.refreshTokenRepo.Revoke(ctx, token.ID, nil)
}

func (s *AuthService) generateAccessToken(userID int64) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(time.Duration(s.config.AccessTokenMaxAge) * time.Second).Unix(),
		"iat":     now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
