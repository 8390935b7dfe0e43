package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/taskmaster-solutions/ms-go-tasks/app/entity"
	"github.com/taskmaster-solutions/ms-go-tasks/app/repository"
	"github.com/taskmaster-solutions/ms-go-tasks/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid or expired token")

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

type Claims struct {
	UserID    uint64 `json:"user_id"`
	Username  string `json:"username"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies the access/refresh JWT pair. Refresh
// tokens are additionally tracked by JTI in the refresh_tokens table so a
// refresh token can be exchanged exactly once and revoked server-side.
type TokenService struct {
	db               *sql.DB
	userRepo         *repository.UserRepository
	refreshTokenRepo *repository.RefreshTokenRepository
	cfg              *config.Config
}

func NewTokenService(
	db *sql.DB,
	userRepo *repository.UserRepository,
	refreshTokenRepo *repository.RefreshTokenRepository,
	cfg *config.Config,
) *TokenService {
	return &TokenService{
		db:               db,
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		cfg:              cfg,
	}
}

// IssuePair returns a signed access token and a signed, persisted refresh
// token for the user.
func (s *TokenService) IssuePair(ctx context.Context, user *entity.User) (string, string, error) {
	return s.issuePairWithRepo(ctx, s.refreshTokenRepo, user)
}

func (s *TokenService) issuePairWithRepo(ctx context.Context, repo *repository.RefreshTokenRepository, user *entity.User) (string, string, error) {
	access, _, err := s.sign(user, TokenTypeAccess, s.cfg.JWTAccessTokenTTL)
	if err != nil {
		return "", "", err
	}

	refresh, refreshClaims, err := s.sign(user, TokenTypeRefresh, s.cfg.JWTRefreshTokenTTL)
	if err != nil {
		return "", "", err
	}

	record := &entity.RefreshToken{
		JTI:       refreshClaims.ID,
		UserID:    user.ID,
		ExpiresAt: refreshClaims.ExpiresAt.Time,
		CreatedAt: refreshClaims.IssuedAt.Time,
	}
	if err := repo.Create(ctx, record); err != nil {
		return "", "", err
	}

	return access, refresh, nil
}

// Verify checks signature, expiry, and the token type tag. Every failure
// mode collapses into ErrInvalidToken so callers cannot tell which check
// rejected the token.
func (s *TokenService) Verify(tokenString, expectedType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != expectedType {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Refresh exchanges a refresh token for a rotated pair. The JTI row is
// consumed inside the transaction, so presenting the same refresh token
// twice fails the second time.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	claims, err := s.Verify(refreshToken, TokenTypeRefresh)
	if err != nil {
		return "", "", err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", "", err
	}
	defer tx.Rollback()

	txRefreshRepo := s.refreshTokenRepo.WithTx(tx)
	consumed, err := txRefreshRepo.ConsumeByJTI(ctx, claims.ID, claims.UserID)
	if err != nil {
		return "", "", err
	}
	if consumed == 0 {
		return "", "", ErrInvalidToken
	}

	user, err := s.userRepo.WithTx(tx).FindByID(ctx, claims.UserID)
	if err != nil {
		return "", "", err
	}
	if user == nil {
		return "", "", ErrInvalidToken
	}

	access, refresh, err := s.issuePairWithRepo(ctx, txRefreshRepo, user)
	if err != nil {
		return "", "", err
	}

	if err := tx.Commit(); err != nil {
		return "", "", err
	}

	return access, refresh, nil
}

// Revoke consumes a single refresh token presented by its owner. An
// already-consumed token is not an error.
func (s *TokenService) Revoke(ctx context.Context, userID uint64, refreshToken string) error {
	claims, err := s.Verify(refreshToken, TokenTypeRefresh)
	if err != nil {
		return ErrInvalidToken
	}
	if claims.UserID != userID {
		return ErrInvalidToken
	}

	_, err = s.refreshTokenRepo.ConsumeByJTI(ctx, claims.ID, userID)
	return err
}

// RevokeAll terminates every outstanding refresh token for the user.
func (s *TokenService) RevokeAll(ctx context.Context, userID uint64) error {
	return s.refreshTokenRepo.DeleteByUserID(ctx, userID)
}

func (s *TokenService) sign(user *entity.User, tokenType string, ttl time.Duration) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		UserID:    user.ID,
		Username:  user.Username,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   user.Username,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}
