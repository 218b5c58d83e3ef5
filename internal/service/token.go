package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/apnisec/backend/internal/config"
	"github.com/apnisec/backend/internal/model"
)

var (
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenInvalid  = errors.New("token invalid")
	ErrMisconfigured = errors.New("token config invalid")
)

type tokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies the two token classes. Each class has its
// own signing secret so a leaked access secret cannot mint refresh tokens.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenService(cfg config.JWTConfig, production bool) (*TokenService, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("%w: signing secrets are required", ErrMisconfigured)
	}
	if production &&
		(cfg.AccessSecret == config.DefaultAccessSecret || cfg.RefreshSecret == config.DefaultRefreshSecret) {
		return nil, fmt.Errorf("%w: JWT_SECRET and JWT_REFRESH_SECRET must be set in production", ErrMisconfigured)
	}
	if cfg.AccessExpiry <= 0 || cfg.RefreshExpiry <= 0 {
		return nil, fmt.Errorf("%w: token expiries must be positive", ErrMisconfigured)
	}

	return &TokenService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessExpiry,
		refreshTTL:    cfg.RefreshExpiry,
	}, nil
}

func (s *TokenService) AccessTTL() time.Duration  { return s.accessTTL }
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

func (s *TokenService) IssueAccess(claims model.TokenClaims) (string, error) {
	return s.sign(claims, s.accessSecret, s.accessTTL)
}

func (s *TokenService) IssueRefresh(claims model.TokenClaims) (string, error) {
	return s.sign(claims, s.refreshSecret, s.refreshTTL)
}

// VerifyAccess returns the claims carried by an access token, or
// ErrTokenExpired / ErrTokenInvalid. The distinction is for logging; both mean
// authentication failed.
func (s *TokenService) VerifyAccess(token string) (model.TokenClaims, error) {
	return s.verify(token, s.accessSecret)
}

func (s *TokenService) VerifyRefresh(token string) (model.TokenClaims, error) {
	return s.verify(token, s.refreshSecret)
}

func (s *TokenService) sign(claims model.TokenClaims, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Email: claims.Email,
		Role:  claims.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			// The jti makes tokens issued within the same second distinct,
			// which refresh rotation depends on.
			ID:        uuid.NewString(),
			Subject:   claims.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(secret)
}

func (s *TokenService) verify(tokenStr string, secret []byte) (model.TokenClaims, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.TokenClaims{}, ErrTokenExpired
		}
		return model.TokenClaims{}, ErrTokenInvalid
	}
	if !token.Valid || claims.Subject == "" {
		return model.TokenClaims{}, ErrTokenInvalid
	}

	return model.TokenClaims{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}
