package service

import (
	"context"
	"regexp"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/apnisec/backend/internal/apperr"
	"github.com/apnisec/backend/internal/db"
	"github.com/apnisec/backend/internal/model"
)

func isNoRows(err error) bool {
	return db.IsNoRows(err)
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// UserStore is the identity-store contract the auth layer needs. *db.Postgres
// satisfies it; tests substitute an in-memory fake.
type UserStore interface {
	CreateUser(ctx context.Context, id, email, passwordHash string, name *string, role string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUserProfile(ctx context.Context, id string, name, email *string) (*model.User, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
	SetRefreshToken(ctx context.Context, id string, token *string) error
}

// Notifier delivers best-effort mail. Implementations must never block the
// caller or surface delivery errors.
type Notifier interface {
	SendWelcome(email, name string)
	SendIssueCreated(email string, issue model.Issue)
}

type AuthService struct {
	store    UserStore
	password *PasswordService
	tokens   *TokenService
	notifier Notifier
	logger   *zap.Logger
}

func NewAuthService(store UserStore, password *PasswordService, tokens *TokenService, notifier Notifier, logger *zap.Logger) *AuthService {
	return &AuthService{
		store:    store,
		password: password,
		tokens:   tokens,
		notifier: notifier,
		logger:   logger,
	}
}

func (s *AuthService) Register(ctx context.Context, email, password, name string) (*model.AuthResult, error) {
	var details []string
	if email == "" {
		details = append(details, "Email is required")
	} else if !emailPattern.MatchString(email) {
		details = append(details, "Invalid email format")
	}
	if password == "" {
		details = append(details, "Password is required")
	} else if utf8.RuneCountInString(password) < minPasswordLength {
		details = append(details, "Password must be at least 8 characters long")
	} else if len(password) > maxPasswordBytes {
		details = append(details, "Password must not exceed 72 characters")
	}
	if len(details) > 0 {
		return nil, apperr.Validation("Validation failed", details...)
	}

	if existing, err := s.store.GetUserByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperr.Conflict("User with this email already exists")
	} else if err != nil && !isNoRows(err) {
		return nil, err
	}

	hash, err := s.password.Hash(password)
	if err != nil {
		return nil, err
	}

	var namePtr *string
	if name != "" {
		namePtr = &name
	}

	user, err := s.store.CreateUser(ctx, uuid.NewString(), email, hash, namePtr, model.RoleUser)
	if err != nil {
		return nil, err
	}

	result, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	displayName := user.Email
	if user.Name != nil {
		displayName = *user.Name
	}
	s.notifier.SendWelcome(user.Email, displayName)

	return result, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*model.AuthResult, error) {
	if email == "" || password == "" {
		return nil, apperr.Validation("Email and password are required")
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if isNoRows(err) {
			return nil, apperr.Authentication("Invalid credentials")
		}
		return nil, err
	}

	if !s.password.Verify(password, user.PasswordHash) {
		return nil, apperr.Authentication("Invalid credentials")
	}

	return s.issueTokens(ctx, user)
}

// Logout clears the stored refresh token. Clearing an unknown user is a
// no-op; the client is discarding credentials either way.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.store.SetRefreshToken(ctx, userID, nil)
}

// Refresh rotates the token pair. The presented token must verify and match
// the stored slot byte for byte, which invalidates every previously issued
// refresh token the moment a new one is minted.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.AuthResult, error) {
	if refreshToken == "" {
		return nil, apperr.Authentication("Refresh token is required")
	}

	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, apperr.Authentication("Invalid or expired refresh token")
	}

	user, err := s.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if isNoRows(err) {
			return nil, apperr.Authentication("Invalid refresh token")
		}
		return nil, err
	}

	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		return nil, apperr.Authentication("Invalid refresh token")
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) VerifyToken(token string) (model.TokenClaims, error) {
	return s.tokens.VerifyAccess(token)
}

// UserFromToken is the soft resolution path: nil on any failure, never an
// error. Middleware uses it to treat bad tokens as anonymous.
func (s *AuthService) UserFromToken(ctx context.Context, token string) *model.User {
	claims, err := s.tokens.VerifyAccess(token)
	if err != nil {
		return nil
	}
	user, err := s.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil
	}
	return user
}

func (s *AuthService) issueTokens(ctx context.Context, user *model.User) (*model.AuthResult, error) {
	claims := model.TokenClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}

	accessToken, err := s.tokens.IssueAccess(claims)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.IssueRefresh(claims)
	if err != nil {
		return nil, err
	}

	if err := s.store.SetRefreshToken(ctx, user.ID, &refreshToken); err != nil {
		return nil, err
	}

	return &model.AuthResult{
		User:         user.Public(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
