package model

import "time"

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is what the auth service hands back for register, login and
// refresh. The refresh token travels only in the httpOnly cookie; handlers
// must not echo it in the JSON body.
type AuthResult struct {
	User         PublicUser
	AccessToken  string
	RefreshToken string
}

// TokenClaims is the claim set carried by both token classes.
type TokenClaims struct {
	UserID string
	Email  string
	Role   string
}

type RateLimitCounter struct {
	Identifier  string
	Count       int
	WindowStart time.Time
	UserID      *string
}

// RateLimitResult reports a single fixed-window check.
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  int64 // unix millis when the current window ends
	RetryAfter int   // seconds, set only when rejected
}
