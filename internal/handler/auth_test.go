package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type authResponse struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
	AccessToken string `json:"accessToken"`
}

func refreshCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == refreshCookieName {
			return cookie
		}
	}
	return nil
}

func decodeAuthResponse(t *testing.T, w *httptest.ResponseRecorder) authResponse {
	t.Helper()
	var resp authResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRegisterLoginLogoutFlow(t *testing.T) {
	env := newTestEnv(t, 100)

	w := env.do(http.MethodPost, "/auth/register", "",
		`{"email":"flow@b.com","password":"Passw0rd","name":"Flow"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	registered := decodeAuthResponse(t, w)
	require.NotEmpty(t, registered.AccessToken)
	require.Equal(t, "flow@b.com", registered.User.Email)

	cookie := refreshCookie(t, w)
	require.NotNil(t, cookie, "register must set the refresh cookie")
	require.NotEmpty(t, cookie.Value)
	require.True(t, cookie.HttpOnly)

	// The access token opens protected routes.
	w = env.do(http.MethodGet, "/issues", "Bearer "+registered.AccessToken, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotEmpty(t, w.Header().Get("X-RateLimit-Limit"))

	// Logout clears the cookie and invalidates the stored refresh token.
	w = env.do(http.MethodPost, "/auth/logout", "Bearer "+registered.AccessToken, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cleared := refreshCookie(t, w)
	require.NotNil(t, cleared)
	require.Empty(t, cleared.Value)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: cookie.Value})
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code, "refresh after logout must fail")
}

func TestRefreshRotatesCookie(t *testing.T) {
	env := newTestEnv(t, 100)

	w := env.do(http.MethodPost, "/auth/register", "",
		`{"email":"rotate@b.com","password":"Passw0rd"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	original := refreshCookie(t, w)
	require.NotNil(t, original)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: original.Value})
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rotated := refreshCookie(t, rec)
	require.NotNil(t, rotated)
	require.NotEqual(t, original.Value, rotated.Value, "refresh must rotate the cookie")

	// The consumed token is dead.
	req = httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: original.Value})
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "Invalid refresh token")
}

func TestRefreshWithoutCookie(t *testing.T) {
	env := newTestEnv(t, 100)

	w := env.do(http.MethodPost, "/auth/refresh", "", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "No refresh token provided")
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t, 100)
	env.registerUser(t, "known@b.com")

	wrongPassword := env.do(http.MethodPost, "/auth/login", "",
		`{"email":"known@b.com","password":"WrongPass1"}`)
	unknownEmail := env.do(http.MethodPost, "/auth/login", "",
		`{"email":"nobody@b.com","password":"Passw0rd"}`)

	require.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	require.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	require.Contains(t, wrongPassword.Body.String(), "Invalid credentials")
	require.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String(),
		"login failure bodies must not reveal whether the account exists")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t, 100)

	first := env.do(http.MethodPost, "/auth/register", "",
		`{"email":"dup@b.com","password":"Passw0rd"}`)
	require.Equal(t, http.StatusCreated, first.Code)

	second := env.do(http.MethodPost, "/auth/register", "",
		`{"email":"dup@b.com","password":"Different1"}`)
	require.Equal(t, http.StatusConflict, second.Code, second.Body.String())
}

func TestRateLimitExhaustionOverHTTP(t *testing.T) {
	// Each allowed request consumes two counter slots, one for the admission
	// check and one for the response headers, so a limit of 4 admits two
	// requests from the same address.
	env := newTestEnv(t, 4)

	for i := 0; i < 2; i++ {
		w := env.do(http.MethodPost, "/auth/login", "",
			`{"email":"nobody@b.com","password":"Passw0rd"}`)
		require.Equal(t, http.StatusUnauthorized, w.Code, "request %d must be admitted", i+1)
		require.Equal(t, "4", w.Header().Get("X-RateLimit-Limit"))
		require.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}

	w := env.do(http.MethodPost, "/auth/login", "",
		`{"email":"nobody@b.com","password":"Passw0rd"}`)
	require.Equal(t, http.StatusTooManyRequests, w.Code, w.Body.String())
	require.NotEmpty(t, w.Header().Get("Retry-After"))
	require.Equal(t, "4", w.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	require.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	require.Contains(t, w.Body.String(), "Too many requests")

	var body struct {
		RetryAfter int `json:"retryAfter"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Greater(t, body.RetryAfter, 0)
}

func TestProfileAndIssueRoutes(t *testing.T) {
	env := newTestEnv(t, 100)
	result := env.registerUser(t, "routes@b.com")
	bearer := "Bearer " + result.AccessToken

	w := env.do(http.MethodGet, "/users/profile", bearer, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Contains(t, w.Body.String(), "routes@b.com")
	require.False(t, strings.Contains(strings.ToLower(w.Body.String()), "password"),
		"profile response must not leak credentials")

	w = env.do(http.MethodPost, "/issues", bearer,
		`{"title":"Exposed S3 bucket","description":"Public read access on production assets bucket","type":"CLOUD_SECURITY"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Contains(t, w.Body.String(), `"OPEN"`)
	require.Contains(t, w.Body.String(), `"MEDIUM"`)

	w = env.do(http.MethodGet, "/issues", bearer, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Exposed S3 bucket")
}
