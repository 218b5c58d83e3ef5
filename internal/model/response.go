package model

type ErrorResponse struct {
	Error      string   `json:"error"`
	StatusCode int      `json:"statusCode"`
	Details    []string `json:"details,omitempty"`
	RetryAfter int      `json:"retryAfter,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type AuthResponse struct {
	User        PublicUser `json:"user"`
	AccessToken string     `json:"accessToken"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
