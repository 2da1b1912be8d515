// Package sessionsdk holds the wire types shared by the session service and
// its Go clients, plus a small HTTP client. Handlers marshal these types so
// server and SDK can never drift apart.
package sessionsdk

// LoginRequest starts or extends a session. Exactly one of Password,
// OneTimeCode or RefreshToken must be set; Email accompanies the first two.
type LoginRequest struct {
	Email        string `json:"email,omitempty"`
	Password     string `json:"password,omitempty"`
	OneTimeCode  string `json:"one_time_code,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// TokenResponse is the result of a successful login or refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"` // seconds
}

// OneTimeCodeRequest asks for a login code to be issued for an account.
type OneTimeCodeRequest struct {
	Email string `json:"email"`
}

// RefreshCheckRequest probes whether a refresh token is still redeemable.
type RefreshCheckRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshCheckResponse reports the advisory ledger answer. A true Usable can
// be stale by the time the client acts on it.
type RefreshCheckResponse struct {
	Usable bool `json:"usable"`
}

// ChangePasswordRequest replaces the caller's password and invalidates all
// outstanding tokens.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// SubjectResponse describes the composite identity resolved from a bearer
// token, keyed by attribute kind.
type SubjectResponse struct {
	Attributes map[string][]string `json:"attributes"`
}

// HealthChecks itemizes dependency status for the readiness probe.
type HealthChecks struct {
	Database string `json:"database"`
}

// HealthResponse is returned by the livez and readyz endpoints.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}
