package adminsdk

// ErrorResponse is the JSON error body. Client code should use *Error.
type ErrorResponse struct {
	// Error is the error code (e.g. "invalid_request")
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description"`
}

// ============================================================================
// Authentication
// ============================================================================

// LoginRequest is the body of POST /api/auth.
type LoginRequest struct {
	// Password is the owner password (at least 8 characters)
	Password string `json:"password"`

	// Token is the CSRF nonce obtained from GET /api/auth/csrf
	Token string `json:"token"`

	// OTP is the current TOTP code, required when the owner has one configured
	OTP string `json:"otp,omitempty"`
}

// TokenResponse is returned by login and refresh. The refresh token travels
// in the refresh_token cookie only.
type TokenResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"accessToken"`
	// ExpiresIn is the access token lifetime in seconds
	ExpiresIn int64 `json:"expiresIn"`
}

// CSRFResponse is returned by GET /api/auth/csrf.
type CSRFResponse struct {
	CSRFToken string `json:"csrfToken"`
}

// SuccessResponse is the body of operations with nothing else to report.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ============================================================================
// Scripts
// ============================================================================

// Script is a catalog entry. Text fields come back HTML escaped.
type Script struct {
	// ID is zero when creating a script
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
	Downloads   int64  `json:"downloads"`
	Category    string `json:"category"`
	IsNew       bool   `json:"isNew"`
	Featured    bool   `json:"featured"`
}

type ListScriptsResponse struct {
	Scripts []Script `json:"scripts"`
}

type ScriptResponse struct {
	Script Script `json:"script"`
}

// SaveScriptResponse is returned by POST /api/scripts.
type SaveScriptResponse struct {
	Success bool   `json:"success"`
	Script  Script `json:"script"`
}

// ============================================================================
// Backup and settings
// ============================================================================

// Backup is the export document. Restoring it replaces the catalog and
// settings in one step.
type Backup struct {
	Scripts  []Script       `json:"scripts"`
	Settings map[string]any `json:"settings,omitempty"`
	Version  string         `json:"version"`
	// Timestamp is the export time in unix milliseconds
	Timestamp int64 `json:"timestamp"`
}

type RestoreResponse struct {
	Success  bool `json:"success"`
	Restored int  `json:"restored"`
}

type SettingsRequest struct {
	Settings map[string]any `json:"settings"`
}

type SettingsResponse struct {
	Success  bool           `json:"success,omitempty"`
	Settings map[string]any `json:"settings"`
}

// ============================================================================
// Audit log
// ============================================================================

// AuditRequest is the body of POST /api/audit.
type AuditRequest struct {
	Action  string `json:"action"`
	Details string `json:"details,omitempty"`
	// Timestamp in unix milliseconds; the server time is used when omitted
	Timestamp int64 `json:"timestamp,omitempty"`
}

type AuditEntry struct {
	ID        string `json:"id"`
	Action    string `json:"action"`
	Details   string `json:"details,omitempty"`
	Timestamp int64  `json:"timestamp"`
	IP        string `json:"ip,omitempty"`
}

// ListAuditResponse is a page of the audit log, newest first.
type ListAuditResponse struct {
	Logs  []AuditEntry `json:"logs"`
	Total int          `json:"total"`
}

// ============================================================================
// Health
// ============================================================================

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains the status of individual components (readyz only)
	Checks *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database  string `json:"database"`
	RateLimit string `json:"ratelimit"`
}
