package domain

// AuditEntry records one owner action. Timestamp is unix milliseconds.
type AuditEntry struct {
	ID        string `json:"id"`
	Action    string `json:"action"`
	Details   string `json:"details,omitempty"`
	Timestamp int64  `json:"timestamp"`
	IP        string `json:"ip"`
}
