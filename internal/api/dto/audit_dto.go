package dto

import "time"

// AuditLogResponse is one audit entry.
type AuditLogResponse struct {
	ID         string    `json:"id"`
	ActorEmail string    `json:"actor_email"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	Details    string    `json:"details"`
	IPAddress  *string   `json:"ip_address"`
	UserAgent  *string   `json:"user_agent"`
	CreatedAt  time.Time `json:"created_at"`
}

// AuditStatsResponse summarizes the audit log.
type AuditStatsResponse struct {
	Total    int64            `json:"total"`
	Last24h  int64            `json:"last_24h"`
	ByAction map[string]int64 `json:"by_action"`
}
