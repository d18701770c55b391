package domain

import "time"

// ClientMeta carries optional network details of the caller.
type ClientMeta struct {
	IPAddress string
	UserAgent string
}

// AuditLogEntry is an append-only record of an administrative action.
// ActorEmail is a snapshot so entries outlive the account.
type AuditLogEntry struct {
	ID         string
	ActorEmail string
	Action     string
	Resource   string
	Details    string
	IPAddress  *string
	UserAgent  *string
	CreatedAt  time.Time
}

// AuditStats summarizes the audit log.
type AuditStats struct {
	Total    int64
	Last24h  int64
	ByAction map[string]int64
}
