package domain

import "time"

// Actor identifies the tenant and user on whose behalf an operation runs.
// Resolution of both ids happens outside this core (JWT claims, service
// accounts for background jobs).
type Actor struct {
	TenantID string
	UserID   string
}

// SystemActor is used by background jobs that mutate entities without a
// human caller (dispatch, recovery, retention).
var SystemActor = Actor{UserID: "system"}

// AuditInfo carries the audit stamps and optimistic-concurrency counter
// shared by every entity. Embedded by composition rather than inherited.
type AuditInfo struct {
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by,omitempty"`
	Version   int       `json:"version"`
}

// MarkCreated initializes the audit stamps for a new entity.
func (a *AuditInfo) MarkCreated(by string, now time.Time) {
	if a == nil {
		return
	}
	a.CreatedAt = now
	a.CreatedBy = by
	a.UpdatedAt = now
	a.UpdatedBy = by
	a.Version = 1
}

// MarkUpdated bumps the version counter and refreshes the update stamps.
// Every mutation path must call this exactly once before persisting.
func (a *AuditInfo) MarkUpdated(by string, now time.Time) {
	if a == nil {
		return
	}
	a.UpdatedAt = now
	a.UpdatedBy = by
	a.Version++
}
