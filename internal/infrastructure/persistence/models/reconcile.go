package models

import (
	"time"

	"github.com/adplan/backend/internal/domain/reconcile"
	"github.com/google/uuid"
)

// ReconcileRunModel is the persistence model for a finished reconciliation run
type ReconcileRunModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StartedAt  time.Time `gorm:"not null;index" json:"started_at"`
	FinishedAt time.Time `gorm:"not null" json:"finished_at"`
	DryRun     bool      `gorm:"not null" json:"dry_run"`
	Created    int       `gorm:"not null" json:"created"`
	Existing   int       `gorm:"not null" json:"existing"`
	Linked     int       `gorm:"not null" json:"linked"`
	Unresolved int       `gorm:"not null" json:"unresolved"`
	Failed     int       `gorm:"not null" json:"failed"`
	Summary    string    `gorm:"type:text" json:"summary"`
}

// TableName returns the table name for GORM
func (ReconcileRunModel) TableName() string {
	return "reconcile_runs"
}

// ToDomain converts the persistence model to a domain Run
func (m *ReconcileRunModel) ToDomain() *reconcile.Run {
	return &reconcile.Run{
		ID:         m.ID,
		StartedAt:  m.StartedAt,
		FinishedAt: m.FinishedAt,
		DryRun:     m.DryRun,
		Created:    m.Created,
		Existing:   m.Existing,
		Linked:     m.Linked,
		Unresolved: m.Unresolved,
		Failed:     m.Failed,
		Summary:    m.Summary,
	}
}

// FromDomain populates the persistence model from a domain Run
func (m *ReconcileRunModel) FromDomain(r *reconcile.Run) {
	m.ID = r.ID
	m.StartedAt = r.StartedAt
	m.FinishedAt = r.FinishedAt
	m.DryRun = r.DryRun
	m.Created = r.Created
	m.Existing = r.Existing
	m.Linked = r.Linked
	m.Unresolved = r.Unresolved
	m.Failed = r.Failed
	m.Summary = r.Summary
}

// JobLockModel is a run lock row. A row whose ExpiresAt has passed is free
// to be taken over.
type JobLockModel struct {
	Name       string    `gorm:"primaryKey;size:100" json:"name"`
	Holder     string    `gorm:"size:64;not null" json:"holder"`
	AcquiredAt time.Time `gorm:"not null" json:"acquired_at"`
	ExpiresAt  time.Time `gorm:"not null" json:"expires_at"`
}

// TableName returns the table name for GORM
func (JobLockModel) TableName() string {
	return "job_locks"
}
