// Package store keeps advise reports so they can be fetched again by ID.
//
// Three backends implement [Store]:
//   - [MemoryStore]: in-process, for tests and single-instance servers
//   - [FileStore]: JSON files under the user data directory, for the CLI
//   - [CacheStore]: any [cache.Cache], typically Redis for multi-instance
//     deployments
//
// Records expire after their TTL. Expired records are never returned;
// [Store.Cleanup] removes them where the backend does not expire keys on
// its own.
//
//	rec := store.NewRecord(report, project, store.DefaultTTL)
//	if err := s.Put(ctx, rec); err != nil {
//	    return err
//	}
//	rec, err := s.Get(ctx, rec.ID) // nil, nil once expired
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/stackadvisor/pkg/errors"
	"github.com/matzehuels/stackadvisor/pkg/pipeline"
	"github.com/matzehuels/stackadvisor/pkg/python"
	"github.com/matzehuels/stackadvisor/pkg/resolver"
)

// DefaultTTL is how long reports are kept.
const DefaultTTL = 24 * time.Hour

// Record is a stored report with the inputs that produced it.
type Record struct {
	ID        string           `json:"id"`
	Report    *resolver.Report `json:"report"`
	Project   *python.Project  `json:"project,omitempty"`
	Pipeline  *pipeline.Config `json:"pipeline,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// NewRecord wraps report for storage. The record takes the report's ID,
// generating one if the report has none.
func NewRecord(report *resolver.Report, project *python.Project, ttl time.Duration) *Record {
	id := report.ID
	if id == "" {
		id = uuid.NewString()
		report.ID = id
	}
	now := time.Now()
	return &Record{
		ID:        id,
		Report:    report,
		Project:   project,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpired returns true if the record has outlived its TTL.
func (r *Record) IsExpired() bool {
	return time.Now().After(r.ExpiresAt)
}

// Store is the interface for report storage backends.
type Store interface {
	// Get retrieves a record by ID.
	// Returns nil, nil if the record doesn't exist or has expired.
	Get(ctx context.Context, id string) (*Record, error)

	// Put stores a record, replacing any record with the same ID.
	Put(ctx context.Context, r *Record) error

	// Delete removes a record.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired records (may be a no-op).
	Cleanup(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// ValidateID checks that id is a report ID. Backends call it before using
// an ID as a file name or key.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid report id %q", id)
	}
	return nil
}
