// Package storage persists leads, users and analysis records.
//
// Four backends implement Store: MongoDB, PostgreSQL (pgx), a PostgREST
// endpoint (resty) and an in-process map used by tests and local runs.
package storage

import (
	"context"
	"errors"

	"github.com/leeaandrob/roascalc/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches nothing.
	ErrNotFound = errors.New("storage: not found")

	// ErrDuplicate is returned when an insert violates a unique key.
	ErrDuplicate = errors.New("storage: duplicate key")
)

// Store is the relational surface the services rely on.
type Store interface {
	// Leads
	FindLeadByEmail(ctx context.Context, email string) (*models.Lead, error)
	GetLead(ctx context.Context, id string) (*models.Lead, error)
	CreateLead(ctx context.Context, lead *models.Lead) error
	// LinkLeadsToUser sets user_id on every unlinked lead with email and
	// returns how many were linked.
	LinkLeadsToUser(ctx context.Context, email, userID string) (int64, error)

	// Users
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error

	// Analyses. Reads populate record.Lead.
	CreateAnalysis(ctx context.Context, record *models.AnalysisRecord) error
	GetAnalysis(ctx context.Context, id string) (*models.AnalysisRecord, error)
	// ListAnalysesByUser returns the records of every lead linked to
	// userID, newest first.
	ListAnalysesByUser(ctx context.Context, userID string) ([]models.AnalysisRecord, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

var (
	_ Store = (*MongoStore)(nil)
	_ Store = (*PostgresStore)(nil)
	_ Store = (*PostgRESTStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
