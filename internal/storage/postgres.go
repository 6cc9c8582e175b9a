package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/leeaandrob/roascalc/internal/models"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// pgQuerier is the subset of *pgxpool.Pool the store uses.
type pgQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore keeps leads, users and analyses in PostgreSQL.
type PostgresStore struct {
	db   pgQuerier
	pool *pgxpool.Pool
}

// NewPostgresStore opens a pool, pings it and ensures the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := &PostgresStore{db: pool, pool: pool}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	log.Info().Msg("Connected to PostgreSQL")
	return s, nil
}

func newPostgresStoreWith(db pgQuerier) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Close(context.Context) error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if s.pool == nil {
		return nil
	}
	return s.pool.Ping(ctx)
}

func pgErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) && pe.Code == pgUniqueViolation {
		return ErrDuplicate
	}
	return err
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS leads (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	business_name TEXT,
	user_id       TEXT REFERENCES users(id),
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS leads_user_id_idx ON leads (user_id);
CREATE TABLE IF NOT EXISTS analyses (
	id                TEXT PRIMARY KEY,
	lead_id           TEXT NOT NULL REFERENCES leads(id),
	invested_amount   NUMERIC(14,2) NOT NULL,
	generated_revenue NUMERIC(14,2) NOT NULL,
	roas              NUMERIC NOT NULL,
	platform          TEXT,
	campaign_date     DATE,
	insight_text      TEXT NOT NULL,
	ai_generated      BOOLEAN NOT NULL DEFAULT false,
	reference_month   TEXT NOT NULL,
	report_payload    TEXT NOT NULL,
	report_url        TEXT,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS analyses_lead_created_idx ON analyses (lead_id, created_at DESC);
`

const (
	qSelectLeadByEmail = `SELECT id, name, email, business_name, user_id, created_at FROM leads WHERE email = $1`
	qSelectLeadByID    = `SELECT id, name, email, business_name, user_id, created_at FROM leads WHERE id = $1`
	qInsertLead        = `INSERT INTO leads (id, name, email, business_name, user_id, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	qLinkLeads         = `UPDATE leads SET user_id = $2 WHERE email = $1 AND user_id IS NULL`

	qSelectUserByEmail = `SELECT id, name, email, password_hash, created_at FROM users WHERE email = $1`
	qSelectUserByID    = `SELECT id, name, email, password_hash, created_at FROM users WHERE id = $1`
	qInsertUser        = `INSERT INTO users (id, name, email, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`

	qInsertAnalysis = `INSERT INTO analyses (id, lead_id, invested_amount, generated_revenue, roas, platform, campaign_date,
	insight_text, ai_generated, reference_month, report_payload, report_url, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	analysisColumns = `a.id, a.lead_id, a.invested_amount::float8, a.generated_revenue::float8, a.roas::float8, a.platform,
	a.campaign_date::timestamptz, a.insight_text, a.ai_generated, a.reference_month, a.report_payload, a.report_url, a.created_at,
	l.id, l.name, l.email, l.user_id`

	qSelectAnalysisByID   = `SELECT ` + analysisColumns + ` FROM analyses a JOIN leads l ON l.id = a.lead_id WHERE a.id = $1`
	qSelectAnalysesByUser = `SELECT ` + analysisColumns + ` FROM analyses a JOIN leads l ON l.id = a.lead_id
	WHERE l.user_id = $1 ORDER BY a.created_at DESC`
)

// ============================================================================
// LEAD OPERATIONS
// ============================================================================

func scanLead(row pgx.Row) (*models.Lead, error) {
	var l models.Lead
	if err := row.Scan(&l.ID, &l.Name, &l.Email, &l.BusinessName, &l.UserID, &l.CreatedAt); err != nil {
		return nil, pgErr(err)
	}
	return &l, nil
}

func (s *PostgresStore) FindLeadByEmail(ctx context.Context, email string) (*models.Lead, error) {
	return scanLead(s.db.QueryRow(ctx, qSelectLeadByEmail, email))
}

func (s *PostgresStore) GetLead(ctx context.Context, id string) (*models.Lead, error) {
	return scanLead(s.db.QueryRow(ctx, qSelectLeadByID, id))
}

func (s *PostgresStore) CreateLead(ctx context.Context, lead *models.Lead) error {
	_, err := s.db.Exec(ctx, qInsertLead, lead.ID, lead.Name, lead.Email, lead.BusinessName, lead.UserID, lead.CreatedAt)
	return pgErr(err)
}

func (s *PostgresStore) LinkLeadsToUser(ctx context.Context, email, userID string) (int64, error) {
	tag, err := s.db.Exec(ctx, qLinkLeads, email, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ============================================================================
// USER OPERATIONS
// ============================================================================

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, pgErr(err)
	}
	return &u, nil
}

func (s *PostgresStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(s.db.QueryRow(ctx, qSelectUserByEmail, email))
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	return scanUser(s.db.QueryRow(ctx, qSelectUserByID, id))
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.db.Exec(ctx, qInsertUser, user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt)
	return pgErr(err)
}

// ============================================================================
// ANALYSIS OPERATIONS
// ============================================================================

func scanAnalysis(row pgx.Row) (*models.AnalysisRecord, error) {
	var (
		r    models.AnalysisRecord
		lead models.LeadRef
	)
	err := row.Scan(
		&r.ID, &r.LeadID, &r.InvestedAmount, &r.GeneratedRevenue, &r.ROAS, &r.Platform,
		&r.CampaignDate, &r.InsightText, &r.AIGenerated, &r.ReferenceMonth, &r.ReportPayload, &r.ReportURL, &r.CreatedAt,
		&lead.ID, &lead.Name, &lead.Email, &lead.UserID,
	)
	if err != nil {
		return nil, pgErr(err)
	}
	r.Lead = &lead
	return &r, nil
}

func (s *PostgresStore) CreateAnalysis(ctx context.Context, r *models.AnalysisRecord) error {
	_, err := s.db.Exec(ctx, qInsertAnalysis,
		r.ID, r.LeadID, r.InvestedAmount, r.GeneratedRevenue, r.ROAS, r.Platform, r.CampaignDate,
		r.InsightText, r.AIGenerated, r.ReferenceMonth, r.ReportPayload, r.ReportURL, r.CreatedAt,
	)
	return pgErr(err)
}

func (s *PostgresStore) GetAnalysis(ctx context.Context, id string) (*models.AnalysisRecord, error) {
	return scanAnalysis(s.db.QueryRow(ctx, qSelectAnalysisByID, id))
}

func (s *PostgresStore) ListAnalysesByUser(ctx context.Context, userID string) ([]models.AnalysisRecord, error) {
	rows, err := s.db.Query(ctx, qSelectAnalysesByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]models.AnalysisRecord, 0)
	for rows.Next() {
		r, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}
