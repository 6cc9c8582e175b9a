package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/leeaandrob/roascalc/internal/models"
)

// PostgRESTStore talks to a PostgREST endpoint (for example a Supabase
// project) over its REST interface.
type PostgRESTStore struct {
	client *resty.Client
}

// NewPostgRESTStore creates a store for baseURL, which is the project URL
// without the /rest/v1 suffix.
func NewPostgRESTStore(baseURL, apiKey string) *PostgRESTStore {
	return &PostgRESTStore{
		client: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")+"/rest/v1").
			SetTimeout(15*time.Second).
			SetRetryCount(2).
			SetHeader("apikey", apiKey).
			SetAuthToken(apiKey).
			SetHeader("Content-Type", "application/json"),
	}
}

func (s *PostgRESTStore) Close(context.Context) error { return nil }

func (s *PostgRESTStore) Ping(ctx context.Context) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("select", "id").
		SetQueryParam("limit", "1").
		Get("/leads")
	if err != nil {
		return err
	}
	return restErr(resp)
}

// postgrestError is the error body PostgREST returns.
type postgrestError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

func restErr(resp *resty.Response) error {
	if !resp.IsError() {
		return nil
	}
	var body postgrestError
	_ = json.Unmarshal(resp.Body(), &body)
	if resp.StatusCode() == http.StatusConflict || body.Code == pgUniqueViolation {
		return ErrDuplicate
	}
	return fmt.Errorf("postgrest returned status %d: %s", resp.StatusCode(), body.Message)
}

// Rows as they cross the wire. The domain models hide password hashes and
// report payloads from API JSON, so they cannot be sent as-is.

type leadRow struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	BusinessName *string   `json:"business_name"`
	UserID       *string   `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
}

func (r leadRow) lead() *models.Lead {
	return &models.Lead{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		BusinessName: r.BusinessName,
		UserID:       r.UserID,
		CreatedAt:    r.CreatedAt,
	}
}

type userRow struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

func (r userRow) user() *models.User {
	return &models.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
}

type analysisRow struct {
	ID               string    `json:"id"`
	LeadID           string    `json:"lead_id"`
	InvestedAmount   float64   `json:"invested_amount"`
	GeneratedRevenue float64   `json:"generated_revenue"`
	ROAS             float64   `json:"roas"`
	Platform         *string   `json:"platform"`
	CampaignDate     *string   `json:"campaign_date"`
	InsightText      string    `json:"insight_text"`
	AIGenerated      bool      `json:"ai_generated"`
	ReferenceMonth   string    `json:"reference_month"`
	ReportPayload    string    `json:"report_payload"`
	ReportURL        *string   `json:"report_url"`
	CreatedAt        time.Time `json:"created_at"`
	Leads            *leadRow  `json:"leads,omitempty"`
}

const dateLayout = "2006-01-02"

func newAnalysisRow(r *models.AnalysisRecord) analysisRow {
	row := analysisRow{
		ID:               r.ID,
		LeadID:           r.LeadID,
		InvestedAmount:   r.InvestedAmount,
		GeneratedRevenue: r.GeneratedRevenue,
		ROAS:             r.ROAS,
		Platform:         r.Platform,
		InsightText:      r.InsightText,
		AIGenerated:      r.AIGenerated,
		ReferenceMonth:   r.ReferenceMonth,
		ReportPayload:    r.ReportPayload,
		ReportURL:        r.ReportURL,
		CreatedAt:        r.CreatedAt,
	}
	if r.CampaignDate != nil {
		d := r.CampaignDate.UTC().Format(dateLayout)
		row.CampaignDate = &d
	}
	return row
}

func (r analysisRow) record() models.AnalysisRecord {
	rec := models.AnalysisRecord{
		ID:               r.ID,
		LeadID:           r.LeadID,
		InvestedAmount:   r.InvestedAmount,
		GeneratedRevenue: r.GeneratedRevenue,
		ROAS:             r.ROAS,
		Platform:         r.Platform,
		InsightText:      r.InsightText,
		AIGenerated:      r.AIGenerated,
		ReferenceMonth:   r.ReferenceMonth,
		ReportPayload:    r.ReportPayload,
		ReportURL:        r.ReportURL,
		CreatedAt:        r.CreatedAt,
	}
	if r.CampaignDate != nil {
		if d, err := time.Parse(dateLayout, *r.CampaignDate); err == nil {
			rec.CampaignDate = &d
		}
	}
	if r.Leads != nil {
		rec.Lead = r.Leads.lead().Ref()
	}
	return rec
}

const analysisSelect = "*,leads!inner(id,name,email,user_id,created_at)"

// ============================================================================
// LEAD OPERATIONS
// ============================================================================

func (s *PostgRESTStore) findLead(ctx context.Context, column, value string) (*models.Lead, error) {
	var rows []leadRow
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam(column, "eq."+value).
		SetQueryParam("select", "*").
		SetQueryParam("limit", "1").
		SetResult(&rows).
		Get("/leads")
	if err != nil {
		return nil, err
	}
	if err := restErr(resp); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0].lead(), nil
}

func (s *PostgRESTStore) FindLeadByEmail(ctx context.Context, email string) (*models.Lead, error) {
	return s.findLead(ctx, "email", email)
}

func (s *PostgRESTStore) GetLead(ctx context.Context, id string) (*models.Lead, error) {
	return s.findLead(ctx, "id", id)
}

func (s *PostgRESTStore) CreateLead(ctx context.Context, lead *models.Lead) error {
	return s.insert(ctx, "/leads", leadRow{
		ID:           lead.ID,
		Name:         lead.Name,
		Email:        lead.Email,
		BusinessName: lead.BusinessName,
		UserID:       lead.UserID,
		CreatedAt:    lead.CreatedAt,
	})
}

func (s *PostgRESTStore) LinkLeadsToUser(ctx context.Context, email, userID string) (int64, error) {
	var rows []leadRow
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParam("email", "eq."+email).
		SetQueryParam("user_id", "is.null").
		SetBody(map[string]string{"user_id": userID}).
		SetResult(&rows).
		Patch("/leads")
	if err != nil {
		return 0, err
	}
	if err := restErr(resp); err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

// ============================================================================
// USER OPERATIONS
// ============================================================================

func (s *PostgRESTStore) findUser(ctx context.Context, column, value string) (*models.User, error) {
	var rows []userRow
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam(column, "eq."+value).
		SetQueryParam("select", "*").
		SetQueryParam("limit", "1").
		SetResult(&rows).
		Get("/users")
	if err != nil {
		return nil, err
	}
	if err := restErr(resp); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0].user(), nil
}

func (s *PostgRESTStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, "email", email)
}

func (s *PostgRESTStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.findUser(ctx, "id", id)
}

func (s *PostgRESTStore) CreateUser(ctx context.Context, user *models.User) error {
	return s.insert(ctx, "/users", userRow{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	})
}

// ============================================================================
// ANALYSIS OPERATIONS
// ============================================================================

func (s *PostgRESTStore) CreateAnalysis(ctx context.Context, record *models.AnalysisRecord) error {
	return s.insert(ctx, "/analyses", newAnalysisRow(record))
}

func (s *PostgRESTStore) GetAnalysis(ctx context.Context, id string) (*models.AnalysisRecord, error) {
	var rows []analysisRow
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("id", "eq."+id).
		SetQueryParam("select", analysisSelect).
		SetQueryParam("limit", "1").
		SetResult(&rows).
		Get("/analyses")
	if err != nil {
		return nil, err
	}
	if err := restErr(resp); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	rec := rows[0].record()
	return &rec, nil
}

func (s *PostgRESTStore) ListAnalysesByUser(ctx context.Context, userID string) ([]models.AnalysisRecord, error) {
	var rows []analysisRow
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("select", analysisSelect).
		SetQueryParam("leads.user_id", "eq."+userID).
		SetQueryParam("order", "created_at.desc").
		SetResult(&rows).
		Get("/analyses")
	if err != nil {
		return nil, err
	}
	if err := restErr(resp); err != nil {
		return nil, err
	}

	records := make([]models.AnalysisRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.record())
	}
	return records, nil
}

func (s *PostgRESTStore) insert(ctx context.Context, path string, row any) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=minimal").
		SetBody(row).
		Post(path)
	if err != nil {
		return err
	}
	if err := restErr(resp); err != nil {
		log.Debug().
			Str("path", path).
			Int("status", resp.StatusCode()).
			Err(err).
			Msg("PostgREST insert rejected")
		return err
	}
	return nil
}
