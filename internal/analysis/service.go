// Package analysis runs the lead, compute and dashboard flows on top of the
// pure calculator, insight, report and aggregation packages.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/leeaandrob/roascalc/internal/apperr"
	"github.com/leeaandrob/roascalc/internal/dashboard"
	"github.com/leeaandrob/roascalc/internal/insights"
	"github.com/leeaandrob/roascalc/internal/metrics"
	"github.com/leeaandrob/roascalc/internal/models"
	"github.com/leeaandrob/roascalc/internal/report"
	"github.com/leeaandrob/roascalc/internal/roas"
	"github.com/leeaandrob/roascalc/internal/storage"
)

// Service wires storage and insight generation into the request flows.
type Service struct {
	store    storage.Store
	insights *insights.Generator
	now      func() time.Time
}

func NewService(store storage.Store, generator *insights.Generator) *Service {
	return &Service{store: store, insights: generator, now: time.Now}
}

// ============================================================================
// COMPUTE
// ============================================================================

// ComputeRequest is the calculator form. Amounts are pointers so that a
// missing field can be told apart from zero.
type ComputeRequest struct {
	InvestedAmount   *float64 `json:"invested_amount" validate:"required"`
	GeneratedRevenue *float64 `json:"generated_revenue" validate:"required"`
	LeadID           string   `json:"lead_id" validate:"required"`
	Platform         string   `json:"platform" validate:"max=100"`
	CampaignDate     string   `json:"campaign_date"`
}

// ComputeResult is returned to the caller after a successful computation.
type ComputeResult struct {
	AnalysisID     string  `json:"analysis_id"`
	ROAS           float64 `json:"roas"`
	ROASDisplay    string  `json:"roas_display"`
	Insights       string  `json:"insights"`
	AIGenerated    bool    `json:"ai_generated"`
	ReportURL      string  `json:"report_url"`
	ReferenceMonth string  `json:"reference_month"`
}

// Compute validates the form, computes the ratio, produces the narrative and
// report, and persists one analysis record. Text-generation failures never
// fail the request.
func (s *Service) Compute(ctx context.Context, req ComputeRequest) (*ComputeResult, error) {
	req.LeadID = strings.TrimSpace(req.LeadID)
	req.Platform = strings.TrimSpace(req.Platform)
	if err := apperr.Check(req); err != nil {
		return nil, err
	}

	result, err := roas.Compute(*req.InvestedAmount, *req.GeneratedRevenue)
	if err != nil {
		return nil, err
	}
	// Amounts are stored in cents.
	if roas.Round(result.Invested, 2) <= 0 {
		return nil, apperr.Validation("invested amount must be at least 0.01")
	}

	campaignDate, err := roas.ParseCampaignDate(req.CampaignDate)
	if err != nil {
		return nil, err
	}

	lead, err := s.store.GetLead(ctx, req.LeadID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound("lead not found")
	}
	if err != nil {
		return nil, apperr.Upstream("failed to load lead", err)
	}

	insight := s.insights.Generate(ctx, insights.Campaign{
		Invested:     result.Invested,
		Revenue:      result.Revenue,
		Ratio:        result.Ratio,
		Platform:     req.Platform,
		CampaignDate: campaignDate,
	})

	createdAt := s.now().UTC()
	reportRef, err := report.Analysis(report.AnalysisInput{
		Ratio:        result.Ratio,
		Invested:     result.Invested,
		Revenue:      result.Revenue,
		InsightHTML:  insights.ForDocument(insight.Text),
		Platform:     req.Platform,
		CampaignDate: campaignDate,
		SubjectName:  lead.Name,
		SubjectEmail: lead.Email,
		GeneratedAt:  createdAt,
	})
	if err != nil {
		return nil, apperr.Upstream("failed to render report", err)
	}

	record := &models.AnalysisRecord{
		ID:               uuid.NewString(),
		LeadID:           lead.ID,
		InvestedAmount:   roas.Round(result.Invested, 2),
		GeneratedRevenue: roas.Round(result.Revenue, 2),
		ROAS:             roas.Round(result.Ratio, 2),
		CampaignDate:     campaignDate,
		InsightText:      insight.Text,
		AIGenerated:      insight.AIGenerated,
		ReferenceMonth:   roas.ReferenceMonth(campaignDate, createdAt),
		ReportPayload:    reportRef,
		ReportURL:        nil,
		CreatedAt:        createdAt,
	}
	if req.Platform != "" {
		record.Platform = &req.Platform
	}

	if err := s.store.CreateAnalysis(ctx, record); err != nil {
		return nil, apperr.Upstream("failed to save analysis", err)
	}
	metrics.ObserveAnalysis(insight.AIGenerated)

	log.Info().
		Str("analysis_id", record.ID).
		Str("lead_id", lead.ID).
		Float64("roas", result.Ratio).
		Bool("ai_generated", insight.AIGenerated).
		Msg("Analysis saved")

	return &ComputeResult{
		AnalysisID:     record.ID,
		ROAS:           result.Ratio,
		ROASDisplay:    result.Display(),
		Insights:       insights.ForDisplay(insight.Text),
		AIGenerated:    insight.AIGenerated,
		ReportURL:      reportRef,
		ReferenceMonth: record.ReferenceMonth,
	}, nil
}

// ============================================================================
// DASHBOARD
// ============================================================================

// Dashboard is a user's history with its monthly rollup.
type Dashboard struct {
	Analyses []models.AnalysisRecord `json:"analyses"`
	Monthly  []models.MonthlyBucket  `json:"monthly"`
	Summary  models.Summary          `json:"summary"`
}

// Dashboard returns every analysis owned by userID, newest first, with
// monthly buckets in ascending month order.
func (s *Service) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	records, err := s.store.ListAnalysesByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Upstream("failed to load analyses", err)
	}
	if records == nil {
		records = []models.AnalysisRecord{}
	}

	buckets, summary := dashboard.Aggregate(records)
	return &Dashboard{Analyses: records, Monthly: buckets, Summary: summary}, nil
}

// ComparativeHTML renders the multi-month document for userID.
func (s *Service) ComparativeHTML(ctx context.Context, userID string) (string, error) {
	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", apperr.NotFound("user not found")
	}
	if err != nil {
		return "", apperr.Upstream("failed to load user", err)
	}

	d, err := s.Dashboard(ctx, userID)
	if err != nil {
		return "", err
	}

	doc, err := report.ComparativeHTML(report.ComparativeInput{
		Buckets:      d.Monthly,
		SubjectName:  user.Name,
		SubjectEmail: user.Email,
		GeneratedAt:  s.now().UTC(),
	})
	if err != nil {
		return "", apperr.Upstream("failed to render report", err)
	}
	return doc, nil
}

// ComparativeReport renders the multi-month document as a data URI.
func (s *Service) ComparativeReport(ctx context.Context, userID string) (string, error) {
	doc, err := s.ComparativeHTML(ctx, userID)
	if err != nil {
		return "", err
	}
	return report.EncodeDataURI(doc), nil
}

// AnalysisReport returns the stored document of one analysis and a download
// file name. Records owned by someone else are reported as not found.
func (s *Service) AnalysisReport(ctx context.Context, userID, analysisID string) (string, string, error) {
	record, err := s.store.GetAnalysis(ctx, analysisID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", "", apperr.NotFound("analysis not found")
	}
	if err != nil {
		return "", "", apperr.Upstream("failed to load analysis", err)
	}
	if record.Lead == nil || record.Lead.UserID == nil || *record.Lead.UserID != userID {
		return "", "", apperr.NotFound("analysis not found")
	}
	if record.ReportURL != nil {
		return "", "", apperr.NotFound("report is not stored inline")
	}

	doc, err := report.DecodeDataURI(record.ReportPayload)
	if err != nil {
		return "", "", apperr.Upstream("stored report is unreadable", err)
	}
	filename := fmt.Sprintf("relatorio-roas-%s.html", record.CreatedAt.UTC().Format("2006-01-02"))
	return doc, filename, nil
}
