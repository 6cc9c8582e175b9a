package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leeaandrob/roascalc/internal/apperr"
	"github.com/leeaandrob/roascalc/internal/insights"
	"github.com/leeaandrob/roascalc/internal/models"
	"github.com/leeaandrob/roascalc/internal/report"
	"github.com/leeaandrob/roascalc/internal/storage"
)

type stubLLM struct {
	text string
	err  error
}

func (s stubLLM) Generate(context.Context, string) (string, error) {
	return s.text, s.err
}

func ptr(v float64) *float64 { return &v }

func newTestService(t *testing.T, llm insights.TextGenerator) (*Service, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	svc := NewService(store, insights.NewGenerator(llm, time.Second))

	clock := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return svc, store
}

func TestComputeWithGeneratedInsights(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, stubLLM{text: "## 🎯 **Bom resultado**\n\n\n\n- escalar <já> & medir"})

	leadID, err := svc.SaveLead(ctx, LeadRequest{Name: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)

	res, err := svc.Compute(ctx, ComputeRequest{
		InvestedAmount:   ptr(1000),
		GeneratedRevenue: ptr(2850),
		LeadID:           leadID,
		Platform:         " Meta Ads ",
		CampaignDate:     "2024-02-10",
	})
	require.NoError(t, err)

	assert.Equal(t, 2.85, res.ROAS)
	assert.Equal(t, "2.85x", res.ROASDisplay)
	assert.True(t, res.AIGenerated)
	assert.Equal(t, "2024-02", res.ReferenceMonth)
	assert.Equal(t, "🎯 Bom resultado\n\n• escalar <já> & medir", res.Insights)

	doc, err := report.DecodeDataURI(res.ReportURL)
	require.NoError(t, err)
	assert.Contains(t, doc, "2.85x")
	assert.Contains(t, doc, "escalar &lt;já&gt; &amp; medir")
	assert.Contains(t, doc, "Meta Ads")
	assert.Contains(t, doc, "ana@example.com")

	rec, err := store.GetAnalysis(ctx, res.AnalysisID)
	require.NoError(t, err)
	assert.Equal(t, leadID, rec.LeadID)
	assert.Equal(t, 1000.0, rec.InvestedAmount)
	assert.Equal(t, 2850.0, rec.GeneratedRevenue)
	assert.Equal(t, 2.85, rec.ROAS)
	assert.Nil(t, rec.ReportURL)
	assert.Equal(t, res.ReportURL, rec.ReportPayload)
	require.NotNil(t, rec.Platform)
	assert.Equal(t, "Meta Ads", *rec.Platform)
	assert.Equal(t, "🎯 Bom resultado\n\n• escalar <já> & medir", rec.InsightText)
}

func TestComputeFallsBackWhenGenerationFails(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, stubLLM{err: errors.New("quota exceeded")})

	leadID, err := svc.SaveLead(ctx, LeadRequest{Name: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)

	res, err := svc.Compute(ctx, ComputeRequest{InvestedAmount: ptr(100), GeneratedRevenue: ptr(450), LeadID: leadID})
	require.NoError(t, err)

	assert.False(t, res.AIGenerated)
	assert.Equal(t, 4.5, res.ROAS)
	assert.Contains(t, res.Insights, "EXCELENTE RESULTADO")
	assert.Equal(t, "2024-03", res.ReferenceMonth)
}

func TestComputeClampsAmounts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)

	leadID, err := svc.SaveLead(ctx, LeadRequest{Name: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)

	res, err := svc.Compute(ctx, ComputeRequest{InvestedAmount: ptr(2_000_000_000), GeneratedRevenue: ptr(5_000_000_000), LeadID: leadID})
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.ROAS)
}

func TestComputeRejections(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)

	leadID, err := svc.SaveLead(ctx, LeadRequest{Name: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  ComputeRequest
		kind apperr.Kind
		msg  string
	}{
		{"missing invested", ComputeRequest{GeneratedRevenue: ptr(1), LeadID: leadID}, apperr.KindValidation, "invested_amount is required"},
		{"missing revenue", ComputeRequest{InvestedAmount: ptr(1), LeadID: leadID}, apperr.KindValidation, "generated_revenue is required"},
		{"missing lead", ComputeRequest{InvestedAmount: ptr(1), GeneratedRevenue: ptr(1)}, apperr.KindValidation, "lead_id is required"},
		{"zero invested", ComputeRequest{InvestedAmount: ptr(0), GeneratedRevenue: ptr(1), LeadID: leadID}, apperr.KindValidation, "invested amount must be greater than zero"},
		{"sub-cent invested", ComputeRequest{InvestedAmount: ptr(0.004), GeneratedRevenue: ptr(1), LeadID: leadID}, apperr.KindValidation, "invested amount must be at least 0.01"},
		{"negative revenue", ComputeRequest{InvestedAmount: ptr(10), GeneratedRevenue: ptr(-1), LeadID: leadID}, apperr.KindValidation, "revenue must not be negative"},
		{"bad date", ComputeRequest{InvestedAmount: ptr(10), GeneratedRevenue: ptr(1), LeadID: leadID, CampaignDate: "10/02/2024"}, apperr.KindValidation, ""},
		{"unknown lead", ComputeRequest{InvestedAmount: ptr(10), GeneratedRevenue: ptr(1), LeadID: "ghost"}, apperr.KindNotFound, "lead not found"},
		{"invalid before lookup", ComputeRequest{InvestedAmount: ptr(-5), GeneratedRevenue: ptr(1), LeadID: "ghost"}, apperr.KindValidation, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Compute(ctx, tt.req)
			assert.Nil(t, res)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
			if tt.msg != "" {
				assert.Equal(t, tt.msg, apperr.MessageOf(err))
			}
		})
	}
}

func TestComputeSmallestInvestment(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, nil)

	leadID, err := svc.SaveLead(ctx, LeadRequest{Name: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)

	res, err := svc.Compute(ctx, ComputeRequest{InvestedAmount: ptr(0.01), GeneratedRevenue: ptr(999_999_999.99), LeadID: leadID})
	require.NoError(t, err)

	rec, err := store.GetAnalysis(ctx, res.AnalysisID)
	require.NoError(t, err)
	assert.Equal(t, 0.01, rec.InvestedAmount)
	assert.InDelta(t, 99_999_999_999.0, rec.ROAS, 0.01)
}

// analysesCounted reads roascalc_analyses_total for one insight source.
func analysesCounted(t *testing.T, source string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "roascalc_analyses_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "insight_source" && l.GetValue() == source {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

// brokenAnalysisStore fails every analysis insert.
type brokenAnalysisStore struct {
	*storage.MemoryStore
}

func (brokenAnalysisStore) CreateAnalysis(context.Context, *models.AnalysisRecord) error {
	return errors.New("disk full")
}

func TestComputeCountsOnlySavedAnalyses(t *testing.T) {
	ctx := context.Background()
	req := func(leadID string) ComputeRequest {
		return ComputeRequest{InvestedAmount: ptr(100), GeneratedRevenue: ptr(300), LeadID: leadID}
	}

	broken := NewService(brokenAnalysisStore{storage.NewMemoryStore()}, insights.NewGenerator(nil, 0))
	leadID, err := broken.SaveLead(ctx, LeadRequest{Name: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)

	before := analysesCounted(t, "fallback")
	_, err = broken.Compute(ctx, req(leadID))
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
	assert.Equal(t, before, analysesCounted(t, "fallback"))

	svc, _ := newTestService(t, nil)
	leadID, err = svc.SaveLead(ctx, LeadRequest{Name: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)

	_, err = svc.Compute(ctx, req(leadID))
	require.NoError(t, err)
	assert.Equal(t, before+1, analysesCounted(t, "fallback"))
}

// raceStore loses the first lead insert to a concurrent writer.
type raceStore struct {
	*storage.MemoryStore
	raced bool
}

func (s *raceStore) CreateLead(ctx context.Context, lead *models.Lead) error {
	if !s.raced {
		s.raced = true
		winner := *lead
		winner.ID = "winner"
		if err := s.MemoryStore.CreateLead(ctx, &winner); err != nil {
			return err
		}
		return storage.ErrDuplicate
	}
	return s.MemoryStore.CreateLead(ctx, lead)
}

func TestSaveLead(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, nil)

	id, err := svc.SaveLead(ctx, LeadRequest{Name: " Ana ", Email: " Ana@Example.COM ", BusinessName: " Loja "})
	require.NoError(t, err)

	again, err := svc.SaveLead(ctx, LeadRequest{Name: "Ana Outra", Email: "ana@example.com"})
	require.NoError(t, err)
	assert.Equal(t, id, again)

	lead, err := store.GetLead(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ana", lead.Name)
	assert.Equal(t, "ana@example.com", lead.Email)
	require.NotNil(t, lead.BusinessName)
	assert.Equal(t, "Loja", *lead.BusinessName)
	assert.Nil(t, lead.UserID)

	_, err = svc.SaveLead(ctx, LeadRequest{Name: "Ana", Email: "not-an-email"})
	assert.Equal(t, "email must be a valid email address", apperr.MessageOf(err))
}

func TestSaveLeadLinksRegisteredUser(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, nil)
	require.NoError(t, store.CreateUser(ctx, &models.User{ID: "u1", Name: "Bia", Email: "bia@example.com"}))

	id, err := svc.SaveLead(ctx, LeadRequest{Name: "Bia", Email: "bia@example.com"})
	require.NoError(t, err)

	lead, err := store.GetLead(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, lead.UserID)
	assert.Equal(t, "u1", *lead.UserID)
}

func TestSaveLeadRecoversFromDuplicate(t *testing.T) {
	store := &raceStore{MemoryStore: storage.NewMemoryStore()}
	svc := NewService(store, insights.NewGenerator(nil, 0))

	id, err := svc.SaveLead(context.Background(), LeadRequest{Name: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "winner", id)
}

func seedDashboard(t *testing.T) (*Service, string) {
	t.Helper()
	ctx := context.Background()
	svc, store := newTestService(t, nil)
	require.NoError(t, store.CreateUser(ctx, &models.User{ID: "u1", Name: "Ana <Admin>", Email: "ana@example.com"}))

	leadID, err := svc.SaveLead(ctx, LeadRequest{Name: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)

	for _, c := range []struct {
		invested, revenue float64
		date              string
	}{
		{100, 300, "2024-01-05"},
		{200, 400, "2024-01-20"},
		{50, 50, "2024-02-01"},
	} {
		_, err := svc.Compute(ctx, ComputeRequest{
			InvestedAmount: ptr(c.invested), GeneratedRevenue: ptr(c.revenue), LeadID: leadID, CampaignDate: c.date,
		})
		require.NoError(t, err)
	}
	return svc, "u1"
}

func TestDashboard(t *testing.T) {
	svc, userID := seedDashboard(t)

	d, err := svc.Dashboard(context.Background(), userID)
	require.NoError(t, err)

	require.Len(t, d.Analyses, 3)
	assert.Equal(t, "2024-02", d.Analyses[0].ReferenceMonth, "newest first")
	require.NotNil(t, d.Analyses[0].Lead)
	assert.Equal(t, "Ana", d.Analyses[0].Lead.Name)

	require.Len(t, d.Monthly, 2)
	assert.Equal(t, "2024-01", d.Monthly[0].ReferenceMonth)
	assert.Equal(t, 300.0, d.Monthly[0].TotalInvested)
	assert.Equal(t, 700.0, d.Monthly[0].TotalRevenue)
	assert.InDelta(t, 2.3333, d.Monthly[0].AverageROAS, 1e-4)
	assert.Equal(t, "2024-02", d.Monthly[1].ReferenceMonth)

	assert.Equal(t, 3, d.Summary.TotalAnalyses)
	assert.InDelta(t, 2.0, d.Summary.MeanROAS, 1e-9)

	empty, err := svc.Dashboard(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty.Analyses)
	assert.Empty(t, empty.Monthly)
}

func TestComparativeReport(t *testing.T) {
	svc, userID := seedDashboard(t)

	ref, err := svc.ComparativeReport(context.Background(), userID)
	require.NoError(t, err)

	doc, err := report.DecodeDataURI(ref)
	require.NoError(t, err)
	assert.Contains(t, doc, "Ana &lt;Admin&gt;")
	assert.Less(t, strings.Index(doc, "Janeiro de 2024"), strings.Index(doc, "Fevereiro de 2024"))

	_, err = svc.ComparativeReport(context.Background(), "ghost")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestAnalysisReport(t *testing.T) {
	svc, userID := seedDashboard(t)
	ctx := context.Background()

	d, err := svc.Dashboard(ctx, userID)
	require.NoError(t, err)
	id := d.Analyses[0].ID

	doc, filename, err := svc.AnalysisReport(ctx, userID, id)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(doc, "<!DOCTYPE html>"))
	assert.Contains(t, doc, "1.00x")
	assert.True(t, strings.HasPrefix(filename, "relatorio-roas-2024-03-"))

	_, _, err = svc.AnalysisReport(ctx, "intruder", id)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, _, err = svc.AnalysisReport(ctx, userID, "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
