package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leeaandrob/roascalc/internal/models"
)

func newPostgRESTTest(t *testing.T, h http.HandlerFunc) *PostgRESTStore {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewPostgRESTStore(srv.URL+"/", "anon-key")
}

func TestPostgRESTFindLeadByEmail(t *testing.T) {
	s := newPostgRESTTest(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/leads", r.URL.Path)
		if r.URL.Query().Get("email") == "eq.ana@example.com" {
			_, _ = w.Write([]byte(`[{"id":"l1","name":"Ana","email":"ana@example.com","business_name":null,"user_id":null,"created_at":"2024-01-02T03:04:05Z"}]`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	lead, err := s.FindLeadByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "l1", lead.ID)
	assert.Nil(t, lead.UserID)

	_, err = s.FindLeadByEmail(context.Background(), "bia@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgRESTCreateLeadDuplicate(t *testing.T) {
	s := newPostgRESTTest(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"code":"23505","message":"duplicate key value violates unique constraint \"leads_email_key\""}`))
	})

	err := s.CreateLead(context.Background(), &models.Lead{ID: "l1", Email: "ana@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestPostgRESTCreateUserSendsPasswordHash(t *testing.T) {
	var body map[string]any
	s := newPostgRESTTest(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/users", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &body))
		w.WriteHeader(http.StatusCreated)
	})

	err := s.CreateUser(context.Background(), &models.User{ID: "u1", Email: "ana@example.com", PasswordHash: "$2a$10$x"})
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$x", body["password_hash"])
}

func TestPostgRESTLinkLeadsToUser(t *testing.T) {
	s := newPostgRESTTest(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "eq.ana@example.com", r.URL.Query().Get("email"))
		assert.Equal(t, "is.null", r.URL.Query().Get("user_id"))
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))
		_, _ = w.Write([]byte(`[{"id":"l1","email":"ana@example.com","user_id":"u1"},{"id":"l2","email":"ana@example.com","user_id":"u1"}]`))
	})

	n, err := s.LinkLeadsToUser(context.Background(), "ana@example.com", "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestPostgRESTListAnalysesByUser(t *testing.T) {
	s := newPostgRESTTest(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/rest/v1/analyses", r.URL.Path)
		assert.Equal(t, "eq.u1", q.Get("leads.user_id"))
		assert.Equal(t, "created_at.desc", q.Get("order"))
		assert.Contains(t, q.Get("select"), "leads!inner")
		_, _ = w.Write([]byte(`[{
			"id":"a1","lead_id":"l1","invested_amount":1000,"generated_revenue":2850,"roas":2.85,
			"platform":"Meta Ads","campaign_date":"2024-03-10","insight_text":"ok","ai_generated":true,
			"reference_month":"2024-03","report_payload":"data:text/html;charset=utf-8;base64,PGgxPg==",
			"report_url":null,"created_at":"2024-03-11T10:00:00Z",
			"leads":{"id":"l1","name":"Ana","email":"ana@example.com","user_id":"u1","created_at":"2024-01-01T00:00:00Z"}
		}]`))
	})

	records, err := s.ListAnalysesByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, 2.85, r.ROAS)
	assert.Nil(t, r.ReportURL)
	require.NotNil(t, r.CampaignDate)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), *r.CampaignDate)
	require.NotNil(t, r.Lead)
	assert.Equal(t, "Ana", r.Lead.Name)
}

func TestPostgRESTServerError(t *testing.T) {
	s := newPostgRESTTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"PGRST100","message":"failed to parse filter"}`))
	})

	_, err := s.GetAnalysis(context.Background(), "a1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "failed to parse filter")
}
