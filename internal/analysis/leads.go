package analysis

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/leeaandrob/roascalc/internal/apperr"
	"github.com/leeaandrob/roascalc/internal/auth"
	"github.com/leeaandrob/roascalc/internal/metrics"
	"github.com/leeaandrob/roascalc/internal/models"
	"github.com/leeaandrob/roascalc/internal/storage"
)

// LeadRequest is the lead capture form.
type LeadRequest struct {
	Name         string `json:"name" validate:"required,max=120"`
	Email        string `json:"email" validate:"required,email,max=254"`
	BusinessName string `json:"business_name" validate:"max=160"`
}

// SaveLead returns the id of the lead for req.Email, creating it when
// needed. Concurrent first submissions for one e-mail converge on a single
// lead: the loser of the insert race re-reads the winner's row.
func (s *Service) SaveLead(ctx context.Context, req LeadRequest) (string, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = auth.NormalizeEmail(req.Email)
	req.BusinessName = strings.TrimSpace(req.BusinessName)
	if err := apperr.Check(req); err != nil {
		return "", err
	}

	existing, err := s.store.FindLeadByEmail(ctx, req.Email)
	if err == nil {
		metrics.ObserveLead(metrics.LeadExisting)
		return existing.ID, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return "", apperr.Upstream("failed to look up lead", err)
	}

	lead := &models.Lead{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		CreatedAt: s.now().UTC(),
	}
	if req.BusinessName != "" {
		lead.BusinessName = &req.BusinessName
	}

	user, err := s.store.FindUserByEmail(ctx, req.Email)
	switch {
	case err == nil:
		lead.UserID = &user.ID
	case !errors.Is(err, storage.ErrNotFound):
		return "", apperr.Upstream("failed to look up user", err)
	}

	if err := s.store.CreateLead(ctx, lead); err != nil {
		if !errors.Is(err, storage.ErrDuplicate) {
			return "", apperr.Upstream("failed to save lead", err)
		}
		winner, ferr := s.store.FindLeadByEmail(ctx, req.Email)
		if ferr != nil {
			return "", apperr.Upstream("failed to recover existing lead", ferr)
		}
		log.Debug().Str("lead_id", winner.ID).Msg("Lead insert raced, using existing lead")
		metrics.ObserveLead(metrics.LeadRecovered)
		return winner.ID, nil
	}

	log.Info().
		Str("lead_id", lead.ID).
		Bool("linked", lead.UserID != nil).
		Msg("Lead created")
	metrics.ObserveLead(metrics.LeadCreated)
	return lead.ID, nil
}
