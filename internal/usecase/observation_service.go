package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/pharmalens/backend/internal/domain"
)

// Invalidator drops cached reads after a write
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// ObservationService appends, lists and removes observations
type ObservationService struct {
	repo        domain.ObservationRepository
	invalidator Invalidator
}

// NewObservationService creates a new observation service
func NewObservationService(repo domain.ObservationRepository, invalidator Invalidator) *ObservationService {
	return &ObservationService{repo: repo, invalidator: invalidator}
}

// Append validates and stores an observation, then invalidates cached products
func (s *ObservationService) Append(ctx context.Context, in domain.ObservationInput) (*domain.Observation, error) {
	name := strings.TrimSpace(in.ProductName)
	comment := strings.TrimSpace(in.Comment)
	if name == "" {
		return nil, fmt.Errorf("%w: product name is required", domain.ErrInvalidRequest)
	}
	if comment == "" {
		return nil, fmt.Errorf("%w: comment is required", domain.ErrInvalidRequest)
	}
	if !in.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidRequest, in.Category)
	}

	obs, err := s.repo.AppendObservation(ctx, name, in.Category, comment)
	if err != nil {
		log.Error().Err(err).Str("product", name).Msg("append observation")
		return nil, err
	}

	s.invalidate(ctx)
	log.Info().Int64("id", obs.ID).Str("product", name).Str("category", string(obs.Category)).Msg("observation added")
	return obs, nil
}

// List returns every observation, newest first
func (s *ObservationService) List(ctx context.Context) ([]domain.Observation, error) {
	return s.repo.ListObservations(ctx)
}

// Delete removes one observation. The product annotation it projected is kept.
func (s *ObservationService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid observation id %d", domain.ErrInvalidRequest, id)
	}
	if err := s.repo.DeleteObservation(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *ObservationService) invalidate(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx); err != nil {
		log.Error().Err(err).Msg("invalidate catalog cache")
	}
}
