package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/pharmalens/backend/internal/domain"
)

// ImportService appends parsed spreadsheet rows to the store
type ImportService struct {
	writer      domain.ProductWriter
	invalidator Invalidator
}

// NewImportService creates an import service. invalidator may be nil.
func NewImportService(writer domain.ProductWriter, invalidator Invalidator) *ImportService {
	return &ImportService{writer: writer, invalidator: invalidator}
}

// Import writes products in one batch and returns how many rows were stored
func (s *ImportService) Import(ctx context.Context, products []domain.Product) (int, error) {
	if len(products) == 0 {
		return 0, fmt.Errorf("%w: nothing to import", domain.ErrInvalidRequest)
	}

	n, err := s.writer.InsertProducts(ctx, products)
	if err != nil {
		log.Error().Err(err).Int("rows", len(products)).Msg("import products")
		return 0, err
	}

	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx); err != nil {
			log.Error().Err(err).Msg("invalidate catalog cache")
		}
	}
	log.Info().Int("rows", n).Msg("products imported")
	return n, nil
}
