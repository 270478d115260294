package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/pharmalens/backend/internal/domain"
)

// AppendObservation inserts an observation and projects the comment onto every
// product whose name is exactly productName. A missing product is not an error.
func (s *Store) AppendObservation(ctx context.Context, productName string, category domain.ObservationCategory, comment string) (*domain.Observation, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: unknown observation category %q", domain.ErrInvalidRequest, category)
	}

	schema, err := s.resolveProductSchema(ctx)
	if err != nil {
		// projection is best-effort; the log entry is still written
		log.Warn().Err(err).Str("product", productName).Msg("observation projection disabled")
		schema = nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify(err, "begin observation")
	}
	defer tx.Rollback()

	var productID *int64
	if schema != nil {
		q := fmt.Sprintf("SELECT rowid FROM %s WHERE %s = ? ORDER BY rowid LIMIT 1",
			quoteIdent(s.productsTable), quoteIdent(schema.fields[domain.FieldName]))
		var id int64
		switch err := tx.QueryRowContext(ctx, q, productName).Scan(&id); {
		case err == nil:
			productID = &id
		case errors.Is(err, sql.ErrNoRows):
		default:
			return nil, classify(err, "match product")
		}
	}

	obs := &domain.Observation{
		ProductName: productName,
		ProductID:   productID,
		Category:    category,
		Comment:     comment,
	}
	var created any
	err = tx.QueryRowContext(ctx,
		`INSERT INTO observations (product_name, type, comment, product_id) VALUES (?, ?, ?, ?) RETURNING id, date`,
		productName, string(category), comment, productID).Scan(&obs.ID, &created)
	if err != nil {
		return nil, classify(err, "insert observation")
	}
	if obs.CreatedAt, err = parseStoreTime(created); err != nil {
		return nil, fmt.Errorf("%w: observation %d: %v", domain.ErrSchema, obs.ID, err)
	}

	if productID != nil && schema.observation != "" {
		set := fmt.Sprintf("%s = ?", quoteIdent(schema.observation))
		if schema.updatedAt != "" {
			set += fmt.Sprintf(", %s = CURRENT_TIMESTAMP", quoteIdent(schema.updatedAt))
		}
		q := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
			quoteIdent(s.productsTable), set, quoteIdent(schema.fields[domain.FieldName]))
		if _, err := tx.ExecContext(ctx, q, comment, productName); err != nil {
			return nil, classify(err, "project observation")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, classify(err, "commit observation")
	}

	log.Debug().Int64("id", obs.ID).Str("product", productName).Bool("matched", productID != nil).Msg("observation appended")
	return obs, nil
}

// ListObservations returns the observation log newest first
func (s *Store) ListObservations(ctx context.Context) ([]domain.Observation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, product_name, type, comment, date, product_id FROM observations ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, classify(err, "list observations")
	}
	defer rows.Close()

	observations := []domain.Observation{}
	for rows.Next() {
		var o domain.Observation
		var category string
		var created any
		var productID sql.NullInt64
		if err := rows.Scan(&o.ID, &o.ProductName, &category, &o.Comment, &created, &productID); err != nil {
			return nil, classify(err, "scan observation")
		}
		o.Category = domain.ObservationCategory(category)
		if created != nil {
			if t, err := parseStoreTime(created); err == nil {
				o.CreatedAt = t
			}
		}
		if productID.Valid {
			id := productID.Int64
			o.ProductID = &id
		}
		observations = append(observations, o)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "list observations")
	}
	return observations, nil
}

// DeleteObservation removes one log entry. Product projections are left untouched.
func (s *Store) DeleteObservation(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM observations WHERE id = ?`, id)
	if err != nil {
		return classify(err, "delete observation")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify(err, "delete observation")
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", domain.ErrObservationNotFound, id)
	}
	return nil
}
