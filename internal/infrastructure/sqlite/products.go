package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pharmalens/backend/internal/domain"
)

// productFieldOrder fixes the select list layout after the rowid
var productFieldOrder = []domain.Field{
	domain.FieldName,
	domain.FieldSubstance,
	domain.FieldCode,
	domain.FieldCategory,
	domain.FieldForm,
	domain.FieldManufacturer,
	domain.FieldIndication,
	domain.FieldNomenclature,
	domain.FieldPrice,
}

func (sc *productSchema) selectList() string {
	parts := []string{"rowid"}
	for _, f := range productFieldOrder {
		if col, ok := sc.fields[f]; ok {
			parts = append(parts, quoteIdent(col))
		} else {
			parts = append(parts, "NULL")
		}
	}
	for _, col := range []string{sc.observation, sc.updatedAt} {
		if col != "" {
			parts = append(parts, quoteIdent(col))
		} else {
			parts = append(parts, "NULL")
		}
	}
	return strings.Join(parts, ", ")
}

// LoadProducts returns every product row. It never substitutes rows on failure.
func (s *Store) LoadProducts(ctx context.Context) ([]domain.Product, error) {
	schema, err := s.resolveProductSchema(ctx)
	if err != nil {
		return nil, err
	}

	q := fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", schema.selectList(), quoteIdent(s.productsTable))
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, classify(err, "load products")
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, classify(err, "scan product")
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "load products")
	}

	log.Debug().Int("rows", len(products)).Str("table", s.productsTable).Msg("products loaded")
	return products, nil
}

// GetProduct returns one product by id
func (s *Store) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	schema, err := s.resolveProductSchema(ctx)
	if err != nil {
		return nil, err
	}

	q := fmt.Sprintf("SELECT %s FROM %s WHERE rowid = ? LIMIT 1", schema.selectList(), quoteIdent(s.productsTable))
	p, err := scanProduct(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", domain.ErrProductNotFound, id)
		}
		return nil, classify(err, "get product")
	}
	return p, nil
}

// InsertProducts appends products in one transaction and returns how many were written
func (s *Store) InsertProducts(ctx context.Context, products []domain.Product) (int, error) {
	for i, p := range products {
		if strings.TrimSpace(p.Name) == "" {
			return 0, fmt.Errorf("%w: product %d has an empty name", domain.ErrInvalidRequest, i)
		}
	}
	if len(products) == 0 {
		return 0, nil
	}

	schema, err := s.resolveProductSchema(ctx)
	if err != nil {
		return 0, err
	}

	var fields []domain.Field
	var cols []string
	for _, f := range productFieldOrder {
		if col, ok := schema.fields[f]; ok {
			fields = append(fields, f)
			cols = append(cols, quoteIdent(col))
		}
	}
	ph := strings.TrimRight(strings.Repeat("?,", len(cols)), ",")
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(s.productsTable), strings.Join(cols, ","), ph)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, classify(err, "begin insert")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return 0, classify(err, "prepare insert")
	}
	defer stmt.Close()

	for i := range products {
		args := make([]any, 0, len(fields))
		for _, f := range fields {
			v := strings.ToValidUTF8(products[i].Value(f), "\uFFFD")
			if f == domain.FieldName {
				v = strings.TrimSpace(v)
			}
			args = append(args, nullIfEmpty(v))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, classify(err, "insert product")
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, classify(err, "commit insert")
	}
	return len(products), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(r rowScanner) (*domain.Product, error) {
	var id int64
	values := make([]any, len(productFieldOrder)+2)
	dest := []any{&id}
	for i := range values {
		dest = append(dest, &values[i])
	}
	if err := r.Scan(dest...); err != nil {
		return nil, err
	}

	p := &domain.Product{ID: id}
	for i, f := range productFieldOrder {
		p.SetValue(f, textOf(values[i]))
	}
	if obs := values[len(productFieldOrder)]; obs != nil {
		text := textOf(obs)
		p.Observation = &text
	}
	if ts := values[len(productFieldOrder)+1]; ts != nil {
		if t, err := parseStoreTime(ts); err == nil {
			p.UpdatedAt = &t
		}
	}
	return p, nil
}

// textOf renders a loosely typed SQLite value as display text.
// Invalid UTF-8 is replaced so every reader sees the same string.
func textOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.ToValidUTF8(t, "\uFFFD")
	case []byte:
		return strings.ToValidUTF8(string(t), "\uFFFD")
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(storeTimeLayout)
	default:
		return fmt.Sprint(t)
	}
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// storeTimeLayout is the format of CURRENT_TIMESTAMP
const storeTimeLayout = "2006-01-02 15:04:05"

// parseStoreTime accepts the shapes the driver hands back for timestamp columns
func parseStoreTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		return parseTimeText(t)
	case []byte:
		return parseTimeText(string(t))
	case int64:
		return time.Unix(t, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: timestamp %v", domain.ErrMalformedValue, v)
}

func parseTimeText(s string) (time.Time, error) {
	for _, layout := range []string{storeTimeLayout, time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: timestamp %q", domain.ErrMalformedValue, s)
}
