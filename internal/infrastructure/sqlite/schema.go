package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/pharmalens/backend/internal/domain"
)

var identRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// allowedColumnTypes are the declared types EnsureColumn accepts
var allowedColumnTypes = map[string]bool{
	"TEXT":      true,
	"INTEGER":   true,
	"REAL":      true,
	"NUMERIC":   true,
	"BLOB":      true,
	"TIMESTAMP": true,
}

// column is one row of PRAGMA table_info
type column struct {
	Name string
	Type string
}

func validateIdent(name string) error {
	if !identRegex.MatchString(name) {
		return fmt.Errorf("%w: invalid identifier %q", domain.ErrInvalidRequest, name)
	}
	return nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteLiteral(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

// tableColumns lists the columns of a table; an absent table yields none
func (s *Store) tableColumns(ctx context.Context, table string) ([]column, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, classify(err, "table_info "+table)
	}
	defer rows.Close()

	var cols []column
	for rows.Next() {
		var cid, notnull, pk int
		var name, ctype string
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, classify(err, "table_info scan")
		}
		cols = append(cols, column{Name: name, Type: ctype})
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "table_info rows")
	}
	return cols, nil
}

// EnsureColumn adds a column when it is absent and is a no-op otherwise.
// It never drops or retypes anything.
func (s *Store) EnsureColumn(ctx context.Context, table, name, sqlType string, dflt *string) error {
	if err := validateIdent(table); err != nil {
		return err
	}
	if err := validateIdent(name); err != nil {
		return err
	}
	sqlType = strings.ToUpper(strings.TrimSpace(sqlType))
	if !allowedColumnTypes[sqlType] {
		return fmt.Errorf("%w: unsupported column type %q", domain.ErrInvalidRequest, sqlType)
	}

	cols, err := s.tableColumns(ctx, table)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return fmt.Errorf("%w: table %q does not exist", domain.ErrSchema, table)
	}
	for _, c := range cols {
		if strings.EqualFold(c.Name, name) {
			return nil
		}
	}

	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", quoteIdent(table), quoteIdent(name), sqlType)
	if dflt != nil {
		stmt += " DEFAULT " + quoteLiteral(*dflt)
	}
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("%w: add column %s.%s: %v", domain.ErrSchema, table, name, err)
	}

	log.Info().Str("table", table).Str("column", name).Str("type", sqlType).Msg("column added")
	return nil
}

// productSchema is the resolved layout of the products table
type productSchema struct {
	fields      map[domain.Field]string
	observation string
	updatedAt   string
}

func (s *Store) resolveProductSchema(ctx context.Context) (*productSchema, error) {
	cols, err := s.tableColumns(ctx, s.productsTable)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: table %q not found", domain.ErrStoreUnavailable, s.productsTable)
	}

	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = c.Name
	}

	schema := &productSchema{fields: domain.ResolveColumns(headers)}
	if _, ok := schema.fields[domain.FieldName]; !ok {
		return nil, fmt.Errorf("%w: table %q has no product name column", domain.ErrSchema, s.productsTable)
	}
	if h, ok := domain.MatchHeader(headers, domain.ObservationAliases); ok {
		schema.observation = h
	}
	if h, ok := domain.MatchHeader(headers, []string{"updated_at", "date_modif"}); ok {
		schema.updatedAt = h
	}
	return schema, nil
}
