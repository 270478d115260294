package xlsx

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pharmalens/backend/internal/domain"
)

// workbook writes rows to sheet starting at A1 and returns the encoded file
func workbook(t *testing.T, sheet string, rows [][]any) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestReadProducts(t *testing.T) {
	buf := workbook(t, "Sheet1", [][]any{
		{"Nomenclature nationale des produits pharmaceutiques"},
		{"Nom complet", "DCI", "Code ATC", "Forme", "Laboratoire Fabricant", "Prix", "INDICATION"},
		{"Doliprane 500mg", "Paracetamol", "N02BE01", "comprimé", "Sanofi", "195,00 DA", "Douleur"},
		{},
		{"", "Ibuprofene", "M01AE01", "comprimé", "Biopharm", "120 DA"},
		{"Ventoline", "Salbutamol", "R03AC02"},
		{"Amoxil", "Amoxicilline", "J01CA04", "gélule", "GSK", 350},
	})

	result, err := ReadProducts(buf, ReadOptions{})
	require.NoError(t, err)

	assert.Equal(t, "Sheet1", result.Sheet)
	require.Len(t, result.Products, 3)

	assert.Equal(t, domain.Product{
		Name:         "Doliprane 500mg",
		Substance:    "Paracetamol",
		Code:         "N02BE01",
		Form:         "comprimé",
		Manufacturer: "Sanofi",
		Indication:   "Douleur",
		Price:        "195,00 DA",
	}, result.Products[0])

	assert.Equal(t, "Ventoline", result.Products[1].Name)
	assert.Equal(t, "", result.Products[1].Form)
	assert.Equal(t, "350", result.Products[2].Price)

	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 5, result.Errors[0].Row)
	assert.True(t, errors.Is(result.Errors[0], domain.ErrMalformedValue))
}

func TestReadProducts_NamedSheetAndHeaderRow(t *testing.T) {
	buf := workbook(t, "Tarifs", [][]any{
		{"name", "price", "manufacturer"},
		{"Zyrtec", "10.5", "ucb"},
	})

	result, err := ReadProducts(buf, ReadOptions{Sheet: "Tarifs", HeaderRow: 1})
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "Zyrtec", result.Products[0].Name)
	assert.Equal(t, "10.5", result.Products[0].Price)
	assert.Equal(t, "ucb", result.Products[0].Manufacturer)
	assert.Empty(t, result.Errors)
}

func TestReadProducts_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   func(t *testing.T) *bytes.Buffer
		opts    ReadOptions
		wantErr error
	}{
		{
			name:    "not a workbook",
			input:   func(t *testing.T) *bytes.Buffer { return bytes.NewBufferString("name,price\nA,1\n") },
			wantErr: domain.ErrInvalidRequest,
		},
		{
			name: "unknown sheet",
			input: func(t *testing.T) *bytes.Buffer {
				return workbook(t, "Sheet1", [][]any{{"x"}, {"name"}})
			},
			opts:    ReadOptions{Sheet: "Missing"},
			wantErr: domain.ErrInvalidRequest,
		},
		{
			name: "no name column",
			input: func(t *testing.T) *bytes.Buffer {
				return workbook(t, "Sheet1", [][]any{{"title"}, {"DCI", "Prix"}, {"Paracetamol", "10"}})
			},
			wantErr: domain.ErrSchema,
		},
		{
			name: "header row beyond data",
			input: func(t *testing.T) *bytes.Buffer {
				return workbook(t, "Sheet1", [][]any{{"name"}})
			},
			opts:    ReadOptions{HeaderRow: 5},
			wantErr: domain.ErrSchema,
		},
		{
			name: "negative header row",
			input: func(t *testing.T) *bytes.Buffer {
				return workbook(t, "Sheet1", [][]any{{"name"}})
			},
			opts:    ReadOptions{HeaderRow: -1},
			wantErr: domain.ErrInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadProducts(tt.input(t), tt.opts)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
