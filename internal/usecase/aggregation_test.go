package usecase

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmalens/backend/internal/domain"
)

// rowsByCategory builds clean rows named <label><n> for each label/count pair, in order
func rowsByCategory(pairs ...any) []domain.CleanProduct {
	var out []domain.CleanProduct
	for i := 0; i < len(pairs); i += 2 {
		label := pairs[i].(string)
		n := pairs[i+1].(int)
		for j := 0; j < n; j++ {
			out = append(out, domain.CleanProduct{Product: domain.Product{
				ID:       int64(len(out) + 1),
				Name:     fmt.Sprintf("%s%d", label, j+1),
				Category: label,
			}})
		}
	}
	return out
}

func labelsAndCounts(groups []domain.GroupSummary) ([]string, []int) {
	labels := make([]string, len(groups))
	counts := make([]int, len(groups))
	for i, g := range groups {
		labels[i] = g.Label
		counts[i] = g.Count
	}
	return labels, counts
}

func sumCounts(groups []domain.GroupSummary) int {
	total := 0
	for _, g := range groups {
		total += g.Count
	}
	return total
}

func TestGroupCount_TopNFolding(t *testing.T) {
	clean := rowsByCategory("D", 1, "B", 3, "A", 5, "C", 2)
	require.Len(t, clean, 11)

	groups, err := GroupCount(clean, domain.FieldCategory, GroupOptions{TopN: 2})
	require.NoError(t, err)

	labels, counts := labelsAndCounts(groups)
	assert.Equal(t, []string{"A", "B", "Other"}, labels)
	assert.Equal(t, []int{5, 3, 3}, counts)
	assert.False(t, groups[0].Folded)
	assert.True(t, groups[2].Folded)
	assert.Equal(t, []string{"D1", "C1", "C2"}, groups[2].Names)
	assert.Equal(t, 11, sumCounts(groups))
}

func TestGroupCount_Ordering(t *testing.T) {
	tests := []struct {
		name       string
		clean      []domain.CleanProduct
		opts       GroupOptions
		wantLabels []string
		wantCounts []int
	}{
		{
			name:       "ties broken by ascending label",
			clean:      rowsByCategory("Zeta", 2, "Alpha", 2, "Mid", 3),
			wantLabels: []string{"Mid", "Alpha", "Zeta"},
			wantCounts: []int{3, 2, 2},
		},
		{
			name:       "no folding when groups do not exceed N",
			clean:      rowsByCategory("A", 1, "B", 2),
			opts:       GroupOptions{TopN: 2},
			wantLabels: []string{"B", "A"},
			wantCounts: []int{2, 1},
		},
		{
			name:       "case sensitive labels stay apart",
			clean:      rowsByCategory("tab", 1, "Tab", 1),
			wantLabels: []string{"Tab", "tab"},
			wantCounts: []int{1, 1},
		},
		{
			name:       "custom other label",
			clean:      rowsByCategory("A", 3, "B", 2, "C", 1),
			opts:       GroupOptions{TopN: 1, OtherLabel: "Autres"},
			wantLabels: []string{"A", "Autres"},
			wantCounts: []int{3, 3},
		},
		{
			name:       "empty table",
			clean:      nil,
			opts:       GroupOptions{TopN: 3},
			wantLabels: []string{},
			wantCounts: []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups, err := GroupCount(tt.clean, domain.FieldCategory, tt.opts)
			require.NoError(t, err)

			labels, counts := labelsAndCounts(groups)
			assert.Equal(t, tt.wantLabels, labels)
			assert.Equal(t, tt.wantCounts, counts)
			assert.Equal(t, len(tt.clean), sumCounts(groups))
		})
	}
}

func TestGroupCount_CountsSumForEveryN(t *testing.T) {
	clean := rowsByCategory("A", 4, "B", 4, "C", 3, "D", 2, "E", 1, "F", 1)
	for n := 0; n <= 7; n++ {
		groups, err := GroupCount(clean, domain.FieldCategory, GroupOptions{TopN: n})
		require.NoError(t, err)
		assert.Equal(t, len(clean), sumCounts(groups), "top_n=%d", n)
	}
}

func TestGroupCount_NamesDeduplicatedInFirstAppearanceOrder(t *testing.T) {
	clean := []domain.CleanProduct{
		{Product: domain.Product{Name: "Zyrtec", Manufacturer: "UCB"}},
		{Product: domain.Product{Name: "Keppra", Manufacturer: "UCB"}},
		{Product: domain.Product{Name: "Zyrtec", Manufacturer: "UCB"}},
	}

	groups, err := GroupCount(clean, domain.FieldManufacturer, GroupOptions{NameSeparator: " | "})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 3, groups[0].Count)
	assert.Equal(t, []string{"Zyrtec", "Keppra"}, groups[0].Names)
	assert.Equal(t, "Zyrtec | Keppra", groups[0].NamesDisplay)
}

func TestGroupCount_InvalidArguments(t *testing.T) {
	clean := rowsByCategory("A", 1)

	_, err := GroupCount(clean, domain.FieldPrice, GroupOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = GroupCount(clean, domain.Field("shelf"), GroupOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = GroupCount(clean, domain.FieldCategory, GroupOptions{TopN: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestGroupCount_EachDescriptiveField(t *testing.T) {
	products := []domain.Product{
		{Name: "Imurel", Form: "Comprimé", Category: "Immunosuppresseur", Indication: "Greffe", Nomenclature: "Hospitalier", Manufacturer: "Aspen"},
		{Name: "Neoral", Form: "Capsule", Category: "Immunosuppresseur", Indication: "Greffe", Nomenclature: "Officine", Manufacturer: "Novartis"},
		{Name: "Prograf", Form: "Capsule", Category: "Immunosuppresseur", Indication: "", Nomenclature: "Hospitalier", Manufacturer: "Astellas"},
	}
	clean := Normalize(products, NormalizeOptions{})

	tests := []struct {
		field      domain.Field
		wantLabels []string
		wantCounts []int
	}{
		{domain.FieldForm, []string{"Capsule", "Comprimé"}, []int{2, 1}},
		{domain.FieldCategory, []string{"Immunosuppresseur"}, []int{3}},
		{domain.FieldIndication, []string{"Greffe", "Unspecified"}, []int{2, 1}},
		{domain.FieldNomenclature, []string{"Hospitalier", "Officine"}, []int{2, 1}},
		{domain.FieldManufacturer, []string{"Aspen", "Astellas", "Novartis"}, []int{1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(string(tt.field), func(t *testing.T) {
			groups, err := GroupCount(clean, tt.field, GroupOptions{TopN: 10})
			require.NoError(t, err)
			labels, counts := labelsAndCounts(groups)
			assert.Equal(t, tt.wantLabels, labels)
			assert.Equal(t, tt.wantCounts, counts)
			assert.Equal(t, len(products), sumCounts(groups))
		})
	}
}
