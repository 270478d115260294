package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmalens/backend/internal/domain"
)

func priced(name, category string, price *float64) domain.CleanProduct {
	return domain.CleanProduct{
		Product:    domain.Product{Name: name, Category: category},
		PriceValue: price,
	}
}

func TestTopPriced(t *testing.T) {
	clean := []domain.CleanProduct{
		priced("a", "X", ptr(10)),
		priced("b", "X", nil),
		priced("c", "Y", ptr(30)),
		priced("d", "Y", ptr(10)),
		priced("e", "Y", ptr(0)),
	}

	tests := []struct {
		name string
		k    int
		want []string
	}{
		{name: "ties keep row order", k: 3, want: []string{"c", "a", "d"}},
		{name: "undefined prices excluded", k: 10, want: []string{"c", "a", "d", "e"}},
		{name: "zero k", k: 0, want: []string{}},
		{name: "negative k", k: -2, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TopPriced(clean, tt.k)
			names := make([]string, len(got))
			for i, c := range got {
				names[i] = c.Name
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestPriceHistogram(t *testing.T) {
	t.Run("equal width bins with closed last bin", func(t *testing.T) {
		clean := []domain.CleanProduct{
			priced("a", "", ptr(0)),
			priced("b", "", ptr(2.5)),
			priced("c", "", ptr(5)),
			priced("d", "", ptr(10)),
			priced("e", "", nil),
		}

		bins, err := PriceHistogram(clean, 4)
		require.NoError(t, err)
		require.Len(t, bins, 4)

		assert.Equal(t, []int{1, 1, 1, 1}, []int{bins[0].Count, bins[1].Count, bins[2].Count, bins[3].Count})
		assert.InDelta(t, 0.0, bins[0].Lower, 1e-9)
		assert.InDelta(t, 2.5, bins[0].Upper, 1e-9)
		assert.InDelta(t, 10.0, bins[3].Upper, 1e-9)

		total := 0
		for _, b := range bins {
			total += b.Count
		}
		assert.Equal(t, 4, total)
	})

	t.Run("fewer than two distinct values", func(t *testing.T) {
		bins, err := PriceHistogram([]domain.CleanProduct{priced("a", "", ptr(3)), priced("b", "", ptr(3)), priced("c", "", nil)}, 5)
		require.NoError(t, err)
		assert.Empty(t, bins)

		bins, err = PriceHistogram(nil, 5)
		require.NoError(t, err)
		assert.Empty(t, bins)
	})

	t.Run("non positive bins", func(t *testing.T) {
		_, err := PriceHistogram(nil, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})
}

func TestMeanPriceByGroup(t *testing.T) {
	clean := []domain.CleanProduct{
		priced("a", "Sirop", ptr(10)),
		priced("b", "Sirop", ptr(20)),
		priced("c", "Sirop", nil),
		priced("d", "Comprimé", ptr(4)),
		priced("e", "Gélule", nil),
	}

	means, err := MeanPriceByGroup(clean, domain.FieldCategory)
	require.NoError(t, err)
	require.Len(t, means, 2)

	assert.Equal(t, "Comprimé", means[0].Label)
	assert.InDelta(t, 4.0, means[0].Mean, 1e-9)
	assert.Equal(t, 1, means[0].PricedCount)
	assert.Equal(t, 1, means[0].Total)

	assert.Equal(t, "Sirop", means[1].Label)
	assert.InDelta(t, 15.0, means[1].Mean, 1e-9)
	assert.Equal(t, 2, means[1].PricedCount)
	assert.Equal(t, 3, means[1].Total)

	_, err = MeanPriceByGroup(clean, domain.FieldName)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestComputePriceStatistics(t *testing.T) {
	clean := []domain.CleanProduct{
		priced("a", "X", ptr(1)),
		priced("b", "Y", ptr(2)),
		priced("c", "Y", nil),
	}

	stats, err := ComputePriceStatistics(clean, PriceStatsOptions{Top: 1, Bins: 2})
	require.NoError(t, err)
	require.Len(t, stats.TopPriced, 1)
	assert.Equal(t, "b", stats.TopPriced[0].Name)
	assert.Len(t, stats.Histogram, 2)
	assert.Nil(t, stats.MeanByGroup)

	stats, err = ComputePriceStatistics(clean, PriceStatsOptions{Top: 5, Bins: 2, GroupBy: domain.FieldCategory})
	require.NoError(t, err)
	assert.Len(t, stats.MeanByGroup, 2)

	_, err = ComputePriceStatistics(clean, PriceStatsOptions{Bins: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}
