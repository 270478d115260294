package usecase

import (
	"fmt"
	"sort"

	"github.com/pharmalens/backend/internal/domain"
)

// PriceStatsOptions selects which price aggregates to compute
type PriceStatsOptions struct {
	Top  int
	Bins int
	// GroupBy is optional; when empty no per-group means are computed
	GroupBy domain.Field
}

// TopPriced returns the k rows with the largest defined price.
// Equal prices keep their table order.
func TopPriced(clean []domain.CleanProduct, k int) []domain.CleanProduct {
	priced := make([]domain.CleanProduct, 0, len(clean))
	for _, c := range clean {
		if c.PriceValue != nil {
			priced = append(priced, c)
		}
	}

	sort.SliceStable(priced, func(i, j int) bool {
		return *priced[i].PriceValue > *priced[j].PriceValue
	})

	if k < 0 {
		k = 0
	}
	if k < len(priced) {
		priced = priced[:k]
	}
	return priced
}

// PriceHistogram splits the defined prices into equal-width bins over [min, max].
// Fewer than two distinct prices give an empty histogram.
func PriceHistogram(clean []domain.CleanProduct, bins int) ([]domain.HistogramBin, error) {
	if bins <= 0 {
		return nil, fmt.Errorf("%w: bins must be positive", domain.ErrInvalidRequest)
	}

	var values []float64
	lo, hi := 0.0, 0.0
	for _, c := range clean {
		if c.PriceValue == nil {
			continue
		}
		v := *c.PriceValue
		if len(values) == 0 || v < lo {
			lo = v
		}
		if len(values) == 0 || v > hi {
			hi = v
		}
		values = append(values, v)
	}
	if len(values) == 0 || lo == hi {
		return []domain.HistogramBin{}, nil
	}

	width := (hi - lo) / float64(bins)
	out := make([]domain.HistogramBin, bins)
	for i := range out {
		out[i].Lower = lo + float64(i)*width
		out[i].Upper = lo + float64(i+1)*width
	}
	out[bins-1].Upper = hi

	for _, v := range values {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		out[i].Count++
	}
	return out, nil
}

// MeanPriceByGroup averages the defined prices of every group of field.
// Groups without any defined price are left out.
func MeanPriceByGroup(clean []domain.CleanProduct, field domain.Field) ([]domain.GroupMean, error) {
	if err := groupable(field); err != nil {
		return nil, err
	}

	type acc struct {
		sum    float64
		priced int
		total  int
	}
	groups := make(map[string]*acc)
	for i := range clean {
		label := clean[i].Value(field)
		a, ok := groups[label]
		if !ok {
			a = &acc{}
			groups[label] = a
		}
		a.total++
		if clean[i].PriceValue != nil {
			a.sum += *clean[i].PriceValue
			a.priced++
		}
	}

	out := make([]domain.GroupMean, 0, len(groups))
	for label, a := range groups {
		if a.priced == 0 {
			continue
		}
		out = append(out, domain.GroupMean{
			Label:       label,
			Mean:        a.sum / float64(a.priced),
			PricedCount: a.priced,
			Total:       a.total,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

// ComputePriceStatistics bundles TopPriced, PriceHistogram and, when GroupBy is set, MeanPriceByGroup
func ComputePriceStatistics(clean []domain.CleanProduct, opts PriceStatsOptions) (*domain.PriceStatistics, error) {
	hist, err := PriceHistogram(clean, opts.Bins)
	if err != nil {
		return nil, err
	}

	stats := &domain.PriceStatistics{
		TopPriced: TopPriced(clean, opts.Top),
		Histogram: hist,
	}

	if opts.GroupBy != "" {
		means, err := MeanPriceByGroup(clean, opts.GroupBy)
		if err != nil {
			return nil, err
		}
		stats.MeanByGroup = means
	}
	return stats, nil
}
