package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pharmalens/backend/internal/domain"
)

const (
	// DefaultOtherLabel names the bucket that holds folded groups
	DefaultOtherLabel = "Other"
	// DefaultNameSeparator joins product names for display
	DefaultNameSeparator = ", "
)

// GroupOptions controls GroupCount output
type GroupOptions struct {
	// TopN keeps the N largest groups and folds the rest. Zero disables folding.
	TopN          int
	OtherLabel    string
	NameSeparator string
}

func (o GroupOptions) withDefaults() GroupOptions {
	if o.OtherLabel == "" {
		o.OtherLabel = DefaultOtherLabel
	}
	if o.NameSeparator == "" {
		o.NameSeparator = DefaultNameSeparator
	}
	return o
}

// groupable reports whether rows may be grouped by f
func groupable(f domain.Field) error {
	for _, d := range domain.DescriptiveFields {
		if f == d {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot group by %q", domain.ErrInvalidRequest, f)
}

type groupAcc struct {
	label string
	count int
	names []string
	seen  map[string]bool
}

func (g *groupAcc) add(name string) {
	g.count++
	if !g.seen[name] {
		g.seen[name] = true
		g.names = append(g.names, name)
	}
}

// GroupCount counts clean rows per exact value of field, largest first.
// Counts always add up to len(clean), with or without folding.
func GroupCount(clean []domain.CleanProduct, field domain.Field, opts GroupOptions) ([]domain.GroupSummary, error) {
	if err := groupable(field); err != nil {
		return nil, err
	}
	if opts.TopN < 0 {
		return nil, fmt.Errorf("%w: top_n must not be negative", domain.ErrInvalidRequest)
	}
	opts = opts.withDefaults()

	index := make(map[string]*groupAcc)
	var groups []*groupAcc
	for i := range clean {
		label := clean[i].Value(field)
		g, ok := index[label]
		if !ok {
			g = &groupAcc{label: label, seen: make(map[string]bool)}
			index[label] = g
			groups = append(groups, g)
		}
		g.add(clean[i].Name)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].label < groups[j].label
	})

	kept := groups
	var folded []*groupAcc
	if opts.TopN > 0 && len(groups) > opts.TopN {
		kept, folded = groups[:opts.TopN], groups[opts.TopN:]
	}

	out := make([]domain.GroupSummary, 0, len(kept)+1)
	for _, g := range kept {
		out = append(out, domain.GroupSummary{
			Label:        g.label,
			Count:        g.count,
			Names:        g.names,
			NamesDisplay: strings.Join(g.names, opts.NameSeparator),
		})
	}

	if len(folded) > 0 {
		inOther := make(map[string]bool, len(folded))
		for _, g := range folded {
			inOther[g.label] = true
		}
		other := &groupAcc{label: opts.OtherLabel, seen: make(map[string]bool)}
		for i := range clean {
			if inOther[clean[i].Value(field)] {
				other.add(clean[i].Name)
			}
		}
		out = append(out, domain.GroupSummary{
			Label:        other.label,
			Count:        other.count,
			Names:        other.names,
			NamesDisplay: strings.Join(other.names, opts.NameSeparator),
			Folded:       true,
		})
	}

	return out, nil
}
