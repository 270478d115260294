package domain

// GroupSummary is one row of a count-by-category table
type GroupSummary struct {
	Label        string   `json:"label"`
	Count        int      `json:"count"`
	Names        []string `json:"names"`
	NamesDisplay string   `json:"namesDisplay"`
	// Folded marks the synthetic bucket holding every group outside the top N
	Folded bool `json:"folded,omitempty"`
}

// HistogramBin counts defined prices in [Lower, Upper); the last bin is closed
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// GroupMean is the mean defined price of one category
type GroupMean struct {
	Label       string  `json:"label"`
	Mean        float64 `json:"mean"`
	PricedCount int     `json:"pricedCount"`
	Total       int     `json:"total"`
}

// PriceStatistics bundles the price aggregates served to charts
type PriceStatistics struct {
	TopPriced   []CleanProduct `json:"topPriced"`
	Histogram   []HistogramBin `json:"histogram"`
	MeanByGroup []GroupMean    `json:"meanByGroup,omitempty"`
}

// Page is one slice of a listing
type Page struct {
	Items   []CleanProduct `json:"items"`
	Total   int            `json:"total"`
	Page    int            `json:"page"`
	PerPage int            `json:"perPage"`
}
