package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pharmalens/backend/internal/domain"
)

// productsCacheKey holds the JSON encoded raw products table
const productsCacheKey = "products:raw"

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
	DefaultBins    = 10
)

var multipleSpacesRegex = regexp.MustCompile(`\s+`)

// CatalogServiceConfig holds configuration for the catalog service
type CatalogServiceConfig struct {
	CacheTTL    time.Duration
	Normalize   NormalizeOptions
	Group       GroupOptions
	DefaultTopN int
}

// CatalogService serves normalized products and their aggregates
type CatalogService struct {
	repo    domain.ProductRepository
	cache   domain.TableCache
	config  CatalogServiceConfig
	changes domain.ChangeDetector

	// mu guards the fields below and orders cache fills against Invalidate
	mu           sync.Mutex
	generation   uint64
	version      int64
	versionKnown bool
}

// NewCatalogService creates a catalog service. cache may be nil to disable caching.
func NewCatalogService(repo domain.ProductRepository, cache domain.TableCache, config CatalogServiceConfig) *CatalogService {
	if config.CacheTTL == 0 {
		config.CacheTTL = 10 * time.Minute
	}
	config.Group = config.Group.withDefaults()
	svc := &CatalogService{
		repo:   repo,
		cache:  cache,
		config: config,
	}
	if cd, ok := repo.(domain.ChangeDetector); ok {
		svc.changes = cd
	}
	return svc
}

// ListQuery filters and paginates the product listing
type ListQuery struct {
	Query   string
	Page    int
	PerPage int
}

// DefaultTopN is the fold threshold used when a caller does not pass one
func (s *CatalogService) DefaultTopN() int {
	return s.config.DefaultTopN
}

// Products returns the whole normalized table.
// Flow: check cache -> load store -> cache raw rows -> normalize
func (s *CatalogService) Products(ctx context.Context) ([]domain.CleanProduct, error) {
	raw, err := s.rawProducts(ctx)
	if err != nil {
		return nil, err
	}
	return Normalize(raw, s.config.Normalize), nil
}

func (s *CatalogService) rawProducts(ctx context.Context) ([]domain.Product, error) {
	s.detectExternalWrites(ctx)

	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()

	if cached, err := s.getFromCache(ctx); err == nil {
		return cached, nil
	}

	raw, err := s.repo.LoadProducts(ctx)
	if err != nil {
		log.Error().Err(err).Msg("load products")
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		// An invalidation ran while loading; these rows may predate it
		log.Debug().Msg("skip caching products loaded before invalidation")
		return raw, nil
	}
	if err := s.setInCache(ctx, raw); err != nil {
		log.Warn().Err(err).Msg("cache products")
	}
	return raw, nil
}

// detectExternalWrites invalidates the cache when another process, such as
// the import command, has committed to the store since the last check
func (s *CatalogService) detectExternalWrites(ctx context.Context) {
	if s.changes == nil {
		return
	}
	v, err := s.changes.DataVersion(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("read store data version")
		return
	}

	s.mu.Lock()
	changed := s.versionKnown && v != s.version
	s.version, s.versionKnown = v, true
	s.mu.Unlock()

	if changed {
		log.Info().Int64("data_version", v).Msg("store changed externally")
		if err := s.Invalidate(ctx); err != nil {
			log.Warn().Err(err).Msg("invalidate after external write")
		}
	}
}

// Search matches q case-insensitively against name, substance and code, then paginates
func (s *CatalogService) Search(ctx context.Context, q ListQuery) (*domain.Page, error) {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PerPage == 0 {
		q.PerPage = DefaultPerPage
	}
	if q.Page < 1 {
		return nil, fmt.Errorf("%w: page must be at least 1", domain.ErrInvalidRequest)
	}
	if q.PerPage < 1 || q.PerPage > MaxPerPage {
		return nil, fmt.Errorf("%w: per_page must be between 1 and %d", domain.ErrInvalidRequest, MaxPerPage)
	}

	clean, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}

	needle := normalizeQuery(q.Query)
	matched := clean
	if needle != "" {
		matched = make([]domain.CleanProduct, 0, len(clean))
		for _, c := range clean {
			if matchesQuery(c, needle) {
				matched = append(matched, c)
			}
		}
	}

	start := (q.Page - 1) * q.PerPage
	if start > len(matched) {
		start = len(matched)
	}
	end := start + q.PerPage
	if end > len(matched) {
		end = len(matched)
	}

	items := make([]domain.CleanProduct, end-start)
	copy(items, matched[start:end])

	return &domain.Page{
		Items:   items,
		Total:   len(matched),
		Page:    q.Page,
		PerPage: q.PerPage,
	}, nil
}

// normalizeQuery lowercases and collapses whitespace
func normalizeQuery(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	return multipleSpacesRegex.ReplaceAllString(q, " ")
}

func matchesQuery(c domain.CleanProduct, needle string) bool {
	for _, f := range []domain.Field{domain.FieldName, domain.FieldSubstance, domain.FieldCode} {
		if strings.Contains(strings.ToLower(c.Value(f)), needle) {
			return true
		}
	}
	return false
}

// Product returns one normalized product
func (s *CatalogService) Product(ctx context.Context, id int64) (*domain.CleanProduct, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	clean := Normalize([]domain.Product{*p}, s.config.Normalize)
	return &clean[0], nil
}

// Groups counts products per value of field, folding past topN groups
func (s *CatalogService) Groups(ctx context.Context, field domain.Field, topN int) ([]domain.GroupSummary, error) {
	if err := groupable(field); err != nil {
		return nil, err
	}
	clean, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}
	opts := s.config.Group
	opts.TopN = topN
	return GroupCount(clean, field, opts)
}

// PriceStatistics computes the price aggregates over the whole table
func (s *CatalogService) PriceStatistics(ctx context.Context, opts PriceStatsOptions) (*domain.PriceStatistics, error) {
	if opts.Bins == 0 {
		opts.Bins = DefaultBins
	}
	if opts.Top == 0 {
		opts.Top = s.config.DefaultTopN
	}
	if opts.Top < 0 {
		return nil, fmt.Errorf("%w: top must not be negative", domain.ErrInvalidRequest)
	}
	if opts.Bins < 0 {
		return nil, fmt.Errorf("%w: bins must be positive", domain.ErrInvalidRequest)
	}
	if opts.GroupBy != "" {
		if err := groupable(opts.GroupBy); err != nil {
			return nil, err
		}
	}

	clean, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}
	return ComputePriceStatistics(clean, opts)
}

// Invalidate drops the cached table so the next read goes to the store.
// Loads already in flight will not re-cache their rows.
func (s *CatalogService) Invalidate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Delete(ctx, productsCacheKey); err != nil {
		return err
	}
	log.Debug().Str("key", productsCacheKey).Msg("cache invalidated")
	return nil
}

func (s *CatalogService) getFromCache(ctx context.Context) ([]domain.Product, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}

	data, err := s.cache.Get(ctx, productsCacheKey)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			log.Warn().Err(err).Msg("cache read failed, falling back to store")
		} else {
			log.Debug().Str("key", productsCacheKey).Msg("cache miss")
		}
		return nil, err
	}

	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		log.Warn().Err(err).Msg("cached products undecodable")
		return nil, domain.ErrCacheMiss
	}
	return products, nil
}

func (s *CatalogService) setInCache(ctx context.Context, products []domain.Product) error {
	if s.cache == nil {
		return nil
	}
	data, err := json.Marshal(products)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, productsCacheKey, data, s.config.CacheTTL)
}
