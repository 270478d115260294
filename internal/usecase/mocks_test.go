package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/pharmalens/backend/internal/domain"
)

// fakeCache is an in-memory domain.TableCache with call counters
type fakeCache struct {
	mu        sync.Mutex
	data      map[string][]byte
	getErr    error
	deleteErr error
	gets      int
	sets      int
	deletes   int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return nil, c.getErr
	}
	v, ok := c.data[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return v, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.data[key] = value
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes++
	if c.deleteErr != nil {
		return c.deleteErr
	}
	delete(c.data, key)
	return nil
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

// fakeProducts is a domain.ProductRepository, domain.ProductWriter and domain.ChangeDetector
type fakeProducts struct {
	products   []domain.Product
	loadErr    error
	insertErr  error
	loads      int
	inserted   []domain.Product
	version    int64
	versionErr error
	// onLoad runs inside LoadProducts before the rows are returned
	onLoad func()
}

func (r *fakeProducts) LoadProducts(ctx context.Context) ([]domain.Product, error) {
	r.loads++
	if r.onLoad != nil {
		r.onLoad()
	}
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	out := make([]domain.Product, len(r.products))
	copy(out, r.products)
	return out, nil
}

func (r *fakeProducts) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	for _, p := range r.products {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (r *fakeProducts) DataVersion(ctx context.Context) (int64, error) {
	return r.version, r.versionErr
}

func (r *fakeProducts) InsertProducts(ctx context.Context, products []domain.Product) (int, error) {
	if r.insertErr != nil {
		return 0, r.insertErr
	}
	r.inserted = append(r.inserted, products...)
	return len(products), nil
}

// fakeObservations is a domain.ObservationRepository
type fakeObservations struct {
	rows      []domain.Observation
	appendErr error
	nextID    int64
}

func (r *fakeObservations) AppendObservation(ctx context.Context, name string, category domain.ObservationCategory, comment string) (*domain.Observation, error) {
	if r.appendErr != nil {
		return nil, r.appendErr
	}
	r.nextID++
	obs := domain.Observation{ID: r.nextID, ProductName: name, Category: category, Comment: comment, CreatedAt: time.Now().UTC()}
	r.rows = append([]domain.Observation{obs}, r.rows...)
	return &obs, nil
}

func (r *fakeObservations) ListObservations(ctx context.Context) ([]domain.Observation, error) {
	return r.rows, nil
}

func (r *fakeObservations) DeleteObservation(ctx context.Context, id int64) error {
	for i, o := range r.rows {
		if o.ID == id {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return domain.ErrObservationNotFound
}

// countingInvalidator records Invalidate calls
type countingInvalidator struct {
	calls int
	err   error
}

func (c *countingInvalidator) Invalidate(ctx context.Context) error {
	c.calls++
	return c.err
}
