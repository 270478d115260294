package domain

import (
	"context"
	"time"
)

// TableCache defines the interface for caching serialized tables
type TableCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ProductRepository defines read access to product rows
type ProductRepository interface {
	LoadProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (*Product, error)
}

// ChangeDetector reports a counter that moves whenever another process
// commits to the product store
type ChangeDetector interface {
	DataVersion(ctx context.Context) (int64, error)
}

// ProductWriter defines bulk product insertion used by imports
type ProductWriter interface {
	InsertProducts(ctx context.Context, products []Product) (int, error)
}

// ObservationRepository defines the append-only observation log
type ObservationRepository interface {
	AppendObservation(ctx context.Context, productName string, category ObservationCategory, comment string) (*Observation, error)
	ListObservations(ctx context.Context) ([]Observation, error)
	DeleteObservation(ctx context.Context, id int64) error
}
