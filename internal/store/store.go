package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrNegativeStock     = errors.New("negative stock")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptyBatch        = errors.New("empty batch")
	ErrInvalidInput      = errors.New("invalid input")
	ErrPersistence       = errors.New("persistence failure")
)

// Blob keys. The names are the ones earlier browser builds used for local storage.
const (
	KeyProducts     = "shop_products"
	KeySales        = "shop_sales"
	KeyProcurements = "shop_procurements"
	KeySettings     = "shop_settings"
)

var Keys = []string{KeyProducts, KeySales, KeyProcurements, KeySettings}

// Gateway stores opaque serialized blobs by key. Load reports false when the
// key was never written.
type Gateway interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, blob []byte) error
	Close() error
}

// BatchSaver is implemented by gateways that can write several blobs in one
// transaction. Callers fall back to Save per key otherwise.
type BatchSaver interface {
	SaveBatch(ctx context.Context, blobs map[string][]byte) error
}
