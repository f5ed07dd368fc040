package memory

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/shopspring/decimal"

	"pharmapos/internal/domain"
	"pharmapos/internal/store"
)

// Store keeps blobs in process memory. Nothing survives a restart.
type Store struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func New() *Store {
	return &Store{blobs: make(map[string][]byte)}
}

// NewSeeded returns a store holding a small demo catalog for local runs.
func NewSeeded() *Store {
	s := New()
	payload, err := json.Marshal(seedProducts())
	if err != nil {
		log.Fatalf("[memory-store] failed to encode seed products: %v", err)
	}
	s.blobs[store.KeyProducts] = payload
	return s
}

func seedProducts() []domain.Product {
	return []domain.Product{
		{Barcode: "8941100500017", Name: "Napa 500mg", Company: "Beximco", Quantity: 120, PurchasePrice: decimal.RequireFromString("0.80"), SellingPrice: decimal.RequireFromString("1.20")},
		{Barcode: "8941100500024", Name: "Seclo 20mg", Company: "Square", Quantity: 60, PurchasePrice: decimal.RequireFromString("4.50"), SellingPrice: decimal.RequireFromString("6")},
		{Barcode: "8941100500031", Name: "Fexo 120mg", Company: "Square", Quantity: 8, PurchasePrice: decimal.RequireFromString("7"), SellingPrice: decimal.RequireFromString("9")},
		{Barcode: "8941100500048", Name: "Orsaline-N", Company: "SMC", Quantity: 0, PurchasePrice: decimal.RequireFromString("4"), SellingPrice: decimal.RequireFromString("5")},
	}
}

func (s *Store) Load(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, ok := s.blobs[key]
	if !ok {
		return nil, false, nil
	}
	return cloneBlob(blob), true, nil
}

func (s *Store) Save(_ context.Context, key string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blobs[key] = cloneBlob(blob)
	return nil
}

func (s *Store) SaveBatch(_ context.Context, blobs map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, blob := range blobs {
		s.blobs[key] = cloneBlob(blob)
	}
	return nil
}

func (s *Store) Close() error {
	return nil
}

func cloneBlob(src []byte) []byte {
	dup := make([]byte, len(src))
	copy(dup, src)
	return dup
}
