package memory

import (
	"context"
	"sync"
	"time"

	"github.com/code-payments/otc-server/pkg/otc/data/mint"
)

type store struct {
	mu      sync.Mutex
	last    uint64
	records []*mint.Record
}

// New returns a new in memory mint.Store
func New() mint.Store {
	return &store{}
}

func (s *store) reset() {
	s.mu.Lock()
	s.last = 0
	s.records = nil
	s.mu.Unlock()
}

func (s *store) find(address string) *mint.Record {
	for _, item := range s.records {
		if item.Address == address {
			return item
		}
	}
	return nil
}

// Put implements mint.Store.Put
func (s *store) Put(_ context.Context, data *mint.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.find(data.Address); item != nil {
		return mint.ErrMintAlreadyExists
	}

	s.last++
	data.Id = s.last
	if data.CreatedAt.IsZero() {
		data.CreatedAt = time.Now()
	}

	cloned := data.Clone()
	s.records = append(s.records, &cloned)

	return nil
}

// Get implements mint.Store.Get
func (s *store) Get(_ context.Context, address string) (*mint.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.find(address)
	if item == nil {
		return nil, mint.ErrMintNotFound
	}

	cloned := item.Clone()
	return &cloned, nil
}
