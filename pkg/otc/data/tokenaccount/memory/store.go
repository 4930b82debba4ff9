package memory

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/code-payments/otc-server/pkg/otc/data/tokenaccount"
)

type store struct {
	mu      sync.Mutex
	last    uint64
	records []*tokenaccount.Record
}

// New returns a new in memory tokenaccount.Store
func New() tokenaccount.Store {
	return &store{}
}

func (s *store) reset() {
	s.mu.Lock()
	s.last = 0
	s.records = nil
	s.mu.Unlock()
}

func (s *store) find(address string) *tokenaccount.Record {
	for _, item := range s.records {
		if item.Address == address {
			return item
		}
	}
	return nil
}

// Put implements tokenaccount.Store.Put
func (s *store) Put(_ context.Context, data *tokenaccount.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.find(data.Address); item != nil {
		return tokenaccount.ErrTokenAccountAlreadyExists
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

// Get implements tokenaccount.Store.Get
func (s *store) Get(_ context.Context, address string) (*tokenaccount.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.find(address)
	if item == nil {
		return nil, tokenaccount.ErrTokenAccountNotFound
	}

	cloned := item.Clone()
	return &cloned, nil
}

// Transfer implements tokenaccount.Store.Transfer
func (s *store) Transfer(_ context.Context, source, destination string, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sourceItem := s.find(source)
	if sourceItem == nil {
		return tokenaccount.ErrTokenAccountNotFound
	}

	destinationItem := s.find(destination)
	if destinationItem == nil {
		return tokenaccount.ErrTokenAccountNotFound
	}

	if sourceItem.Amount < amount {
		return tokenaccount.ErrInsufficientBalance
	}

	if destinationItem.Amount > math.MaxUint64-amount {
		return tokenaccount.ErrBalanceOverflow
	}

	sourceItem.Amount -= amount
	destinationItem.Amount += amount

	return nil
}
