package memory

import (
	"context"
	"sync"
	"time"

	"github.com/code-payments/otc-server/pkg/otc/data/listing"
)

type store struct {
	mu      sync.Mutex
	last    uint64
	records []*listing.Record
}

// New returns a new in memory listing.Store
func New() listing.Store {
	return &store{}
}

func (s *store) reset() {
	s.mu.Lock()
	s.last = 0
	s.records = nil
	s.mu.Unlock()
}

func (s *store) findByAddress(address string) *listing.Record {
	for _, item := range s.records {
		if item.Address == address {
			return item
		}
	}
	return nil
}

func (s *store) findBySellerAndListingID(seller string, listingID uint64) *listing.Record {
	for _, item := range s.records {
		if item.Seller == seller && item.ListingID == listingID {
			return item
		}
	}
	return nil
}

// Put implements listing.Store.Put
func (s *store) Put(_ context.Context, data *listing.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.findByAddress(data.Address); item != nil {
		return listing.ErrListingAlreadyExists
	}
	if item := s.findBySellerAndListingID(data.Seller, data.ListingID); item != nil {
		return listing.ErrListingAlreadyExists
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

// Update implements listing.Store.Update
func (s *store) Update(_ context.Context, data *listing.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findByAddress(data.Address)
	if item == nil {
		return listing.ErrListingNotFound
	}

	item.Filled = data.Filled
	item.Status = data.Status

	item.CopyTo(data)

	return nil
}

// GetByAddress implements listing.Store.GetByAddress
func (s *store) GetByAddress(_ context.Context, address string) (*listing.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findByAddress(address)
	if item == nil {
		return nil, listing.ErrListingNotFound
	}

	cloned := item.Clone()
	return &cloned, nil
}

// GetAllBySeller implements listing.Store.GetAllBySeller
func (s *store) GetAllBySeller(_ context.Context, seller string) ([]*listing.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res []*listing.Record
	for _, item := range s.records {
		if item.Seller == seller {
			cloned := item.Clone()
			res = append(res, &cloned)
		}
	}

	if len(res) == 0 {
		return nil, listing.ErrListingNotFound
	}
	return res, nil
}

// Count implements listing.Store.Count
func (s *store) Count(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return uint64(len(s.records)), nil
}
