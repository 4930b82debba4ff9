package listing

import (
	"context"

	"github.com/pkg/errors"
)

var (
	ErrListingNotFound = errors.New("listing not found")

	ErrListingAlreadyExists = errors.New("listing already exists")

	ErrStaleState = errors.New("listing state is stale")
)

type Store interface {
	// Put creates a new listing record. ErrListingAlreadyExists is returned if
	// a record already exists for the address, or for the (seller, listing_id)
	// pair the vault authority is derived from.
	Put(ctx context.Context, record *Record) error

	// Update saves the mutable portion of a listing record (filled, status).
	// ErrListingNotFound is returned if no record exists for the address.
	Update(ctx context.Context, record *Record) error

	// GetByAddress finds the record for a given listing account address.
	GetByAddress(ctx context.Context, address string) (*Record, error)

	// GetAllBySeller returns all records created by a seller, in creation order.
	//
	// Returns ErrListingNotFound if no records are found.
	GetAllBySeller(ctx context.Context, seller string) ([]*Record, error)

	// Count returns the total count of listing records.
	Count(ctx context.Context) (uint64, error)
}
