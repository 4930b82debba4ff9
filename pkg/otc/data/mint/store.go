package mint

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrMintNotFound = errors.New("mint not found")

	ErrMintAlreadyExists = errors.New("mint already exists")
)

// Record captures the metadata of one asset mint. The settlement engine only
// needs the decimal scale, snapshotted onto listings at initialization.
type Record struct {
	Id uint64

	Address  string
	Decimals uint8

	CreatedAt time.Time
}

type Store interface {
	// Put creates a new mint record. ErrMintAlreadyExists is returned if a
	// record already exists for the address.
	Put(ctx context.Context, record *Record) error

	// Get finds the record for a given mint address.
	Get(ctx context.Context, address string) (*Record, error)
}

func (r *Record) Validate() error {
	if len(r.Address) == 0 {
		return errors.New("address is required")
	}

	return nil
}

func (r *Record) Clone() Record {
	return Record{
		Id: r.Id,

		Address:  r.Address,
		Decimals: r.Decimals,

		CreatedAt: r.CreatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id

	dst.Address = r.Address
	dst.Decimals = r.Decimals

	dst.CreatedAt = r.CreatedAt
}
