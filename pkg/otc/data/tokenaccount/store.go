package tokenaccount

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrTokenAccountNotFound = errors.New("token account not found")

	ErrTokenAccountAlreadyExists = errors.New("token account already exists")

	ErrInsufficientBalance = errors.New("token account has insufficient balance")

	ErrBalanceOverflow = errors.New("token account balance overflow")
)

// Record is one token account balance on the asset ledger. An account holds
// units of exactly one mint on behalf of one owner.
type Record struct {
	Id uint64

	Address string
	Mint    string
	Owner   string

	Amount uint64

	CreatedAt time.Time
}

type Store interface {
	// Put creates a new token account record. ErrTokenAccountAlreadyExists is
	// returned if a record already exists for the address.
	Put(ctx context.Context, record *Record) error

	// Get finds the record for a given token account address.
	Get(ctx context.Context, address string) (*Record, error)

	// Transfer atomically moves amount from the source account to the
	// destination account. The debit and credit apply together or not at all.
	// ErrInsufficientBalance is returned if the source balance is less than
	// amount.
	Transfer(ctx context.Context, source, destination string, amount uint64) error
}

func (r *Record) Validate() error {
	if len(r.Address) == 0 {
		return errors.New("address is required")
	}

	if len(r.Mint) == 0 {
		return errors.New("mint is required")
	}

	if len(r.Owner) == 0 {
		return errors.New("owner is required")
	}

	return nil
}

func (r *Record) Clone() Record {
	return Record{
		Id: r.Id,

		Address: r.Address,
		Mint:    r.Mint,
		Owner:   r.Owner,

		Amount: r.Amount,

		CreatedAt: r.CreatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id

	dst.Address = r.Address
	dst.Mint = r.Mint
	dst.Owner = r.Owner

	dst.Amount = r.Amount

	dst.CreatedAt = r.CreatedAt
}
