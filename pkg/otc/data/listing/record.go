package listing

import (
	"bytes"
	"time"

	"github.com/pkg/errors"

	"github.com/code-payments/otc-server/pkg/otc/common"
	"github.com/code-payments/otc-server/pkg/otc/program"
)

// Record is the durable state for one listing. It is the DB-side projection of
// the on-ledger listing account, keyed by the listing account address.
type Record struct {
	Id uint64

	Address string

	Seller         string
	BaseMint       string
	QuoteMint      string
	VaultAuthority string

	PricePerToken uint64
	Quantity      uint64
	Filled        uint64
	ListingID     uint64

	Flags        uint8
	VaultBump    uint8
	Status       program.ListingStatus
	BaseDecimals uint8

	FeePaymentMethod program.FeePaymentMethod
	FeeAmountPaid    uint64
	X402PayloadHash  []byte

	CreatedAt time.Time
}

// AllowPartial returns whether fills smaller than the remaining quantity are
// permitted.
func (r *Record) AllowPartial() bool {
	return r.Flags&program.FlagAllowPartial != 0
}

// Remaining returns the base token quantity still available for purchase.
func (r *Record) Remaining() uint64 {
	if r.Filled > r.Quantity {
		return 0
	}
	return r.Quantity - r.Filled
}

func (r *Record) Validate() error {
	if len(r.Address) == 0 {
		return errors.New("address is required")
	}

	if len(r.Seller) == 0 {
		return errors.New("seller is required")
	}

	if len(r.BaseMint) == 0 {
		return errors.New("base mint is required")
	}

	if len(r.QuoteMint) == 0 {
		return errors.New("quote mint is required")
	}

	if len(r.VaultAuthority) == 0 {
		return errors.New("vault authority is required")
	}

	if r.PricePerToken == 0 {
		return errors.New("price per token must be positive")
	}

	if r.Quantity == 0 {
		return errors.New("quantity must be positive")
	}

	if r.Filled > r.Quantity {
		return errors.New("filled cannot exceed quantity")
	}

	if r.Status > program.ListingStatusCancelled {
		return errors.New("invalid status")
	}

	switch r.FeePaymentMethod {
	case program.FeePaymentMethodNative:
	case program.FeePaymentMethodX402:
		if len(r.X402PayloadHash) != 32 || bytes.Equal(r.X402PayloadHash, make([]byte, 32)) {
			return errors.New("x402 payload hash is required for x402 fee payments")
		}
	default:
		return errors.New("invalid fee payment method")
	}

	if len(r.X402PayloadHash) != 0 && len(r.X402PayloadHash) != 32 {
		return errors.New("x402 payload hash must be 32 bytes")
	}

	return nil
}

func (r *Record) Clone() Record {
	return Record{
		Id: r.Id,

		Address: r.Address,

		Seller:         r.Seller,
		BaseMint:       r.BaseMint,
		QuoteMint:      r.QuoteMint,
		VaultAuthority: r.VaultAuthority,

		PricePerToken: r.PricePerToken,
		Quantity:      r.Quantity,
		Filled:        r.Filled,
		ListingID:     r.ListingID,

		Flags:        r.Flags,
		VaultBump:    r.VaultBump,
		Status:       r.Status,
		BaseDecimals: r.BaseDecimals,

		FeePaymentMethod: r.FeePaymentMethod,
		FeeAmountPaid:    r.FeeAmountPaid,
		X402PayloadHash:  bytes.Clone(r.X402PayloadHash),

		CreatedAt: r.CreatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id

	dst.Address = r.Address

	dst.Seller = r.Seller
	dst.BaseMint = r.BaseMint
	dst.QuoteMint = r.QuoteMint
	dst.VaultAuthority = r.VaultAuthority

	dst.PricePerToken = r.PricePerToken
	dst.Quantity = r.Quantity
	dst.Filled = r.Filled
	dst.ListingID = r.ListingID

	dst.Flags = r.Flags
	dst.VaultBump = r.VaultBump
	dst.Status = r.Status
	dst.BaseDecimals = r.BaseDecimals

	dst.FeePaymentMethod = r.FeePaymentMethod
	dst.FeeAmountPaid = r.FeeAmountPaid
	dst.X402PayloadHash = bytes.Clone(r.X402PayloadHash)

	dst.CreatedAt = r.CreatedAt
}

// ToState converts the record to the packed on-ledger account state.
func (r *Record) ToState() (*program.Listing, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	seller, err := common.NewKeyFromString(r.Seller)
	if err != nil {
		return nil, errors.Wrap(err, "invalid seller")
	}

	baseMint, err := common.NewKeyFromString(r.BaseMint)
	if err != nil {
		return nil, errors.Wrap(err, "invalid base mint")
	}

	quoteMint, err := common.NewKeyFromString(r.QuoteMint)
	if err != nil {
		return nil, errors.Wrap(err, "invalid quote mint")
	}

	vaultAuthority, err := common.NewKeyFromString(r.VaultAuthority)
	if err != nil {
		return nil, errors.Wrap(err, "invalid vault authority")
	}

	state := &program.Listing{
		Seller:         seller.ToPublicKey(),
		BaseMint:       baseMint.ToPublicKey(),
		QuoteMint:      quoteMint.ToPublicKey(),
		VaultAuthority: vaultAuthority.ToPublicKey(),

		PricePerToken: r.PricePerToken,
		Quantity:      r.Quantity,
		Filled:        r.Filled,
		ListingID:     r.ListingID,

		Flags:        r.Flags,
		VaultBump:    r.VaultBump,
		Status:       r.Status,
		BaseDecimals: r.BaseDecimals,

		FeePaymentMethod: r.FeePaymentMethod,
		FeeAmountPaid:    r.FeeAmountPaid,
	}
	copy(state.X402PayloadHash[:], r.X402PayloadHash)

	return state, nil
}

// NewRecordFromState constructs a record from packed on-ledger account state.
func NewRecordFromState(address *common.Key, state *program.Listing) (*Record, error) {
	if err := address.Validate(); err != nil {
		return nil, err
	}

	seller, err := common.NewKeyFromBytes(state.Seller)
	if err != nil {
		return nil, errors.Wrap(err, "invalid seller")
	}

	baseMint, err := common.NewKeyFromBytes(state.BaseMint)
	if err != nil {
		return nil, errors.Wrap(err, "invalid base mint")
	}

	quoteMint, err := common.NewKeyFromBytes(state.QuoteMint)
	if err != nil {
		return nil, errors.Wrap(err, "invalid quote mint")
	}

	vaultAuthority, err := common.NewKeyFromBytes(state.VaultAuthority)
	if err != nil {
		return nil, errors.Wrap(err, "invalid vault authority")
	}

	record := &Record{
		Address: address.ToBase58(),

		Seller:         seller.ToBase58(),
		BaseMint:       baseMint.ToBase58(),
		QuoteMint:      quoteMint.ToBase58(),
		VaultAuthority: vaultAuthority.ToBase58(),

		PricePerToken: state.PricePerToken,
		Quantity:      state.Quantity,
		Filled:        state.Filled,
		ListingID:     state.ListingID,

		Flags:        state.Flags,
		VaultBump:    state.VaultBump,
		Status:       state.Status,
		BaseDecimals: state.BaseDecimals,

		FeePaymentMethod: state.FeePaymentMethod,
		FeeAmountPaid:    state.FeeAmountPaid,
		X402PayloadHash:  bytes.Clone(state.X402PayloadHash[:]),
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}
	return record, nil
}
