package program

import (
	"crypto/ed25519"

	"github.com/code-payments/otc-server/pkg/solana/binary"
)

type ListingStatus uint8

const (
	// Listing metadata has been initialized, tokens not yet deposited.
	ListingStatusAwaitingDeposit ListingStatus = iota
	// Listing is live and can be purchased.
	ListingStatusActive
	// Listing has been completely filled.
	ListingStatusCompleted
	// Listing was cancelled by the seller.
	ListingStatusCancelled
)

func (s ListingStatus) String() string {
	switch s {
	case ListingStatusAwaitingDeposit:
		return "awaiting_deposit"
	case ListingStatusActive:
		return "active"
	case ListingStatusCompleted:
		return "completed"
	case ListingStatusCancelled:
		return "cancelled"
	}
	return "unknown"
}

// IsTerminal returns whether the status permits no further transitions.
func (s ListingStatus) IsTerminal() bool {
	return s == ListingStatusCompleted || s == ListingStatusCancelled
}

type FeePaymentMethod uint8

const (
	// Listing fee paid in the native currency.
	FeePaymentMethodNative FeePaymentMethod = iota
	// Listing fee paid via the x402 micropayment protocol, evidenced by a
	// proof payload committed as a digest.
	FeePaymentMethodX402
)

func (m FeePaymentMethod) String() string {
	switch m {
	case FeePaymentMethodNative:
		return "native"
	case FeePaymentMethodX402:
		return "x402"
	}
	return "unknown"
}

// FlagAllowPartial marks a listing as fillable in increments smaller than the
// remaining quantity.
const FlagAllowPartial = uint8(0x01)

// ListingAccountSize is the fixed serialized size of a listing account.
//
// seller + base_mint + quote_mint + vault_authority (4 * 32)
// price_per_token + quantity + filled + listing_id + fee_amount_paid (5 * 8)
// flags + vault_bump + status + base_decimals + fee_payment_method (5 * 1)
// x402_payload_hash (32)
const ListingAccountSize = 205

// Listing is the on-ledger listing account state.
type Listing struct {
	Seller         ed25519.PublicKey
	BaseMint       ed25519.PublicKey
	QuoteMint      ed25519.PublicKey
	VaultAuthority ed25519.PublicKey

	PricePerToken uint64
	Quantity      uint64
	Filled        uint64
	ListingID     uint64

	Flags        uint8
	VaultBump    uint8
	Status       ListingStatus
	BaseDecimals uint8

	FeePaymentMethod FeePaymentMethod
	FeeAmountPaid    uint64
	X402PayloadHash  [32]byte
}

// AllowPartial returns whether fills smaller than the remaining quantity are
// permitted.
func (l *Listing) AllowPartial() bool {
	return l.Flags&FlagAllowPartial != 0
}

// Remaining returns the base token quantity still available for purchase.
func (l *Listing) Remaining() uint64 {
	if l.Filled > l.Quantity {
		return 0
	}
	return l.Quantity - l.Filled
}

func (l *Listing) Marshal() []byte {
	b := make([]byte, ListingAccountSize)

	var offset int
	binary.PutKey32(b, l.Seller, &offset)
	binary.PutKey32(b[offset:], l.BaseMint, &offset)
	binary.PutKey32(b[offset:], l.QuoteMint, &offset)
	binary.PutKey32(b[offset:], l.VaultAuthority, &offset)
	binary.PutUint64(b[offset:], l.PricePerToken, &offset)
	binary.PutUint64(b[offset:], l.Quantity, &offset)
	binary.PutUint64(b[offset:], l.Filled, &offset)
	binary.PutUint64(b[offset:], l.ListingID, &offset)
	binary.PutUint8(b[offset:], l.Flags, &offset)
	binary.PutUint8(b[offset:], l.VaultBump, &offset)
	binary.PutUint8(b[offset:], uint8(l.Status), &offset)
	binary.PutUint8(b[offset:], l.BaseDecimals, &offset)
	binary.PutUint8(b[offset:], uint8(l.FeePaymentMethod), &offset)
	binary.PutUint64(b[offset:], l.FeeAmountPaid, &offset)
	copy(b[offset:], l.X402PayloadHash[:])

	return b
}

func (l *Listing) Unmarshal(b []byte) bool {
	if len(b) != ListingAccountSize {
		return false
	}

	var offset int
	binary.GetKey32(b, &l.Seller, &offset)
	binary.GetKey32(b[offset:], &l.BaseMint, &offset)
	binary.GetKey32(b[offset:], &l.QuoteMint, &offset)
	binary.GetKey32(b[offset:], &l.VaultAuthority, &offset)
	binary.GetUint64(b[offset:], &l.PricePerToken, &offset)
	binary.GetUint64(b[offset:], &l.Quantity, &offset)
	binary.GetUint64(b[offset:], &l.Filled, &offset)
	binary.GetUint64(b[offset:], &l.ListingID, &offset)

	var status, method uint8
	binary.GetUint8(b[offset:], &l.Flags, &offset)
	binary.GetUint8(b[offset:], &l.VaultBump, &offset)
	binary.GetUint8(b[offset:], &status, &offset)
	binary.GetUint8(b[offset:], &l.BaseDecimals, &offset)
	binary.GetUint8(b[offset:], &method, &offset)
	l.Status = ListingStatus(status)
	l.FeePaymentMethod = FeePaymentMethod(method)

	binary.GetUint64(b[offset:], &l.FeeAmountPaid, &offset)
	copy(l.X402PayloadHash[:], b[offset:])

	return true
}
