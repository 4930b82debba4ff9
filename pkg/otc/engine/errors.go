package engine

import "github.com/pkg/errors"

var (
	// ErrInvalidParameters indicates a zero or out-of-range input.
	ErrInvalidParameters = errors.New("invalid parameters")

	// ErrUnauthorized indicates the caller is not the required authority for
	// the operation or a supplied account.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidListingStatus indicates the operation is not valid in the
	// listing's current lifecycle state.
	ErrInvalidListingStatus = errors.New("invalid listing status")

	// ErrMissingFeeProof indicates the x402 fee payment method was selected
	// without a proof payload.
	ErrMissingFeeProof = errors.New("missing fee payment proof")

	// ErrInvalidFeeProof indicates the supplied fee payment proof failed
	// verification.
	ErrInvalidFeeProof = errors.New("invalid fee payment proof")

	// ErrInsufficientBalance indicates the paying account lacks funds.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrExceedsAvailable indicates a purchase larger than the remaining
	// listing quantity.
	ErrExceedsAvailable = errors.New("purchase exceeds available quantity")

	// ErrPartialFillNotAllowed indicates a partial purchase against a listing
	// that requires buying the entire remainder.
	ErrPartialFillNotAllowed = errors.New("partial fill not allowed")

	// ErrAccountAlreadyInitialized indicates the listing account identity is
	// already in use.
	ErrAccountAlreadyInitialized = errors.New("account already initialized")

	// ErrListingNotFound indicates no listing exists at the given address.
	ErrListingNotFound = errors.New("listing not found")

	// ErrMintMismatch indicates a supplied token account is not for the mint
	// the listing requires.
	ErrMintMismatch = errors.New("token account mint mismatch")

	// ErrAmountOverflow indicates an amount computation exceeds the uint64
	// range.
	ErrAmountOverflow = errors.New("amount overflow")
)
