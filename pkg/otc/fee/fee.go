package fee

import (
	"context"
	"crypto/sha256"
	"math/bits"

	"github.com/pkg/errors"
)

// ListingFeeBps is the platform fee charged on a listing's gross notional
// value, in basis points.
const ListingFeeBps = 100 // 1%

var (
	ErrFeeOverflow = errors.New("listing fee exceeds uint64 range")

	ErrInvalidProof = errors.New("invalid fee payment proof")
)

// ComputeListingFee returns the platform fee owed for a listing priced at
// pricePerToken quote units per base unit, selling quantity base units. The
// gross notional is computed with a 128-bit intermediate so listings near the
// uint64 boundary still settle correctly. The fee itself must fit in a uint64.
func ComputeListingFee(pricePerToken, quantity uint64) (uint64, error) {
	hi, lo := bits.Mul64(pricePerToken, quantity)

	// (hi, lo) / 100 overflows a uint64 quotient iff hi >= 100
	if hi >= 100 {
		return 0, ErrFeeOverflow
	}

	quotient, _ := bits.Div64(hi, lo, 100)
	return quotient, nil
}

// HashProofPayload returns the digest under which an x402 settlement proof is
// recorded on the listing.
func HashProofPayload(payload []byte) [32]byte {
	return sha256.Sum256(payload)
}

// ProofVerifier validates an x402 settlement proof against the fee amount the
// proof is expected to cover.
type ProofVerifier interface {
	Verify(ctx context.Context, payload []byte, expectedAmount uint64) error
}

type insecureAcceptAll struct{}

// NewInsecureAcceptAllVerifier returns a ProofVerifier that accepts any
// non-empty payload without inspecting it. It exists for local development
// and tests only. Production deployments must supply a verifier that checks
// the proof against the settlement network.
func NewInsecureAcceptAllVerifier() ProofVerifier {
	return &insecureAcceptAll{}
}

func (v *insecureAcceptAll) Verify(_ context.Context, payload []byte, _ uint64) error {
	if len(payload) == 0 {
		return ErrInvalidProof
	}
	return nil
}
