// Package program is the Go binding for the OTC escrow program. It defines the
// on-ledger listing account layout, the instruction encoding, and the custody
// authority derivations. The settlement engine in pkg/otc/engine executes the
// program semantics against the server's data layer.
package program

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/code-payments/otc-server/pkg/solana"
)

// ProgramKey is the address of the OTC escrow program.
//
// Current key: 8DbZKwhFKq1Zi7HGSKfs6AsqS5CLWNCPZkQFuMKsntVt
var ProgramKey = ed25519.PublicKey{107, 59, 218, 49, 156, 80, 33, 180, 25, 202, 144, 145, 130, 111, 0, 60, 147, 200, 240, 121, 86, 216, 118, 204, 117, 29, 129, 235, 36, 173, 31, 31}

// TokenProgramKey is the address of the token program holding all asset balances.
//
// Current key: TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA
var TokenProgramKey = ed25519.PublicKey{6, 221, 246, 225, 215, 101, 161, 147, 217, 203, 225, 70, 206, 235, 121, 172, 28, 180, 133, 237, 95, 91, 55, 145, 58, 140, 245, 133, 126, 255, 0, 169}

// AssociatedTokenAccountProgramKey is the address of the associated token
// account program used to derive vault token accounts.
//
// Current key: ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL
var AssociatedTokenAccountProgramKey = ed25519.PublicKey{140, 151, 37, 143, 78, 36, 137, 241, 187, 61, 16, 41, 20, 142, 13, 131, 11, 90, 19, 153, 218, 255, 16, 132, 4, 142, 123, 216, 219, 233, 248, 89}

// vaultAuthoritySeed domain-separates vault authority derivations from any
// other authority derived under the program.
var vaultAuthoritySeed = []byte("vault")

// GetVaultAuthority derives the custody authority for a listing. The authority
// is a program address with no corresponding private key; the program proves
// control by resupplying the same seeds plus the returned bump.
//
// Derivation is a pure function of (seller, listingID): two independent callers
// always obtain the same result.
func GetVaultAuthority(seller ed25519.PublicKey, listingID uint64) (ed25519.PublicKey, uint8, error) {
	listingIDBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(listingIDBytes, listingID)

	return solana.FindProgramAddressAndBump(
		ProgramKey,
		vaultAuthoritySeed,
		seller,
		listingIDBytes,
	)
}

// VerifyVaultAuthority recomputes the vault authority derivation with the
// provided bump and compares against the expected address. Callers must never
// trust a supplied authority value without this check.
func VerifyVaultAuthority(seller, expected ed25519.PublicKey, listingID uint64, bump uint8) bool {
	listingIDBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(listingIDBytes, listingID)

	derived, err := solana.CreateProgramAddress(
		ProgramKey,
		vaultAuthoritySeed,
		seller,
		listingIDBytes,
		[]byte{bump},
	)
	if err != nil {
		return false
	}

	return string(derived) == string(expected)
}

// GetVaultTokenAccount returns the associated token account address holding
// the vault's base asset balance for a listing.
//
// Reference: https://spl.solana.com/associated-token-account#finding-the-associated-token-account-address
func GetVaultTokenAccount(vaultAuthority, mint ed25519.PublicKey) (ed25519.PublicKey, error) {
	return solana.FindProgramAddress(
		AssociatedTokenAccountProgramKey,
		vaultAuthority,
		TokenProgramKey,
		mint,
	)
}
