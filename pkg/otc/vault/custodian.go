// Package vault derives listing custody authorities and moves base asset
// balances into and out of custody on the token ledger.
package vault

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/otc-server/pkg/otc/common"
	"github.com/code-payments/otc-server/pkg/otc/data"
	"github.com/code-payments/otc-server/pkg/otc/data/listing"
	"github.com/code-payments/otc-server/pkg/otc/data/tokenaccount"
	"github.com/code-payments/otc-server/pkg/otc/program"
)

var (
	// ErrInvalidVaultAuthority indicates a listing's stored vault authority
	// does not match the value derived from (seller, listing_id, bump). Funds
	// must never move under an authority that fails re-derivation.
	ErrInvalidVaultAuthority = errors.New("vault authority failed derivation check")
)

// DeriveAuthority derives the keyless custody authority and bump for a
// seller's listing.
func DeriveAuthority(seller *common.Key, listingID uint64) (*common.Key, uint8, error) {
	address, bump, err := program.GetVaultAuthority(seller.ToPublicKey(), listingID)
	if err != nil {
		return nil, 0, err
	}

	authority, err := common.NewKeyFromBytes(address)
	if err != nil {
		return nil, 0, err
	}
	return authority, bump, nil
}

// GetAssociatedAccount returns the token account address holding a custody
// authority's balance of the provided mint.
func GetAssociatedAccount(authority, mint *common.Key) (*common.Key, error) {
	address, err := program.GetVaultTokenAccount(authority.ToPublicKey(), mint.ToPublicKey())
	if err != nil {
		return nil, err
	}
	return common.NewKeyFromBytes(address)
}

// Custodian moves base asset units between token accounts and the derived
// vault account for a listing. Every movement first re-derives and matches
// the stored authority.
type Custodian struct {
	log  *logrus.Entry
	data data.DatabaseData
}

func NewCustodian(data data.DatabaseData) *Custodian {
	return &Custodian{
		log:  logrus.StandardLogger().WithField("type", "otc/vault/custodian"),
		data: data,
	}
}

// GetVaultAccount verifies the listing's stored authority and returns the
// vault token account address for the listing's base mint.
func (c *Custodian) GetVaultAccount(record *listing.Record) (*common.Key, error) {
	authority, err := c.verifyAuthority(record)
	if err != nil {
		return nil, err
	}

	baseMint, err := common.NewKeyFromString(record.BaseMint)
	if err != nil {
		return nil, errors.Wrap(err, "invalid base mint")
	}

	return GetAssociatedAccount(authority, baseMint)
}

// Deposit moves amount base units from the source token account into the
// listing's vault account, creating the vault token account on first use.
func (c *Custodian) Deposit(ctx context.Context, record *listing.Record, source string, amount uint64) error {
	log := c.log.WithFields(logrus.Fields{
		"method":  "Deposit",
		"listing": record.Address,
	})

	vaultAccount, err := c.GetVaultAccount(record)
	if err != nil {
		log.WithError(err).Warn("failure resolving vault account")
		return err
	}

	_, err = c.data.GetTokenAccount(ctx, vaultAccount.ToBase58())
	switch err {
	case nil:
	case tokenaccount.ErrTokenAccountNotFound:
		err = c.data.CreateTokenAccount(ctx, &tokenaccount.Record{
			Address: vaultAccount.ToBase58(),
			Mint:    record.BaseMint,
			Owner:   record.VaultAuthority,
		})
		if err != nil && err != tokenaccount.ErrTokenAccountAlreadyExists {
			log.WithError(err).Warn("failure creating vault token account")
			return err
		}
	default:
		log.WithError(err).Warn("failure checking vault token account")
		return err
	}

	return c.data.TransferTokens(ctx, source, vaultAccount.ToBase58(), amount)
}

// Release moves amount base units out of the listing's vault account to the
// destination token account.
func (c *Custodian) Release(ctx context.Context, record *listing.Record, destination string, amount uint64) error {
	log := c.log.WithFields(logrus.Fields{
		"method":  "Release",
		"listing": record.Address,
	})

	vaultAccount, err := c.GetVaultAccount(record)
	if err != nil {
		log.WithError(err).Warn("failure resolving vault account")
		return err
	}

	return c.data.TransferTokens(ctx, vaultAccount.ToBase58(), destination, amount)
}

func (c *Custodian) verifyAuthority(record *listing.Record) (*common.Key, error) {
	seller, err := common.NewKeyFromString(record.Seller)
	if err != nil {
		return nil, errors.Wrap(err, "invalid seller")
	}

	authority, err := common.NewKeyFromString(record.VaultAuthority)
	if err != nil {
		return nil, errors.Wrap(err, "invalid vault authority")
	}

	if !program.VerifyVaultAuthority(seller.ToPublicKey(), authority.ToPublicKey(), record.ListingID, record.VaultBump) {
		return nil, ErrInvalidVaultAuthority
	}

	return authority, nil
}
