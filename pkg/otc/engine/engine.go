// Package engine implements the escrow settlement state machine. The four
// operations validate every precondition before the first mutation and apply
// their ledger movements and listing update as one atomic unit of work.
package engine

import (
	"context"
	"database/sql"
	"math/bits"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/otc-server/pkg/otc/common"
	"github.com/code-payments/otc-server/pkg/otc/data"
	"github.com/code-payments/otc-server/pkg/otc/data/listing"
	"github.com/code-payments/otc-server/pkg/otc/data/mint"
	"github.com/code-payments/otc-server/pkg/otc/data/tokenaccount"
	"github.com/code-payments/otc-server/pkg/otc/fee"
	"github.com/code-payments/otc-server/pkg/otc/program"
	"github.com/code-payments/otc-server/pkg/otc/vault"
	sync_util "github.com/code-payments/otc-server/pkg/sync"
)

// Engine executes listing lifecycle operations against the data layer.
//
// The hosting DB serializes conflicting writers, but operations validate
// preconditions before entering a transaction, so a striped lock per listing
// keeps concurrent callers from racing between validation and mutation.
type Engine struct {
	log       *logrus.Entry
	conf      *conf
	data      data.DatabaseData
	custodian *vault.Custodian
	verifier  fee.ProofVerifier

	listingLocks *sync_util.StripedLock
}

func New(data data.DatabaseData, verifier fee.ProofVerifier, configProvider ConfigProvider) *Engine {
	conf := configProvider()

	return &Engine{
		log:       logrus.StandardLogger().WithField("type", "otc/engine"),
		conf:      conf,
		data:      data,
		custodian: vault.NewCustodian(data),
		verifier:  verifier,

		listingLocks: sync_util.NewStripedLock(uint(conf.listingLockCount.Get(context.Background()))),
	}
}

// InitializeListingArgs are the caller-supplied inputs for InitializeListing.
// Address identifies the listing account being created.
type InitializeListingArgs struct {
	Address *common.Key
	Seller  *common.Key

	BaseMint  *common.Key
	QuoteMint *common.Key

	ListingID     uint64
	PricePerToken uint64
	Quantity      uint64
	AllowPartial  bool

	FeePaymentMethod program.FeePaymentMethod
	FeeProof         []byte
}

// InitializeListing creates a listing in the AwaitingDeposit state with its
// derived custody authority and recorded fee payment.
func (e *Engine) InitializeListing(ctx context.Context, args *InitializeListingArgs) (*listing.Record, error) {
	log := e.log.WithFields(logrus.Fields{
		"method":  "InitializeListing",
		"listing": args.Address.ToBase58(),
	})

	if args.PricePerToken == 0 || args.Quantity == 0 {
		return nil, ErrInvalidParameters
	}

	switch args.FeePaymentMethod {
	case program.FeePaymentMethodNative:
		if len(args.FeeProof) > 0 {
			return nil, ErrInvalidParameters
		}
	case program.FeePaymentMethodX402:
		if len(args.FeeProof) == 0 {
			return nil, ErrMissingFeeProof
		}
		if uint64(len(args.FeeProof)) > e.conf.maxProofPayloadSize.Get(ctx) {
			return nil, ErrInvalidParameters
		}
	default:
		return nil, ErrInvalidParameters
	}

	baseMintRecord, err := e.data.GetMint(ctx, args.BaseMint.ToBase58())
	if err == mint.ErrMintNotFound {
		return nil, ErrInvalidParameters
	} else if err != nil {
		log.WithError(err).Warn("failure getting base mint record")
		return nil, err
	}

	feeAmount, err := fee.ComputeListingFee(args.PricePerToken, args.Quantity)
	if err != nil {
		return nil, ErrAmountOverflow
	}

	var proofHash []byte
	if args.FeePaymentMethod == program.FeePaymentMethodX402 {
		if err := e.verifier.Verify(ctx, args.FeeProof, feeAmount); err != nil {
			return nil, ErrInvalidFeeProof
		}

		hash := fee.HashProofPayload(args.FeeProof)
		proofHash = hash[:]
	}

	vaultAuthority, vaultBump, err := vault.DeriveAuthority(args.Seller, args.ListingID)
	if err != nil {
		log.WithError(err).Warn("failure deriving vault authority")
		return nil, err
	}

	var flags uint8
	if args.AllowPartial {
		flags |= program.FlagAllowPartial
	}

	record := &listing.Record{
		Address: args.Address.ToBase58(),

		Seller:         args.Seller.ToBase58(),
		BaseMint:       args.BaseMint.ToBase58(),
		QuoteMint:      args.QuoteMint.ToBase58(),
		VaultAuthority: vaultAuthority.ToBase58(),

		PricePerToken: args.PricePerToken,
		Quantity:      args.Quantity,
		ListingID:     args.ListingID,

		Flags:        flags,
		VaultBump:    vaultBump,
		Status:       program.ListingStatusAwaitingDeposit,
		BaseDecimals: baseMintRecord.Decimals,

		FeePaymentMethod: args.FeePaymentMethod,
		FeeAmountPaid:    feeAmount,
		X402PayloadHash:  proofHash,
	}

	err = e.data.CreateListing(ctx, record)
	if err == listing.ErrListingAlreadyExists {
		return nil, ErrAccountAlreadyInitialized
	} else if err != nil {
		log.WithError(err).Warn("failure creating listing record")
		return nil, err
	}

	return record, nil
}

// DepositTokens moves the listing's full quantity from the seller's token
// account into the vault and activates the listing. The transfer is one shot;
// there is no incremental deposit.
func (e *Engine) DepositTokens(ctx context.Context, caller *common.Key, listingAddress, source string) error {
	log := e.log.WithFields(logrus.Fields{
		"method":  "DepositTokens",
		"listing": listingAddress,
	})

	lock := e.listingLocks.Get([]byte(listingAddress))
	lock.Lock()
	defer lock.Unlock()

	record, err := e.getListing(ctx, listingAddress)
	if err != nil {
		return err
	}

	if record.Seller != caller.ToBase58() {
		return ErrUnauthorized
	}

	if record.Status != program.ListingStatusAwaitingDeposit {
		return ErrInvalidListingStatus
	}

	sourceAccount, err := e.getTokenAccount(ctx, source)
	if err != nil {
		return err
	}

	if sourceAccount.Owner != record.Seller {
		return ErrUnauthorized
	}
	if sourceAccount.Mint != record.BaseMint {
		return ErrMintMismatch
	}
	if sourceAccount.Amount < record.Quantity {
		return ErrInsufficientBalance
	}

	// Token movements execute at serializable isolation, so the scoped tx
	// must be opened at the same level for the store calls to join it.
	err = e.data.ExecuteInTx(ctx, sql.LevelSerializable, func(ctx context.Context) error {
		if err := e.custodian.Deposit(ctx, record, source, record.Quantity); err != nil {
			return err
		}

		record.Status = program.ListingStatusActive
		return e.data.UpdateListing(ctx, record)
	})
	if err != nil {
		log.WithError(err).Warn("failure depositing tokens")
		return e.mapLedgerError(err)
	}

	return nil
}

// PurchaseArgs are the caller-supplied inputs for Purchase. The buyer pays
// from QuoteSource, receives into BaseDestination, and the seller is paid
// into QuoteDestination.
type PurchaseArgs struct {
	Buyer *common.Key

	QuoteSource      string
	BaseDestination  string
	QuoteDestination string

	RequestedAmount uint64
}

// Purchase executes one atomic swap against an active listing: the buyer's
// quote payment and the vault's base release apply together or not at all.
func (e *Engine) Purchase(ctx context.Context, listingAddress string, args *PurchaseArgs) error {
	log := e.log.WithFields(logrus.Fields{
		"method":  "Purchase",
		"listing": listingAddress,
	})

	if args.RequestedAmount == 0 {
		return ErrInvalidParameters
	}

	lock := e.listingLocks.Get([]byte(listingAddress))
	lock.Lock()
	defer lock.Unlock()

	record, err := e.getListing(ctx, listingAddress)
	if err != nil {
		return err
	}

	if record.Status != program.ListingStatusActive {
		return ErrInvalidListingStatus
	}

	remaining := record.Remaining()
	if args.RequestedAmount > remaining {
		return ErrExceedsAvailable
	}
	if !record.AllowPartial() && args.RequestedAmount != remaining {
		return ErrPartialFillNotAllowed
	}

	hi, quoteAmount := bits.Mul64(record.PricePerToken, args.RequestedAmount)
	if hi != 0 {
		return ErrAmountOverflow
	}

	quoteSource, err := e.getTokenAccount(ctx, args.QuoteSource)
	if err != nil {
		return err
	}
	if quoteSource.Owner != args.Buyer.ToBase58() {
		return ErrUnauthorized
	}
	if quoteSource.Mint != record.QuoteMint {
		return ErrMintMismatch
	}
	if quoteSource.Amount < quoteAmount {
		return ErrInsufficientBalance
	}

	baseDestination, err := e.getTokenAccount(ctx, args.BaseDestination)
	if err != nil {
		return err
	}
	if baseDestination.Owner != args.Buyer.ToBase58() {
		return ErrUnauthorized
	}
	if baseDestination.Mint != record.BaseMint {
		return ErrMintMismatch
	}

	quoteDestination, err := e.getTokenAccount(ctx, args.QuoteDestination)
	if err != nil {
		return err
	}
	if quoteDestination.Owner != record.Seller {
		return ErrUnauthorized
	}
	if quoteDestination.Mint != record.QuoteMint {
		return ErrMintMismatch
	}

	err = e.data.ExecuteInTx(ctx, sql.LevelSerializable, func(ctx context.Context) error {
		if err := e.data.TransferTokens(ctx, args.QuoteSource, args.QuoteDestination, quoteAmount); err != nil {
			return err
		}

		if err := e.custodian.Release(ctx, record, args.BaseDestination, args.RequestedAmount); err != nil {
			return err
		}

		record.Filled += args.RequestedAmount
		if record.Filled == record.Quantity {
			record.Status = program.ListingStatusCompleted
		}
		return e.data.UpdateListing(ctx, record)
	})
	if err != nil {
		log.WithError(err).Warn("failure executing purchase")
		return e.mapLedgerError(err)
	}

	return nil
}

// CancelListing cancels a non-terminal listing. An active listing's remaining
// vault balance is returned to the seller's token account; a listing still
// awaiting deposit cancels without touching the ledger at all.
func (e *Engine) CancelListing(ctx context.Context, caller *common.Key, listingAddress, baseDestination string) error {
	log := e.log.WithFields(logrus.Fields{
		"method":  "CancelListing",
		"listing": listingAddress,
	})

	lock := e.listingLocks.Get([]byte(listingAddress))
	lock.Lock()
	defer lock.Unlock()

	record, err := e.getListing(ctx, listingAddress)
	if err != nil {
		return err
	}

	if record.Seller != caller.ToBase58() {
		return ErrUnauthorized
	}

	if record.Status.IsTerminal() {
		return ErrInvalidListingStatus
	}

	if record.Status == program.ListingStatusAwaitingDeposit {
		record.Status = program.ListingStatusCancelled
		return e.data.UpdateListing(ctx, record)
	}

	destination, err := e.getTokenAccount(ctx, baseDestination)
	if err != nil {
		return err
	}
	if destination.Owner != record.Seller {
		return ErrUnauthorized
	}
	if destination.Mint != record.BaseMint {
		return ErrMintMismatch
	}

	err = e.data.ExecuteInTx(ctx, sql.LevelSerializable, func(ctx context.Context) error {
		if err := e.custodian.Release(ctx, record, baseDestination, record.Remaining()); err != nil {
			return err
		}

		record.Status = program.ListingStatusCancelled
		return e.data.UpdateListing(ctx, record)
	})
	if err != nil {
		log.WithError(err).Warn("failure cancelling listing")
		return e.mapLedgerError(err)
	}

	return nil
}

// ExecuteInstruction decodes one wire-encoded operation request and executes
// it against the listing at listingAddress. Accounts holds the operation's
// account inputs; unused fields may be left zero valued.
func (e *Engine) ExecuteInstruction(ctx context.Context, listingAddress string, accounts *InstructionAccounts, instructionData []byte) error {
	decoded, err := program.UnmarshalInstruction(instructionData)
	if err != nil {
		return ErrInvalidParameters
	}

	switch decoded.Command {
	case program.CommandInitializeListing:
		address, err := common.NewKeyFromString(listingAddress)
		if err != nil {
			return ErrInvalidParameters
		}

		_, err = e.InitializeListing(ctx, &InitializeListingArgs{
			Address: address,
			Seller:  accounts.Caller,

			BaseMint:  accounts.BaseMint,
			QuoteMint: accounts.QuoteMint,

			ListingID:     decoded.InitializeListing.ListingID,
			PricePerToken: decoded.InitializeListing.PricePerToken,
			Quantity:      decoded.InitializeListing.Quantity,
			AllowPartial:  decoded.InitializeListing.AllowPartial,

			FeePaymentMethod: decoded.InitializeListing.FeePaymentMethod,
			FeeProof:         decoded.InitializeListing.X402Payload,
		})
		return err
	case program.CommandDepositTokens:
		return e.DepositTokens(ctx, accounts.Caller, listingAddress, accounts.Source)
	case program.CommandPurchase:
		return e.Purchase(ctx, listingAddress, &PurchaseArgs{
			Buyer: accounts.Caller,

			QuoteSource:      accounts.Source,
			BaseDestination:  accounts.Destination,
			QuoteDestination: accounts.SellerQuoteDestination,

			RequestedAmount: decoded.Purchase.RequestedAmount,
		})
	case program.CommandCancelListing:
		return e.CancelListing(ctx, accounts.Caller, listingAddress, accounts.Destination)
	default:
		return ErrInvalidParameters
	}
}

// InstructionAccounts are the account inputs accompanying a wire-encoded
// operation request.
type InstructionAccounts struct {
	Caller *common.Key

	BaseMint  *common.Key
	QuoteMint *common.Key

	Source                 string
	Destination            string
	SellerQuoteDestination string
}

func (e *Engine) getListing(ctx context.Context, address string) (*listing.Record, error) {
	record, err := e.data.GetListingByAddress(ctx, address)
	if err == listing.ErrListingNotFound {
		return nil, ErrListingNotFound
	} else if err != nil {
		e.log.WithError(err).Warn("failure getting listing record")
		return nil, err
	}
	return record, nil
}

func (e *Engine) getTokenAccount(ctx context.Context, address string) (*tokenaccount.Record, error) {
	if len(address) == 0 {
		return nil, ErrInvalidParameters
	}

	record, err := e.data.GetTokenAccount(ctx, address)
	if err == tokenaccount.ErrTokenAccountNotFound {
		return nil, ErrInvalidParameters
	} else if err != nil {
		e.log.WithError(err).Warn("failure getting token account record")
		return nil, err
	}
	return record, nil
}

// mapLedgerError translates ledger failures raced in after validation into
// the operation error taxonomy.
func (e *Engine) mapLedgerError(err error) error {
	switch errors.Cause(err) {
	case tokenaccount.ErrInsufficientBalance:
		return ErrInsufficientBalance
	case tokenaccount.ErrBalanceOverflow:
		return ErrAmountOverflow
	case vault.ErrInvalidVaultAuthority:
		return ErrUnauthorized
	default:
		return err
	}
}
