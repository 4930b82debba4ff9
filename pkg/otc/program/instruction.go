package program

import (
	"github.com/pkg/errors"

	"github.com/code-payments/otc-server/pkg/solana/binary"
)

// Command is the instruction discriminant.
type Command byte

const (
	CommandInitializeListing Command = iota
	CommandDepositTokens
	CommandPurchase
	CommandCancelListing
)

var (
	ErrInvalidInstructionData = errors.New("invalid instruction data")
)

// InitializeListingInstructionData is the payload for CommandInitializeListing.
type InitializeListingInstructionData struct {
	ListingID        uint64
	PricePerToken    uint64
	Quantity         uint64
	AllowPartial     bool
	FeePaymentMethod FeePaymentMethod

	// X402Payload is an optional proof payload, required iff the fee payment
	// method is FeePaymentMethodX402.
	X402Payload []byte
}

// PurchaseInstructionData is the payload for CommandPurchase.
type PurchaseInstructionData struct {
	RequestedAmount uint64
}

// Instruction is a decoded operation request. Exactly one of the payload
// fields is set, selected by Command. DepositTokens and CancelListing carry
// no payload.
type Instruction struct {
	Command Command

	InitializeListing *InitializeListingInstructionData
	Purchase          *PurchaseInstructionData
}

func (d *InitializeListingInstructionData) Marshal() []byte {
	size := 1 + 8 + 8 + 8 + 1 + 1 + 1
	if d.X402Payload != nil {
		size += 4 + len(d.X402Payload)
	}

	b := make([]byte, size)

	var offset int
	binary.PutUint8(b, byte(CommandInitializeListing), &offset)
	binary.PutUint64(b[offset:], d.ListingID, &offset)
	binary.PutUint64(b[offset:], d.PricePerToken, &offset)
	binary.PutUint64(b[offset:], d.Quantity, &offset)

	var allowPartial uint8
	if d.AllowPartial {
		allowPartial = 1
	}
	binary.PutUint8(b[offset:], allowPartial, &offset)
	binary.PutUint8(b[offset:], uint8(d.FeePaymentMethod), &offset)

	if d.X402Payload != nil {
		binary.PutUint8(b[offset:], 1, &offset)
		binary.PutUint32(b[offset:], uint32(len(d.X402Payload)), &offset)
		copy(b[offset:], d.X402Payload)
	} else {
		binary.PutUint8(b[offset:], 0, &offset)
	}

	return b
}

func (d *PurchaseInstructionData) Marshal() []byte {
	b := make([]byte, 1+8)

	var offset int
	binary.PutUint8(b, byte(CommandPurchase), &offset)
	binary.PutUint64(b[offset:], d.RequestedAmount, &offset)

	return b
}

// MarshalDepositTokens encodes a DepositTokens request.
func MarshalDepositTokens() []byte {
	return []byte{byte(CommandDepositTokens)}
}

// MarshalCancelListing encodes a CancelListing request.
func MarshalCancelListing() []byte {
	return []byte{byte(CommandCancelListing)}
}

// UnmarshalInstruction decodes an operation request. Truncated payloads,
// trailing bytes, and unknown discriminants are all rejected with
// ErrInvalidInstructionData.
func UnmarshalInstruction(b []byte) (*Instruction, error) {
	if len(b) == 0 {
		return nil, ErrInvalidInstructionData
	}

	command := Command(b[0])
	payload := b[1:]

	switch command {
	case CommandInitializeListing:
		data, err := unmarshalInitializeListing(payload)
		if err != nil {
			return nil, err
		}
		return &Instruction{Command: command, InitializeListing: data}, nil
	case CommandDepositTokens, CommandCancelListing:
		if len(payload) != 0 {
			return nil, ErrInvalidInstructionData
		}
		return &Instruction{Command: command}, nil
	case CommandPurchase:
		if len(payload) != 8 {
			return nil, ErrInvalidInstructionData
		}

		var data PurchaseInstructionData
		var offset int
		binary.GetUint64(payload, &data.RequestedAmount, &offset)

		return &Instruction{Command: command, Purchase: &data}, nil
	}

	return nil, ErrInvalidInstructionData
}

func unmarshalInitializeListing(b []byte) (*InitializeListingInstructionData, error) {
	// listing_id + price_per_token + quantity + allow_partial +
	// fee_payment_method + proof presence byte
	const fixedSize = 8 + 8 + 8 + 1 + 1 + 1
	if len(b) < fixedSize {
		return nil, ErrInvalidInstructionData
	}

	var data InitializeListingInstructionData
	var offset int
	binary.GetUint64(b, &data.ListingID, &offset)
	binary.GetUint64(b[offset:], &data.PricePerToken, &offset)
	binary.GetUint64(b[offset:], &data.Quantity, &offset)

	var allowPartial, method, hasPayload uint8
	binary.GetUint8(b[offset:], &allowPartial, &offset)
	binary.GetUint8(b[offset:], &method, &offset)
	binary.GetUint8(b[offset:], &hasPayload, &offset)

	if allowPartial > 1 || hasPayload > 1 {
		return nil, ErrInvalidInstructionData
	}
	data.AllowPartial = allowPartial == 1
	data.FeePaymentMethod = FeePaymentMethod(method)

	if hasPayload == 0 {
		if len(b) != fixedSize {
			return nil, ErrInvalidInstructionData
		}
		return &data, nil
	}

	if len(b) < fixedSize+4 {
		return nil, ErrInvalidInstructionData
	}

	var payloadLen uint32
	binary.GetUint32(b[offset:], &payloadLen, &offset)
	if len(b) != fixedSize+4+int(payloadLen) {
		return nil, ErrInvalidInstructionData
	}

	data.X402Payload = make([]byte, payloadLen)
	copy(data.X402Payload, b[offset:])

	return &data, nil
}
