package tx

import (
	"encoding/hex"
	"fmt"
)

// Address identifies a party or an account on the ledger.
type Address string

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool { return a == "" }

// Short returns an abbreviated form for log and error output.
func (a Address) Short() string {
	if len(a) <= 12 {
		return string(a)
	}
	return string(a[:6]) + ".." + string(a[len(a)-4:])
}

// Signature is a 64-byte detached signature. The ledger identifies a
// submitted transaction by its first signature, so the same type doubles as
// a confirmation identifier.
type Signature [64]byte

// SignatureFromBytes copies b into a Signature.
func SignatureFromBytes(b []byte) (Signature, error) {
	var s Signature
	if len(b) != len(s) {
		return s, fmt.Errorf("tx: signature must be %d bytes, got %d", len(s), len(b))
	}
	copy(s[:], b)
	return s, nil
}

// IsZero reports whether the signature is all zero bytes.
func (s Signature) IsZero() bool { return s == Signature{} }

// Bytes returns the signature as a fresh byte slice.
func (s Signature) Bytes() []byte {
	b := make([]byte, len(s))
	copy(b, s[:])
	return b
}

func (s Signature) String() string { return hex.EncodeToString(s[:]) }

// Anchor pins a message to a recent ledger position. Submissions carrying a
// stale anchor are rejected by the ledger.
type Anchor [32]byte

// AnchorFromBytes copies b into an Anchor.
func AnchorFromBytes(b []byte) (Anchor, error) {
	var a Anchor
	if len(b) != len(a) {
		return a, fmt.Errorf("tx: anchor must be %d bytes, got %d", len(a), len(b))
	}
	copy(a[:], b)
	return a, nil
}

// IsZero reports whether the anchor is all zero bytes.
func (a Anchor) IsZero() bool { return a == Anchor{} }

func (a Anchor) String() string { return hex.EncodeToString(a[:]) }

// AccountFlags declares how an instruction touches an account.
type AccountFlags uint8

const (
	FlagSigner AccountFlags = 1 << iota
	FlagWritable
)

// Signer reports whether the account must sign the transaction.
func (f AccountFlags) Signer() bool { return f&FlagSigner != 0 }

// Writable reports whether the instruction may mutate the account.
func (f AccountFlags) Writable() bool { return f&FlagWritable != 0 }

// AccountMeta is one account reference inside an instruction.
type AccountMeta struct {
	Address Address
	Flags   AccountFlags
}

// Instruction is a single program invocation inside a message.
type Instruction struct {
	Program  Address
	Accounts []AccountMeta
	Data     []byte
}
