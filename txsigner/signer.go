package txsigner

import (
	"context"

	"github.com/txweave/txweave/tx"
)

// PartialSigner produces its own signature for a transaction without
// altering the artifact. Partial signers may run concurrently with each
// other because none of them can invalidate a peer's work.
type PartialSigner interface {
	tx.Signer
	SignTransaction(ctx context.Context, t *tx.Transaction) (tx.Signature, error)
}

// ModifyingSigner may replace the artifact before signing it, invalidating
// any signatures gathered so far. Modifying signers therefore run alone,
// one at a time, before every partial signer. The returned signature may be
// zero when the signer only modified.
type ModifyingSigner interface {
	tx.Signer
	ModifyAndSignTransaction(ctx context.Context, t *tx.Transaction) (*tx.Transaction, tx.Signature, error)
}

// SendingSigner owns submission: it receives the fully assembled artifact,
// signs its own slot if it has one, and sends. The returned signature is
// the network confirmation identifier. At most one party per transaction
// holds this role.
type SendingSigner interface {
	tx.Signer
	SignAndSendTransaction(ctx context.Context, t *tx.Transaction) (tx.Signature, error)
}

// Role is the execution role a party is assigned for one signing pass.
type Role string

const (
	RolePartial   Role = "PARTIAL"
	RoleModifying Role = "MODIFYING"
	RoleSending   Role = "SENDING"
)

// Roles is the outcome of role resolution. Every input party lands in
// exactly one slot; the union of the slots is the input set.
type Roles struct {
	Sending   tx.Signer   // nil when no send-capable party exists
	Modifying []tx.Signer // run sequentially, in this order
	Partial   []tx.Signer // run concurrently against the final artifact
}

// Count returns the number of classified parties.
func (r Roles) Count() int {
	n := len(r.Modifying) + len(r.Partial)
	if r.Sending != nil {
		n++
	}
	return n
}

// Of returns the role assigned to addr.
func (r Roles) Of(addr tx.Address) (Role, bool) {
	if r.Sending != nil && r.Sending.Address() == addr {
		return RoleSending, true
	}
	for _, s := range r.Modifying {
		if s.Address() == addr {
			return RoleModifying, true
		}
	}
	for _, s := range r.Partial {
		if s.Address() == addr {
			return RolePartial, true
		}
	}
	return "", false
}
