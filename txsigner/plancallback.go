package txsigner

import (
	"context"

	"github.com/txweave/txweave/tx"
	"github.com/txweave/txweave/txplan"
)

// Confirmer waits until the ledger acknowledges a submitted transaction.
type Confirmer interface {
	WaitForConfirmation(ctx context.Context, sig tx.Signature) error
}

// CallbackOptions control the unit executor built by PlanCallback.
type CallbackOptions struct {
	// Confirmer, when set, gates each unit on ledger acknowledgement.
	Confirmer Confirmer
}

// CallbackOption mutates CallbackOptions.
type CallbackOption func(*CallbackOptions)

// WithConfirmer makes every unit wait for ledger acknowledgement before it
// counts as successful.
func WithConfirmer(c Confirmer) CallbackOption {
	return func(o *CallbackOptions) { o.Confirmer = c }
}

// PlanCallback builds the per-unit executor a plan run needs: compile the
// message, gather a signature from every attached signer, submit through
// sub, and optionally wait for confirmation. A unit fails unless its
// artifact is fully signed before submission.
func PlanCallback(sub Submitter, opts ...CallbackOption) txplan.UnitExecutor {
	var o CallbackOptions
	for _, opt := range opts {
		opt(&o)
	}
	return func(ctx context.Context, m *tx.Message) (txplan.UnitResult, error) {
		artifact, err := tx.Compile(m)
		if err != nil {
			return txplan.UnitResult{}, err
		}
		signed, err := SignTransaction(ctx, artifact, m.Signers(), RequireFullSignatures())
		if err != nil {
			return txplan.UnitResult{}, err
		}
		conf, err := sub.SubmitTransaction(ctx, signed)
		if err != nil {
			return txplan.UnitResult{}, err
		}
		if o.Confirmer != nil {
			if err := o.Confirmer.WaitForConfirmation(ctx, conf); err != nil {
				return txplan.UnitResult{}, err
			}
		}
		return txplan.UnitResult{Transaction: signed, Confirmation: conf}, nil
	}
}
