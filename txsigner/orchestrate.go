package txsigner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/txweave/txweave/internal/eventbus"
	"github.com/txweave/txweave/internal/events"
	"github.com/txweave/txweave/tx"
)

// Options control a signing pass.
type Options struct {
	// RequireAll fails the pass unless every required signature is present
	// afterwards.
	RequireAll bool
}

// Option mutates Options.
type Option func(*Options)

// RequireFullSignatures makes the pass fail with *MissingSignaturesError
// when the merged artifact lacks a required signature.
func RequireFullSignatures() Option {
	return func(o *Options) { o.RequireAll = true }
}

// SignTransaction runs one signing pass over t with the given parties and
// returns a new artifact carrying the merged signatures. The input
// transaction is never mutated. An empty signer set is a no-op pass.
//
// Modifying parties run first, one at a time in resolution order, each
// receiving the artifact produced by its predecessor. Partial parties then
// sign the final artifact concurrently. Every party contributes exactly one
// signature, recorded under its own address. A send-capable party is
// classified but never invoked here; use SignAndSendTransaction to submit.
func SignTransaction(ctx context.Context, t *tx.Transaction, signers []tx.Signer, opts ...Option) (*tx.Transaction, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	deduped, err := DedupeSigners(signers)
	if err != nil {
		return nil, err
	}
	roles, err := ResolveRoles(deduped, false)
	if err != nil {
		return nil, err
	}
	out, err := runSigningPass(ctx, t, roles)
	if err != nil {
		return nil, err
	}
	if o.RequireAll {
		if err := AssertFullySigned(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SignAndSendTransaction runs a signing pass that ends with submission: the
// resolved sending party receives the merged artifact and its confirmation
// signature is returned. Resolution fails when no party can send.
func SignAndSendTransaction(ctx context.Context, t *tx.Transaction, signers []tx.Signer, opts ...Option) (tx.Signature, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	deduped, err := DedupeSigners(signers)
	if err != nil {
		return tx.Signature{}, err
	}
	roles, err := ResolveRoles(deduped, true)
	if err != nil {
		return tx.Signature{}, err
	}
	out, err := runSigningPass(ctx, t, roles)
	if err != nil {
		return tx.Signature{}, err
	}
	if o.RequireAll {
		// The sending party signs its own slot during submission, so
		// only other parties' signatures can be missing at this point.
		var missing []tx.Address
		for _, addr := range out.MissingSigners() {
			if addr != roles.Sending.Address() {
				missing = append(missing, addr)
			}
		}
		if len(missing) > 0 {
			return tx.Signature{}, &MissingSignaturesError{Addresses: missing}
		}
	}
	if err := ctx.Err(); err != nil {
		return tx.Signature{}, err
	}
	return roles.Sending.(SendingSigner).SignAndSendTransaction(ctx, out)
}

// AssertFullySigned returns a *MissingSignaturesError naming every required
// address that has not signed t.
func AssertFullySigned(t *tx.Transaction) error {
	if missing := t.MissingSigners(); len(missing) > 0 {
		return &MissingSignaturesError{Addresses: missing}
	}
	return nil
}

// runSigningPass drives the resolved roles over the artifact: sequential
// modifying phase, then concurrent partial phase, then one merge. The
// cancellation signal is honored between sequential steps and before the
// parallel launch; a started signer always runs to completion.
func runSigningPass(ctx context.Context, t *tx.Transaction, roles Roles) (*tx.Transaction, error) {
	start := time.Now()
	eventbus.Publish(ctx, events.SignStart{Parties: roles.Count()})

	working := t
	collected := make(map[tx.Address]tx.Signature)
	var err error

	for _, s := range roles.Modifying {
		if err = ctx.Err(); err != nil {
			break
		}
		var replaced *tx.Transaction
		var sig tx.Signature
		replaced, sig, err = s.(ModifyingSigner).ModifyAndSignTransaction(ctx, working)
		if err != nil {
			err = fmt.Errorf("txsigner: modifying signer %s: %w", s.Address().Short(), err)
			break
		}
		if replaced != nil {
			working = replaced
		}
		if !sig.IsZero() {
			collected[s.Address()] = sig
		}
	}

	if err == nil && len(roles.Partial) > 0 {
		if err = ctx.Err(); err == nil {
			sigs := make([]tx.Signature, len(roles.Partial))
			errs := make([]error, len(roles.Partial))
			var wg sync.WaitGroup
			for i, s := range roles.Partial {
				wg.Add(1)
				go func() {
					defer wg.Done()
					sigs[i], errs[i] = s.(PartialSigner).SignTransaction(ctx, working)
				}()
			}
			wg.Wait()
			for i, e := range errs {
				if e != nil {
					errs[i] = fmt.Errorf("txsigner: partial signer %s: %w", roles.Partial[i].Address().Short(), e)
				}
			}
			if err = errors.Join(errs...); err == nil {
				for i, s := range roles.Partial {
					collected[s.Address()] = sigs[i]
				}
			}
		}
	}

	var out *tx.Transaction
	if err == nil {
		out = working.Clone()
		for addr, sig := range collected {
			out.SetSignature(addr, sig)
		}
	}
	eventbus.Publish(ctx, events.SignFinish{Parties: roles.Count(), Err: err, Duration: time.Since(start)})
	if err != nil {
		return nil, err
	}
	return out, nil
}
