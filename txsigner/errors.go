package txsigner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/txweave/txweave/tx"
)

var (
	// ErrMultipleSendingSigners is returned when two or more parties can
	// only send; a transaction is submitted exactly once.
	ErrMultipleSendingSigners = errors.New("txsigner: multiple dedicated sending signers")

	// ErrNoSendingSigner is returned when a pass that must submit finds no
	// send-capable party.
	ErrNoSendingSigner = errors.New("txsigner: sending signer required but absent")
)

// DuplicateSignerError reports two distinct signer values claiming the same
// address.
type DuplicateSignerError struct {
	Address tx.Address
}

func (e *DuplicateSignerError) Error() string {
	return fmt.Sprintf("txsigner: address %s is claimed by multiple distinct signers", e.Address.Short())
}

// UnusableSignerError reports a party that implements none of the signing
// capabilities.
type UnusableSignerError struct {
	Address tx.Address
}

func (e *UnusableSignerError) Error() string {
	return fmt.Sprintf("txsigner: signer %s has no usable signing capability", e.Address.Short())
}

// MissingSignaturesError reports required signatures that are still absent
// after a signing pass.
type MissingSignaturesError struct {
	Addresses []tx.Address
}

func (e *MissingSignaturesError) Error() string {
	parts := make([]string, len(e.Addresses))
	for i, a := range e.Addresses {
		parts[i] = a.Short()
	}
	return fmt.Sprintf("txsigner: transaction is missing signatures from %s", strings.Join(parts, ", "))
}
