package txsigner

import (
	"fmt"
	"strings"

	"github.com/txweave/txweave/tx"
)

// DedupeSigners collapses repeated signer values, preserving first-seen
// order. Two distinct values claiming the same address cannot be reconciled
// and produce a *DuplicateSignerError. Nil entries are dropped.
func DedupeSigners(signers []tx.Signer) ([]tx.Signer, error) {
	byAddr := make(map[tx.Address]tx.Signer, len(signers))
	out := make([]tx.Signer, 0, len(signers))
	for _, s := range signers {
		if s == nil {
			continue
		}
		addr := s.Address()
		if have, ok := byAddr[addr]; ok {
			if have == s {
				continue
			}
			return nil, &DuplicateSignerError{Address: addr}
		}
		byAddr[addr] = s
		out = append(out, s)
	}
	return out, nil
}

// ResolveRoles classifies each party into exactly one signing role.
//
// The submitter is chosen first: among send-capable parties, a party that
// can ONLY send is preferred, because any other role would waste it. Two
// dedicated senders cannot be reconciled. When no dedicated sender exists
// the first send-capable party in input order submits. requireSending makes
// the absence of any send-capable party an error; identification itself
// does not depend on it.
//
// Of the remaining parties, every modify-only party must run in the
// modifying phase. When none exists but some party could modify, exactly
// one (the first) does, so a flexible party is not forced into a redundant
// sequential pass. Everything else signs partially. A party with no
// capability at all is rejected.
func ResolveRoles(signers []tx.Signer, requireSending bool) (Roles, error) {
	var roles Roles

	var sendCapable, sendOnly []tx.Signer
	for _, s := range signers {
		if _, ok := s.(SendingSigner); !ok {
			continue
		}
		sendCapable = append(sendCapable, s)
		_, canPartial := s.(PartialSigner)
		_, canModify := s.(ModifyingSigner)
		if !canPartial && !canModify {
			sendOnly = append(sendOnly, s)
		}
	}
	switch {
	case len(sendOnly) > 1:
		return Roles{}, fmt.Errorf("%w: %s", ErrMultipleSendingSigners, joinAddresses(sendOnly))
	case len(sendOnly) == 1:
		roles.Sending = sendOnly[0]
	case len(sendCapable) > 0:
		roles.Sending = sendCapable[0]
	case requireSending:
		return Roles{}, ErrNoSendingSigner
	}

	var modifyOnly, modifyCapable []tx.Signer
	rest := make([]tx.Signer, 0, len(signers))
	for _, s := range signers {
		if s == roles.Sending {
			continue
		}
		rest = append(rest, s)
		if _, ok := s.(ModifyingSigner); !ok {
			continue
		}
		modifyCapable = append(modifyCapable, s)
		if _, ok := s.(PartialSigner); !ok {
			modifyOnly = append(modifyOnly, s)
		}
	}
	switch {
	case len(modifyOnly) > 0:
		roles.Modifying = modifyOnly
	case len(modifyCapable) > 0:
		roles.Modifying = modifyCapable[:1]
	}

	assigned := make(map[tx.Signer]struct{}, len(roles.Modifying))
	for _, s := range roles.Modifying {
		assigned[s] = struct{}{}
	}
	for _, s := range rest {
		if _, ok := assigned[s]; ok {
			continue
		}
		if _, ok := s.(PartialSigner); ok {
			roles.Partial = append(roles.Partial, s)
			continue
		}
		// Not partial, not assigned modifying, not the submitter: the
		// party has no usable capability.
		return Roles{}, &UnusableSignerError{Address: s.Address()}
	}
	return roles, nil
}

func joinAddresses(signers []tx.Signer) string {
	parts := make([]string, len(signers))
	for i, s := range signers {
		parts[i] = s.Address().Short()
	}
	return strings.Join(parts, ", ")
}
