package planfile

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/txweave/txweave/tx"
	"github.com/txweave/txweave/txplan"
	"github.com/txweave/txweave/txsigner"
)

// Well-known program addresses the leaf operations encode against.
const (
	ProgramTransfer tx.Address = "prog.transfer.v1"
	ProgramMemo     tx.Address = "prog.memo.v1"
)

// Keyring derives the named keypairs declared under signers.
func (f *File) Keyring() (map[string]*txsigner.Keypair, error) {
	ring := make(map[string]*txsigner.Keypair, len(f.Signers))
	for name, spec := range f.Signers {
		seed, err := hex.DecodeString(spec.Seed)
		if err != nil {
			return nil, fmt.Errorf("planfile: signer %q: seed is not hex: %w", name, err)
		}
		kp, err := txsigner.KeypairFromSeed(seed)
		if err != nil {
			return nil, fmt.Errorf("planfile: signer %q: %w", name, err)
		}
		ring[name] = kp
	}
	return ring, nil
}

// Addresses maps each keyring name to its derived address.
func (f *File) Addresses() (map[string]tx.Address, error) {
	ring, err := f.Keyring()
	if err != nil {
		return nil, err
	}
	out := make(map[string]tx.Address, len(ring))
	for name, kp := range ring {
		out[name] = kp.Address()
	}
	return out, nil
}

// BuildPlan turns the declared tree into an executable plan. Every leaf
// message carries its required keypairs as attached signers, so the plan is
// ready for a signing executor once an anchor is stamped.
func (f *File) BuildPlan() (txplan.Node, error) {
	ring, err := f.Keyring()
	if err != nil {
		return nil, err
	}
	b := &planBuilder{file: f, ring: ring}
	plan, err := b.node(f.Plan)
	if err != nil {
		return nil, err
	}
	if err := txplan.Validate(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// StampAnchor applies a fetched recency anchor to every message in plan.
func StampAnchor(plan txplan.Node, anchor tx.Anchor) {
	for _, m := range txplan.Messages(plan) {
		m.SetAnchor(anchor)
	}
}

type planBuilder struct {
	file *File
	ring map[string]*txsigner.Keypair
}

func (b *planBuilder) node(spec *NodeSpec) (txplan.Node, error) {
	if spec == nil {
		return nil, fmt.Errorf("planfile: empty plan node")
	}
	set := 0
	if spec.Sequential != nil {
		set++
	}
	if spec.Parallel != nil {
		set++
	}
	if spec.Transfer != nil {
		set++
	}
	if spec.Memo != nil {
		set++
	}
	if set != 1 {
		return nil, fmt.Errorf("planfile: plan node must set exactly one of sequential, parallel, transfer, memo")
	}

	switch {
	case spec.Sequential != nil:
		children, err := b.steps(spec.Sequential.Steps)
		if err != nil {
			return nil, err
		}
		if spec.Sequential.Divisible == nil || *spec.Sequential.Divisible {
			return txplan.NewSequential(children...), nil
		}
		return txplan.NewNonDivisibleSequential(children...), nil
	case spec.Parallel != nil:
		children, err := b.steps(spec.Parallel.Steps)
		if err != nil {
			return nil, err
		}
		return txplan.NewParallel(children...), nil
	case spec.Transfer != nil:
		return b.transfer(spec.Transfer)
	default:
		return b.memo(spec.Memo)
	}
}

func (b *planBuilder) steps(specs []*NodeSpec) ([]txplan.Node, error) {
	children := make([]txplan.Node, len(specs))
	for i, s := range specs {
		c, err := b.node(s)
		if err != nil {
			return nil, err
		}
		children[i] = c
	}
	return children, nil
}

func (b *planBuilder) transfer(spec *TransferSpec) (txplan.Node, error) {
	from, err := b.keypair(spec.From)
	if err != nil {
		return nil, err
	}
	to, err := b.address(spec.To)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, spec.Amount)

	m, err := b.message(from)
	if err != nil {
		return nil, err
	}
	m.AddInstruction(tx.Instruction{
		Program: ProgramTransfer,
		Accounts: []tx.AccountMeta{
			{Address: from.Address(), Flags: tx.FlagSigner | tx.FlagWritable},
			{Address: to, Flags: tx.FlagWritable},
		},
		Data: data,
	})
	m.AttachSigner(from)
	return txplan.NewSingle(m), nil
}

func (b *planBuilder) memo(spec *MemoSpec) (txplan.Node, error) {
	signer, err := b.keypair(spec.Signer)
	if err != nil {
		return nil, err
	}

	m, err := b.message(signer)
	if err != nil {
		return nil, err
	}
	m.AddInstruction(tx.Instruction{
		Program: ProgramMemo,
		Accounts: []tx.AccountMeta{
			{Address: signer.Address(), Flags: tx.FlagSigner},
		},
		Data: []byte(spec.Text),
	})
	m.AttachSigner(signer)
	return txplan.NewSingle(m), nil
}

// message starts a leaf message paid for by the default payer, falling back
// to the operation's own signer, and attaches the paying keypair.
func (b *planBuilder) message(fallback *txsigner.Keypair) (*tx.Message, error) {
	payer := fallback
	if b.file.Defaults.Payer != "" {
		kp, err := b.keypair(b.file.Defaults.Payer)
		if err != nil {
			return nil, err
		}
		payer = kp
	}
	m := tx.NewMessage(payer.Address())
	m.AttachSigner(payer)
	return m, nil
}

func (b *planBuilder) keypair(name string) (*txsigner.Keypair, error) {
	if name == "" {
		return nil, fmt.Errorf("planfile: operation is missing a signer name")
	}
	kp, ok := b.ring[name]
	if !ok {
		return nil, fmt.Errorf("planfile: unknown signer %q", name)
	}
	return kp, nil
}

// address resolves a keyring name, or passes a literal address through.
func (b *planBuilder) address(s string) (tx.Address, error) {
	if s == "" {
		return "", fmt.Errorf("planfile: operation is missing a destination")
	}
	if kp, ok := b.ring[s]; ok {
		return kp.Address(), nil
	}
	return tx.Address(s), nil
}
