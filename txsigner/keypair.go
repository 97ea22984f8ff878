package txsigner

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/txweave/txweave/tx"
)

// AddressFromPublicKey derives the ledger address of an ed25519 public key.
func AddressFromPublicKey(pub ed25519.PublicKey) tx.Address {
	return tx.Address(hex.EncodeToString(pub))
}

// Keypair is an in-memory ed25519 signing party. It signs without altering
// the artifact, so it participates in the concurrent partial phase.
type Keypair struct {
	priv ed25519.PrivateKey
	addr tx.Address
}

var _ PartialSigner = (*Keypair)(nil)

// GenerateKeypair creates a keypair from the system entropy source.
func GenerateKeypair() (*Keypair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("txsigner: generate keypair: %w", err)
	}
	return &Keypair{priv: priv, addr: AddressFromPublicKey(priv.Public().(ed25519.PublicKey))}, nil
}

// KeypairFromSeed derives a keypair from a 32-byte seed. The same seed
// always yields the same address.
func KeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("txsigner: seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &Keypair{priv: priv, addr: AddressFromPublicKey(priv.Public().(ed25519.PublicKey))}, nil
}

// Seed returns the 32-byte seed the keypair can be rebuilt from.
func (k *Keypair) Seed() []byte { return k.priv.Seed() }

func (k *Keypair) Address() tx.Address { return k.addr }

// SignTransaction signs the compiled payload.
func (k *Keypair) SignTransaction(ctx context.Context, t *tx.Transaction) (tx.Signature, error) {
	return tx.SignatureFromBytes(ed25519.Sign(k.priv, t.Payload))
}

// Verify reports whether sig is k's signature over payload.
func (k *Keypair) Verify(payload []byte, sig tx.Signature) bool {
	return ed25519.Verify(k.priv.Public().(ed25519.PublicKey), payload, sig.Bytes())
}

// Submitter submits a finished transaction to the ledger and returns its
// confirmation signature.
type Submitter interface {
	SubmitTransaction(ctx context.Context, t *tx.Transaction) (tx.Signature, error)
}

// SendingKeypair couples a keypair with a submitter. It still signs
// partially like any keypair, and when resolved as the sending party it
// fills its own slot before handing the artifact to the submitter.
type SendingKeypair struct {
	*Keypair
	sub Submitter
}

var _ SendingSigner = (*SendingKeypair)(nil)
var _ PartialSigner = (*SendingKeypair)(nil)

// NewSendingKeypair wraps kp so it can submit through sub.
func NewSendingKeypair(kp *Keypair, sub Submitter) *SendingKeypair {
	return &SendingKeypair{Keypair: kp, sub: sub}
}

// SignAndSendTransaction signs the keypair's own slot on a clone of t and
// submits the result.
func (k *SendingKeypair) SignAndSendTransaction(ctx context.Context, t *tx.Transaction) (tx.Signature, error) {
	sig, err := k.SignTransaction(ctx, t)
	if err != nil {
		return tx.Signature{}, err
	}
	out := t.Clone()
	out.SetSignature(k.Address(), sig)
	return k.sub.SubmitTransaction(ctx, out)
}
