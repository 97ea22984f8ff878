package txsigner

import (
	"context"
	"sync"

	"github.com/txweave/txweave/tx"
)

// recorder captures signer activity across goroutines so tests can assert
// on phase ordering.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) note(s string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recorder) log() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// partialFake signs partially and nothing else.
type partialFake struct {
	addr tx.Address
	rec  *recorder
	sig  tx.Signature
	err  error
}

func (f *partialFake) Address() tx.Address { return f.addr }

func (f *partialFake) SignTransaction(ctx context.Context, t *tx.Transaction) (tx.Signature, error) {
	f.rec.note("partial:" + string(f.addr))
	if f.err != nil {
		return tx.Signature{}, f.err
	}
	return f.sig, nil
}

// modifyFake can only modify-and-sign.
type modifyFake struct {
	addr   tx.Address
	rec    *recorder
	sig    tx.Signature
	mutate func(*tx.Transaction) *tx.Transaction
	err    error
}

func (f *modifyFake) Address() tx.Address { return f.addr }

func (f *modifyFake) ModifyAndSignTransaction(ctx context.Context, t *tx.Transaction) (*tx.Transaction, tx.Signature, error) {
	f.rec.note("modify:" + string(f.addr))
	if f.err != nil {
		return nil, tx.Signature{}, f.err
	}
	out := t
	if f.mutate != nil {
		out = f.mutate(t)
	}
	return out, f.sig, nil
}

// flexFake can both modify and sign partially.
type flexFake struct {
	addr tx.Address
	rec  *recorder
	sig  tx.Signature
}

func (f *flexFake) Address() tx.Address { return f.addr }

func (f *flexFake) SignTransaction(ctx context.Context, t *tx.Transaction) (tx.Signature, error) {
	f.rec.note("partial:" + string(f.addr))
	return f.sig, nil
}

func (f *flexFake) ModifyAndSignTransaction(ctx context.Context, t *tx.Transaction) (*tx.Transaction, tx.Signature, error) {
	f.rec.note("modify:" + string(f.addr))
	return t, f.sig, nil
}

// sendFake can only send.
type sendFake struct {
	addr tx.Address
	rec  *recorder
	conf tx.Signature
	err  error
	sent *tx.Transaction
}

func (f *sendFake) Address() tx.Address { return f.addr }

func (f *sendFake) SignAndSendTransaction(ctx context.Context, t *tx.Transaction) (tx.Signature, error) {
	f.rec.note("send:" + string(f.addr))
	f.sent = t
	if f.err != nil {
		return tx.Signature{}, f.err
	}
	return f.conf, nil
}

// sendPartialFake can send or sign partially.
type sendPartialFake struct {
	addr tx.Address
	rec  *recorder
	sig  tx.Signature
	conf tx.Signature
	sent *tx.Transaction
}

func (f *sendPartialFake) Address() tx.Address { return f.addr }

func (f *sendPartialFake) SignTransaction(ctx context.Context, t *tx.Transaction) (tx.Signature, error) {
	f.rec.note("partial:" + string(f.addr))
	return f.sig, nil
}

func (f *sendPartialFake) SignAndSendTransaction(ctx context.Context, t *tx.Transaction) (tx.Signature, error) {
	f.rec.note("send:" + string(f.addr))
	f.sent = t
	return f.conf, nil
}

// inertFake exposes an address and no capability.
type inertFake struct {
	addr tx.Address
}

func (f *inertFake) Address() tx.Address { return f.addr }

func sigOf(b byte) tx.Signature {
	var s tx.Signature
	s[0] = b
	return s
}

func testArtifact() *tx.Transaction {
	m := tx.NewMessage("payer")
	m.AddInstruction(tx.Instruction{
		Program: "prog",
		Accounts: []tx.AccountMeta{
			{Address: "payer", Flags: tx.FlagSigner | tx.FlagWritable},
		},
	})
	t, err := tx.Compile(m)
	if err != nil {
		panic(err)
	}
	return t
}
