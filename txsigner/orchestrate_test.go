package txsigner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/txweave/txweave/tx"
)

func TestSignTransactionMergesOneSignaturePerParty(t *testing.T) {
	rec := &recorder{}
	mod := &modifyFake{addr: "mod", rec: rec, sig: sigOf(1), mutate: func(in *tx.Transaction) *tx.Transaction {
		out := in.Clone()
		out.Payload = append(out.Payload, 0xEE)
		return out
	}}
	p1 := &partialFake{addr: "p1", rec: rec, sig: sigOf(2)}
	p2 := &partialFake{addr: "p2", rec: rec, sig: sigOf(3)}

	in := testArtifact()
	out, err := SignTransaction(context.Background(), in, []tx.Signer{p1, mod, p2})
	require.NoError(t, err)

	require.Len(t, out.Signatures, 3)
	for addr, want := range map[tx.Address]tx.Signature{"mod": sigOf(1), "p1": sigOf(2), "p2": sigOf(3)} {
		got, ok := out.SignatureOf(addr)
		require.True(t, ok, "missing signature for %s", addr)
		require.Equal(t, want, got)
	}
	// The partial signers signed the artifact the modifier produced.
	require.Equal(t, byte(0xEE), out.Payload[len(out.Payload)-1])
}

func TestSignTransactionModifyingPhaseRunsFirst(t *testing.T) {
	rec := &recorder{}
	m1 := &modifyFake{addr: "m1", rec: rec, sig: sigOf(1)}
	m2 := &modifyFake{addr: "m2", rec: rec, sig: sigOf(2)}
	p1 := &partialFake{addr: "p1", rec: rec, sig: sigOf(3)}
	p2 := &partialFake{addr: "p2", rec: rec, sig: sigOf(4)}

	_, err := SignTransaction(context.Background(), testArtifact(), []tx.Signer{p1, m1, p2, m2})
	require.NoError(t, err)

	log := rec.log()
	require.Len(t, log, 4)
	// Sequential phase in input order, then the concurrent phase in any
	// order.
	require.Equal(t, []string{"modify:m1", "modify:m2"}, log[:2])
	require.ElementsMatch(t, []string{"partial:p1", "partial:p2"}, log[2:])
}

func TestSignTransactionEmptySignerSet(t *testing.T) {
	in := testArtifact()
	out, err := SignTransaction(context.Background(), in, nil)
	require.NoError(t, err)
	require.NotSame(t, in, out)
	require.Empty(t, out.Signatures)
}

func TestSignTransactionDoesNotMutateInput(t *testing.T) {
	in := testArtifact()
	_, err := SignTransaction(context.Background(), in, []tx.Signer{
		&partialFake{addr: "p", sig: sigOf(9)},
	})
	require.NoError(t, err)
	require.Empty(t, in.Signatures)
}

func TestSignTransactionPartialFailureNamesSigner(t *testing.T) {
	boom := errors.New("hsm unavailable")
	_, err := SignTransaction(context.Background(), testArtifact(), []tx.Signer{
		&partialFake{addr: "good", sig: sigOf(1)},
		&partialFake{addr: "bad", err: boom},
	})
	require.ErrorIs(t, err, boom)
	require.ErrorContains(t, err, "bad")
}

func TestSignTransactionModifyingFailureStopsPass(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("rejected")
	_, err := SignTransaction(context.Background(), testArtifact(), []tx.Signer{
		&modifyFake{addr: "m1", rec: rec, err: boom},
		&partialFake{addr: "p1", rec: rec, sig: sigOf(1)},
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, []string{"modify:m1"}, rec.log())
}

func TestSignTransactionRequireFullSignatures(t *testing.T) {
	// The test artifact requires "payer", which nobody here signs for.
	_, err := SignTransaction(context.Background(), testArtifact(),
		[]tx.Signer{&partialFake{addr: "other", sig: sigOf(1)}},
		RequireFullSignatures())
	var missing *MissingSignaturesError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, []tx.Address{"payer"}, missing.Addresses)
}

func TestSignTransactionHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &recorder{}
	_, err := SignTransaction(ctx, testArtifact(), []tx.Signer{
		&modifyFake{addr: "m", rec: rec, sig: sigOf(1)},
		&partialFake{addr: "p", rec: rec, sig: sigOf(2)},
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, rec.log())
}

func TestSignAndSendTransactionDeliversMergedArtifact(t *testing.T) {
	rec := &recorder{}
	sender := &sendFake{addr: "sender", rec: rec, conf: sigOf(42)}
	p := &partialFake{addr: "p", rec: rec, sig: sigOf(7)}

	conf, err := SignAndSendTransaction(context.Background(), testArtifact(), []tx.Signer{p, sender})
	require.NoError(t, err)
	require.Equal(t, sigOf(42), conf)

	require.NotNil(t, sender.sent)
	got, ok := sender.sent.SignatureOf("p")
	require.True(t, ok)
	require.Equal(t, sigOf(7), got)

	log := rec.log()
	require.Equal(t, "send:sender", log[len(log)-1])
}

func TestSignAndSendTransactionNeedsSender(t *testing.T) {
	_, err := SignAndSendTransaction(context.Background(), testArtifact(), []tx.Signer{
		&partialFake{addr: "p", sig: sigOf(1)},
	})
	require.ErrorIs(t, err, ErrNoSendingSigner)
}

func TestSignAndSendRequireFullToleratesSenderSlot(t *testing.T) {
	// "payer" is required; the sending party IS payer and will sign
	// during submission, so the pre-send check must not reject.
	sender := &sendPartialFake{addr: "payer", sig: sigOf(1), conf: sigOf(2)}
	_, err := SignAndSendTransaction(context.Background(), testArtifact(),
		[]tx.Signer{sender}, RequireFullSignatures())
	require.NoError(t, err)
}

func TestSignAndSendRequireFullStillRejectsOthers(t *testing.T) {
	m := tx.NewMessage("payer")
	m.AddInstruction(tx.Instruction{
		Program: "prog",
		Accounts: []tx.AccountMeta{
			{Address: "payer", Flags: tx.FlagSigner},
			{Address: "absent", Flags: tx.FlagSigner},
		},
	})
	artifact, err := tx.Compile(m)
	require.NoError(t, err)

	sender := &sendPartialFake{addr: "payer", sig: sigOf(1), conf: sigOf(2)}
	_, err = SignAndSendTransaction(context.Background(), artifact,
		[]tx.Signer{sender}, RequireFullSignatures())
	var missing *MissingSignaturesError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, []tx.Address{"absent"}, missing.Addresses)
}
