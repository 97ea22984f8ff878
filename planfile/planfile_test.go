package planfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/txweave/txweave/tx"
	"github.com/txweave/txweave/txplan"
)

const seedA = "0101010101010101010101010101010101010101010101010101010101010101"
const seedB = "0202020202020202020202020202020202020202020202020202020202020202"

const sampleDoc = `
version: 1
signers:
  alice: {seed: "` + seedA + `"}
  bob: {seed: "` + seedB + `"}
defaults:
  payer: alice
plan:
  sequential:
    steps:
      - transfer: {from: alice, to: bob, amount: 100}
      - parallel:
          steps:
            - memo: {text: "first", signer: alice}
            - memo: {text: "second", signer: bob}
`

func writeDoc(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
	return path
}

func TestLoadAssignsBatchID(t *testing.T) {
	f, err := Load(writeDoc(t, sampleDoc))
	require.NoError(t, err)
	_, err = uuid.Parse(f.Batch)
	require.NoError(t, err)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("version: 1\nbogus: true\nplan:\n  memo: {text: x, signer: a}\n"))
	require.Error(t, err)
}

func TestParseRejectsWrongVersion(t *testing.T) {
	_, err := Parse([]byte("version: 2\nplan:\n  memo: {text: x, signer: a}\n"))
	require.ErrorContains(t, err, "unsupported version")
}

func TestParseRejectsMissingPlan(t *testing.T) {
	_, err := Parse([]byte("version: 1\n"))
	require.ErrorContains(t, err, "no plan")
}

func TestParseRejectsBadBatchID(t *testing.T) {
	_, err := Parse([]byte("version: 1\nbatch: not-a-uuid\nplan:\n  memo: {text: x, signer: a}\n"))
	require.ErrorContains(t, err, "batch id")
}

func TestKeyringDerivesStableAddresses(t *testing.T) {
	f, err := Load(writeDoc(t, sampleDoc))
	require.NoError(t, err)

	ring, err := f.Keyring()
	require.NoError(t, err)
	require.Len(t, ring, 2)

	again, err := f.Addresses()
	require.NoError(t, err)
	require.Equal(t, ring["alice"].Address(), again["alice"])
	require.NotEqual(t, again["alice"], again["bob"])
}

func TestKeyringRejectsBadSeed(t *testing.T) {
	f, err := Parse([]byte("version: 1\nsigners:\n  a: {seed: \"zz\"}\nplan:\n  memo: {text: x, signer: a}\n"))
	require.NoError(t, err)
	_, err = f.Keyring()
	require.ErrorContains(t, err, "seed is not hex")

	f, err = Parse([]byte("version: 1\nsigners:\n  a: {seed: \"0102\"}\nplan:\n  memo: {text: x, signer: a}\n"))
	require.NoError(t, err)
	_, err = f.Keyring()
	require.Error(t, err)
}

func TestBuildPlanShape(t *testing.T) {
	f, err := Load(writeDoc(t, sampleDoc))
	require.NoError(t, err)

	plan, err := f.BuildPlan()
	require.NoError(t, err)
	require.Equal(t, 3, txplan.CountLeaves(plan))

	seq, ok := plan.(*txplan.Sequential)
	require.True(t, ok)
	require.True(t, seq.Divisible)
	require.Len(t, seq.Children, 2)

	leaf, ok := seq.Children[0].(*txplan.Single)
	require.True(t, ok)
	par, ok := seq.Children[1].(*txplan.Parallel)
	require.True(t, ok)
	require.Len(t, par.Children, 2)

	// The transfer is paid by the default payer and carries both accounts.
	addrs, err := f.Addresses()
	require.NoError(t, err)
	require.Equal(t, addrs["alice"], leaf.Message.Payer)
	require.Len(t, leaf.Message.Instructions, 1)
	ins := leaf.Message.Instructions[0]
	require.Equal(t, ProgramTransfer, ins.Program)
	require.Equal(t, addrs["alice"], ins.Accounts[0].Address)
	require.Equal(t, addrs["bob"], ins.Accounts[1].Address)
	require.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 100}, ins.Data)

	// Attached signers cover every required signature.
	for _, m := range txplan.Messages(plan) {
		attached := make(map[tx.Address]bool)
		for _, s := range m.Signers() {
			attached[s.Address()] = true
		}
		for _, required := range m.RequiredSigners() {
			require.True(t, attached[required], "missing signer for %s", required.Short())
		}
	}
}

func TestBuildPlanNonDivisible(t *testing.T) {
	doc := `
version: 1
signers:
  a: {seed: "` + seedA + `"}
plan:
  sequential:
    divisible: false
    steps:
      - memo: {text: x, signer: a}
      - memo: {text: y, signer: a}
`
	f, err := Parse([]byte(doc))
	require.NoError(t, err)
	plan, err := f.BuildPlan()
	require.NoError(t, err)
	seq, ok := plan.(*txplan.Sequential)
	require.True(t, ok)
	require.False(t, seq.Divisible)
}

func TestBuildPlanUnknownSigner(t *testing.T) {
	doc := `
version: 1
plan:
  memo: {text: x, signer: ghost}
`
	f, err := Parse([]byte(doc))
	require.NoError(t, err)
	_, err = f.BuildPlan()
	require.ErrorContains(t, err, `unknown signer "ghost"`)
}

func TestBuildPlanAmbiguousNode(t *testing.T) {
	doc := `
version: 1
signers:
  a: {seed: "` + seedA + `"}
plan:
  memo: {text: x, signer: a}
  parallel:
    steps:
      - memo: {text: y, signer: a}
`
	f, err := Parse([]byte(doc))
	require.NoError(t, err)
	_, err = f.BuildPlan()
	require.ErrorContains(t, err, "exactly one")
}

func TestStampAnchor(t *testing.T) {
	f, err := Load(writeDoc(t, sampleDoc))
	require.NoError(t, err)
	plan, err := f.BuildPlan()
	require.NoError(t, err)

	var anchor tx.Anchor
	anchor[0] = 7
	StampAnchor(plan, anchor)
	for _, m := range txplan.Messages(plan) {
		require.Equal(t, anchor, m.Anchor)
	}
}
