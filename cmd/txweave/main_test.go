package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T, fn func() error) (stdout string, err error) {
	t.Helper()
	old := os.Stdout
	defer func() { os.Stdout = old }()

	r, w, _ := os.Pipe()
	os.Stdout = w

	done := make(chan struct{})
	var buf bytes.Buffer
	go func() { io.Copy(&buf, r); close(done) }()

	err = fn()
	w.Close()
	<-done
	return buf.String(), err
}

func TestMissingCommand(t *testing.T) {
	require.Error(t, run(nil))
}

func TestUnknownCommand(t *testing.T) {
	err := run([]string{"frobnicate"})
	require.ErrorContains(t, err, "unknown command")
}

func TestHelp(t *testing.T) {
	out, err := captureOutput(t, func() error {
		return run([]string{"help", "run"})
	})
	require.NoError(t, err)
	require.Contains(t, out, "run FLAGS")
}

func TestRunRequiresPlanAndEndpoint(t *testing.T) {
	_, err := captureOutput(t, func() error {
		return run([]string{"run"})
	})
	require.ErrorContains(t, err, "-plan is required")

	_, err = captureOutput(t, func() error {
		return run([]string{"run", "-plan", "whatever.yaml"})
	})
	require.ErrorContains(t, err, "-ledger.endpoint")
}

func TestKeygen(t *testing.T) {
	out, err := captureOutput(t, func() error {
		return run([]string{"keygen", "-n", "2"})
	})
	require.NoError(t, err)
	require.Equal(t, 2, bytes.Count([]byte(out), []byte("seed: ")))
	require.Equal(t, 2, bytes.Count([]byte(out), []byte("address: ")))
}

func TestCheck(t *testing.T) {
	doc := `
version: 1
signers:
  alice: {seed: "0101010101010101010101010101010101010101010101010101010101010101"}
plan:
  parallel:
    steps:
      - memo: {text: a, signer: alice}
      - memo: {text: b, signer: alice}
`
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	out, err := captureOutput(t, func() error {
		return run([]string{"check", "-plan", path})
	})
	require.NoError(t, err)
	require.Contains(t, out, "parallel")
	require.Contains(t, out, "2 units of work")
}
