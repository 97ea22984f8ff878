// Package planfile loads declarative YAML batch plans: a named keyring of
// ed25519 seeds plus a tree of sequential, parallel and leaf operations that
// builds into a txplan plan.
package planfile

import (
	"bytes"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Version is the plan document schema version this loader understands.
const Version = 1

// File is one parsed plan document.
type File struct {
	Version  int                   `yaml:"version"`
	Batch    string                `yaml:"batch"`
	Signers  map[string]SignerSpec `yaml:"signers"`
	Defaults Defaults              `yaml:"defaults"`
	Plan     *NodeSpec             `yaml:"plan"`
}

// SignerSpec declares one keyring entry.
type SignerSpec struct {
	// Seed is the hex-encoded 32-byte ed25519 seed.
	Seed string `yaml:"seed"`
}

// Defaults apply to leaf operations that leave a field unset.
type Defaults struct {
	// Payer names the signer paying for operations without an explicit payer.
	Payer string `yaml:"payer"`
}

// NodeSpec is one node of the declared plan tree. Exactly one field must be
// set.
type NodeSpec struct {
	Sequential *SequentialSpec `yaml:"sequential"`
	Parallel   *ParallelSpec   `yaml:"parallel"`
	Transfer   *TransferSpec   `yaml:"transfer"`
	Memo       *MemoSpec       `yaml:"memo"`
}

// SequentialSpec declares an ordered group. Divisible defaults to true.
type SequentialSpec struct {
	Divisible *bool       `yaml:"divisible"`
	Steps     []*NodeSpec `yaml:"steps"`
}

// ParallelSpec declares an unordered group.
type ParallelSpec struct {
	Steps []*NodeSpec `yaml:"steps"`
}

// TransferSpec moves amount from one keyring signer to a destination. To may
// name a keyring signer or hold a literal address.
type TransferSpec struct {
	From   string `yaml:"from"`
	To     string `yaml:"to"`
	Amount uint64 `yaml:"amount"`
}

// MemoSpec records text on the ledger, signed by one keyring signer.
type MemoSpec struct {
	Text   string `yaml:"text"`
	Signer string `yaml:"signer"`
}

// Load reads and validates a plan document. Unknown fields are rejected; a
// missing batch id is assigned.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("planfile: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a plan document from raw YAML.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("planfile: decode: %w", err)
	}
	if f.Version != Version {
		return nil, fmt.Errorf("planfile: unsupported version %d, want %d", f.Version, Version)
	}
	if f.Plan == nil {
		return nil, fmt.Errorf("planfile: document has no plan")
	}
	if f.Batch == "" {
		f.Batch = uuid.NewString()
	} else if _, err := uuid.Parse(f.Batch); err != nil {
		return nil, fmt.Errorf("planfile: batch id: %w", err)
	}
	return &f, nil
}
