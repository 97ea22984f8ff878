package ledgertp

import (
	"context"
	"fmt"
	"sort"
	"time"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/txweave/txweave/tx"
	"github.com/txweave/txweave/txsigner"
)

// Invoker dispatches one RPC described by a method descriptor. It is the
// seam between the typed client and the pooled transport; tests supply a
// scripted implementation. Implementations must be safe for concurrent use:
// parallel plan branches submit through one client.
type Invoker interface {
	Call(ctx context.Context, method protoreflect.MethodDescriptor, request protoreflect.Message) (protoreflect.Message, error)
}

// Client maps tx values onto the ledger service's dynamic messages. It
// satisfies txsigner.Submitter and txsigner.Confirmer, so one client serves
// both the submission step and the confirmation gate of a plan run.
type Client struct {
	inv          Invoker
	pollInterval time.Duration
}

var (
	_ txsigner.Submitter = (*Client)(nil)
	_ txsigner.Confirmer = (*Client)(nil)
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithPollInterval sets the delay between confirmation polls.
func WithPollInterval(d time.Duration) ClientOption {
	return func(c *Client) { c.pollInterval = d }
}

// NewClient wraps inv in a typed ledger client.
func NewClient(inv Invoker, opts ...ClientOption) *Client {
	c := &Client{inv: inv, pollInterval: time.Second}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitTransaction sends a compiled, signed transaction to the ledger and
// returns the signature the ledger will identify it by.
func (c *Client) SubmitTransaction(ctx context.Context, t *tx.Transaction) (tx.Signature, error) {
	md := SubmitTransactionMethod()
	in := md.Input().Fields()

	req := dynamicpb.NewMessage(md.Input())
	req.Set(in.ByName("payload"), protoreflect.ValueOfBytes(t.Payload))
	list := req.Mutable(in.ByName("signatures")).List()
	for _, addr := range signedAddresses(t) {
		entry := list.NewElement().Message()
		ef := entry.Descriptor().Fields()
		entry.Set(ef.ByName("address"), protoreflect.ValueOfString(string(addr)))
		entry.Set(ef.ByName("signature"), protoreflect.ValueOfBytes(t.Signatures[addr].Bytes()))
		list.Append(protoreflect.ValueOfMessage(entry))
	}

	resp, err := c.inv.Call(ctx, md, req)
	if err != nil {
		return tx.Signature{}, err
	}
	return tx.SignatureFromBytes(resp.Get(md.Output().Fields().ByName("signature")).Bytes())
}

// signedAddresses orders the signature map deterministically: required
// addresses first, in required order, then any extras sorted.
func signedAddresses(t *tx.Transaction) []tx.Address {
	seen := make(map[tx.Address]struct{}, len(t.Signatures))
	var out []tx.Address
	for _, addr := range t.Required {
		if _, ok := t.Signatures[addr]; ok {
			seen[addr] = struct{}{}
			out = append(out, addr)
		}
	}
	var extra []tx.Address
	for addr := range t.Signatures {
		if _, ok := seen[addr]; !ok {
			extra = append(extra, addr)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

// LatestAnchor fetches the most recent recency anchor and its ledger height.
func (c *Client) LatestAnchor(ctx context.Context) (tx.Anchor, uint64, error) {
	md := GetLatestAnchorMethod()
	resp, err := c.inv.Call(ctx, md, dynamicpb.NewMessage(md.Input()))
	if err != nil {
		return tx.Anchor{}, 0, err
	}
	out := md.Output().Fields()
	anchor, err := tx.AnchorFromBytes(resp.Get(out.ByName("anchor")).Bytes())
	if err != nil {
		return tx.Anchor{}, 0, err
	}
	return anchor, resp.Get(out.ByName("height")).Uint(), nil
}

// TransactionStatus asks the ledger about a submitted transaction.
func (c *Client) TransactionStatus(ctx context.Context, sig tx.Signature) (Status, string, error) {
	md := GetTransactionStatusMethod()
	req := dynamicpb.NewMessage(md.Input())
	req.Set(md.Input().Fields().ByName("signature"), protoreflect.ValueOfBytes(sig.Bytes()))

	resp, err := c.inv.Call(ctx, md, req)
	if err != nil {
		return StatusUnspecified, "", err
	}
	out := md.Output().Fields()
	st := Status(resp.Get(out.ByName("status")).Enum())
	return st, resp.Get(out.ByName("detail")).String(), nil
}

// ConfirmationError reports a transaction the ledger rejected.
type ConfirmationError struct {
	Signature tx.Signature
	Detail    string
}

func (e *ConfirmationError) Error() string {
	return fmt.Sprintf("ledgertp: transaction %s rejected: %s", e.Signature, e.Detail)
}

// WaitForConfirmation polls the ledger until sig is confirmed, rejected or
// ctx ends. The deadline is the caller's; this client never retries the
// submission itself.
func (c *Client) WaitForConfirmation(ctx context.Context, sig tx.Signature) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		st, detail, err := c.TransactionStatus(ctx, sig)
		if err != nil {
			return err
		}
		switch st {
		case StatusConfirmed:
			return nil
		case StatusRejected:
			return &ConfirmationError{Signature: sig, Detail: detail}
		}
		select {
		case <-ctx.Done():
			return context.Cause(ctx)
		case <-ticker.C:
		}
	}
}
