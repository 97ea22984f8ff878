package events

import (
	"time"

	"google.golang.org/grpc/codes"
)

// LedgerCallStart is emitted before an RPC to the ledger service.
type LedgerCallStart struct {
	Service string
	Method  string
	Target  string
}

// LedgerCallFinish is emitted after an RPC to the ledger service returns.
type LedgerCallFinish struct {
	Service  string
	Method   string
	Target   string
	Code     codes.Code
	Err      error
	Duration time.Duration
}
