package ledgertp

import "errors"

var (
	// ErrNoEndpoints indicates the provider returned no endpoints for the
	// ledger service.
	ErrNoEndpoints = errors.New("ledgertp: no endpoints available")

	// ErrClosed indicates the transport has been closed.
	ErrClosed = errors.New("ledgertp: transport closed")
)
