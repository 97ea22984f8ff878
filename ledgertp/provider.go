package ledgertp

import (
	"context"
	"sync"
)

// EndpointProvider yields reachable endpoints (host:port) for a
// fully-qualified gRPC service name. Implementations may integrate with a
// discovery system and must be safe for concurrent use.
type EndpointProvider interface {
	Endpoints(ctx context.Context, service string) ([]string, error)
}

// StaticEndpoints serves a fixed endpoint list for every service.
type StaticEndpoints struct {
	mu        sync.RWMutex
	endpoints []string
}

// NewStaticEndpoints builds a provider over a fixed endpoint list.
func NewStaticEndpoints(endpoints ...string) *StaticEndpoints {
	cp := make([]string, len(endpoints))
	copy(cp, endpoints)
	return &StaticEndpoints{endpoints: cp}
}

func (s *StaticEndpoints) Endpoints(ctx context.Context, service string) ([]string, error) {
	_ = ctx
	_ = service
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.endpoints) == 0 {
		return nil, ErrNoEndpoints
	}
	out := make([]string, len(s.endpoints))
	copy(out, s.endpoints)
	return out, nil
}
