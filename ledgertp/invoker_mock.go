package ledgertp

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// CallRecord captures one Call invocation for assertions.
type CallRecord struct {
	Method     protoreflect.MethodDescriptor
	FullMethod string
	// Request is a deep-cloned snapshot of the input.
	Request proto.Message
}

// MockInvoker implements Invoker with pre-seeded responses consumed in
// order, recording every invocation.
type MockInvoker struct {
	mu        sync.Mutex
	responses []protoreflect.Message
	errs      []error
	idx       int
	calls     []CallRecord
}

// NewMockInvoker seeds a mock with responses returned in order.
func NewMockInvoker(responses ...protoreflect.Message) *MockInvoker {
	cp := make([]protoreflect.Message, len(responses))
	copy(cp, responses)
	return &MockInvoker{responses: cp}
}

// NewMockInvokerWithErrors seeds per-call errors alongside responses. For
// call i, a non-nil errs[i] takes precedence over responses[i].
func NewMockInvokerWithErrors(responses []protoreflect.Message, errs []error) *MockInvoker {
	cp := make([]protoreflect.Message, len(responses))
	copy(cp, responses)
	ep := make([]error, len(errs))
	copy(ep, errs)
	return &MockInvoker{responses: cp, errs: ep}
}

func (m *MockInvoker) Call(ctx context.Context, method protoreflect.MethodDescriptor, request protoreflect.Message) (protoreflect.Message, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()

	var reqClone proto.Message
	if request != nil {
		reqClone = proto.Clone(request.Interface())
	}
	full := ""
	if method != nil {
		full = fmt.Sprintf("/%s/%s", method.Parent().FullName(), method.Name())
	}
	m.calls = append(m.calls, CallRecord{Method: method, FullMethod: full, Request: reqClone})

	if m.idx >= len(m.responses) && m.idx >= len(m.errs) {
		return nil, fmt.Errorf("mock invoker: no more responses")
	}
	if m.idx < len(m.errs) {
		if err := m.errs[m.idx]; err != nil {
			m.idx++
			return nil, err
		}
	}
	var resp protoreflect.Message
	if m.idx < len(m.responses) {
		resp = m.responses[m.idx]
	}
	m.idx++
	return resp, nil
}

// Calls returns a snapshot of the recorded invocations.
func (m *MockInvoker) Calls() []CallRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CallRecord, len(m.calls))
	copy(out, m.calls)
	return out
}
