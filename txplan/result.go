package txplan

import (
	"fmt"

	"github.com/txweave/txweave/tx"
)

// Result mirrors the shape of the plan it came from: one result node per
// plan node, children in the same order. Exactly three shapes implement
// it: *SingleResult, *SequentialResult and *ParallelResult.
type Result interface {
	result()
}

// SingleResult is the settled outcome of one unit of work.
type SingleResult struct {
	Status Status
}

// SequentialResult mirrors a sequential group.
type SequentialResult struct {
	Divisible bool
	Children  []Result
}

// ParallelResult mirrors a parallel group.
type ParallelResult struct {
	Children []Result
}

func (*SingleResult) result()     {}
func (*SequentialResult) result() {}
func (*ParallelResult) result()   {}

// Status is the terminal state of one unit of work: *Successful, *Failed
// or *Canceled.
type Status interface {
	status()
}

// Successful carries the artifacts of a completed unit.
type Successful struct {
	Transaction  *tx.Transaction
	Confirmation tx.Signature
	Context      any
}

// Failed carries the unit that failed and why.
type Failed struct {
	Message *tx.Message
	Err     error
}

// Canceled marks a unit that never started because the run was already
// poisoned.
type Canceled struct {
	Message *tx.Message
}

func (*Successful) status() {}
func (*Failed) status()     {}
func (*Canceled) status()   {}

// AsSingle narrows a result to its leaf shape.
func AsSingle(r Result) (*SingleResult, bool) {
	v, ok := r.(*SingleResult)
	return v, ok
}

// AsSequential narrows a result to its sequential shape.
func AsSequential(r Result) (*SequentialResult, bool) {
	v, ok := r.(*SequentialResult)
	return v, ok
}

// AsParallel narrows a result to its parallel shape.
func AsParallel(r Result) (*ParallelResult, bool) {
	v, ok := r.(*ParallelResult)
	return v, ok
}

// MustSingle narrows or panics. Reach for it when the shape is known by
// construction.
func MustSingle(r Result) *SingleResult {
	v, ok := AsSingle(r)
	if !ok {
		panic(fmt.Sprintf("txplan: expected *SingleResult, got %T", r))
	}
	return v
}

// MustSequential narrows or panics.
func MustSequential(r Result) *SequentialResult {
	v, ok := AsSequential(r)
	if !ok {
		panic(fmt.Sprintf("txplan: expected *SequentialResult, got %T", r))
	}
	return v
}

// MustParallel narrows or panics.
func MustParallel(r Result) *ParallelResult {
	v, ok := AsParallel(r)
	if !ok {
		panic(fmt.Sprintf("txplan: expected *ParallelResult, got %T", r))
	}
	return v
}

// AsSuccessful narrows a leaf status.
func AsSuccessful(s Status) (*Successful, bool) {
	v, ok := s.(*Successful)
	return v, ok
}

// AsFailed narrows a leaf status.
func AsFailed(s Status) (*Failed, bool) {
	v, ok := s.(*Failed)
	return v, ok
}

// AsCanceled narrows a leaf status.
func AsCanceled(s Status) (*Canceled, bool) {
	v, ok := s.(*Canceled)
	return v, ok
}

// MustSuccessful narrows or panics.
func MustSuccessful(s Status) *Successful {
	v, ok := AsSuccessful(s)
	if !ok {
		panic(fmt.Sprintf("txplan: expected *Successful, got %T", s))
	}
	return v
}

// MustFailed narrows or panics.
func MustFailed(s Status) *Failed {
	v, ok := AsFailed(s)
	if !ok {
		panic(fmt.Sprintf("txplan: expected *Failed, got %T", s))
	}
	return v
}

// MustCanceled narrows or panics.
func MustCanceled(s Status) *Canceled {
	v, ok := AsCanceled(s)
	if !ok {
		panic(fmt.Sprintf("txplan: expected *Canceled, got %T", s))
	}
	return v
}

// Flatten returns the leaf results in plan order.
func Flatten(r Result) []*SingleResult {
	var out []*SingleResult
	walkLeaves(r, func(s *SingleResult) {
		out = append(out, s)
	})
	return out
}

func walkLeaves(r Result, fn func(*SingleResult)) {
	switch v := r.(type) {
	case *SingleResult:
		fn(v)
	case *SequentialResult:
		for _, c := range v.Children {
			walkLeaves(c, fn)
		}
	case *ParallelResult:
		for _, c := range v.Children {
			walkLeaves(c, fn)
		}
	case nil:
	default:
		panic(fmt.Sprintf("txplan: unknown result node %T", r))
	}
}

// Summary counts leaf outcomes.
type Summary struct {
	Successful int
	Failed     int
	Canceled   int
}

// Total returns the number of leaves counted.
func (s Summary) Total() int { return s.Successful + s.Failed + s.Canceled }

// AllSuccessful reports whether every unit completed.
func (s Summary) AllSuccessful() bool { return s.Failed == 0 && s.Canceled == 0 }

// Summarize tallies the leaf statuses of a result tree.
func Summarize(r Result) Summary {
	var sum Summary
	walkLeaves(r, func(s *SingleResult) {
		switch s.Status.(type) {
		case *Successful:
			sum.Successful++
		case *Failed:
			sum.Failed++
		case *Canceled:
			sum.Canceled++
		default:
			panic(fmt.Sprintf("txplan: unknown leaf status %T", s.Status))
		}
	})
	return sum
}
