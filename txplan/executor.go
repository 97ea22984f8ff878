package txplan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/txweave/txweave/internal/attempt"
	"github.com/txweave/txweave/internal/eventbus"
	"github.com/txweave/txweave/internal/events"
	"github.com/txweave/txweave/tx"
)

// UnitResult is what a unit executor returns for one completed unit.
type UnitResult struct {
	Transaction  *tx.Transaction
	Confirmation tx.Signature
	Context      any
}

// UnitExecutor performs one unit of work end to end, typically compile,
// sign, submit and confirm. It is invoked at most once per leaf per
// Execute call and must return an error when the unit did not reach its
// terminal state. It must honor ctx: a run under a poisoned plan is never
// interrupted from outside, so a well-behaved executor gives up on its own
// when ctx is done.
type UnitExecutor func(ctx context.Context, m *tx.Message) (UnitResult, error)

// ErrNonDivisiblePlan rejects a plan containing a non-divisible sequential
// group under strict divisibility.
var ErrNonDivisiblePlan = errors.New("txplan: plan contains a non-divisible sequential group")

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithStrictDivisibility makes Execute reject any plan containing a
// non-divisible sequential group before running a single unit. The default
// executor accepts such plans and threads divisibility through to the
// result for consumers like Remainder.
func WithStrictDivisibility() ExecutorOption {
	return func(e *Executor) { e.strict = true }
}

// Executor drives a plan tree, fanning out parallel groups and feeding
// every leaf to one UnitExecutor.
type Executor struct {
	run    UnitExecutor
	strict bool
}

// NewExecutor builds an executor around the given unit callback.
func NewExecutor(run UnitExecutor, opts ...ExecutorOption) *Executor {
	e := &Executor{run: run}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs every unit the plan names and produces a result tree with
// the plan's exact shape, whatever happened.
//
// A failing unit never aborts work that is already running; it poisons the
// rest of the run instead, and units that have not started settle as
// canceled. External cancellation through ctx poisons the run the same
// way. When any leaf ends failed or canceled, Execute returns a nil tree
// and an *ExecutionError carrying both the first cause and the complete
// partial result; Outcome unwraps that pairing for callers that treat
// partial results as data. On full success the tree is returned with a nil
// error.
func (e *Executor) Execute(ctx context.Context, plan Node) (Result, error) {
	if err := Validate(plan); err != nil {
		return nil, err
	}
	if e.strict {
		if err := assertDivisible(plan); err != nil {
			return nil, err
		}
	}

	// Every run gets an attempt scope so downstream events correlate.
	if _, ok := attempt.FromContext(ctx); !ok {
		ctx, _ = attempt.NewContext(ctx)
	}

	start := time.Now()
	eventbus.Publish(ctx, events.PlanStart{Leaves: CountLeaves(plan)})

	state := &execState{run: e.run}
	res := executeNode(ctx, state, plan, path{"plan"})

	sum := Summarize(res)
	var err error
	if cause := state.failure(); cause != nil {
		err = &ExecutionError{Cause: cause, Result: res}
	}
	eventbus.Publish(ctx, events.PlanFinish{
		Leaves:     sum.Total(),
		Successful: sum.Successful,
		Failed:     sum.Failed,
		Canceled:   sum.Canceled,
		Err:        err,
		Duration:   time.Since(start),
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// assertDivisible is the strict-mode structural check. The rejection names
// the offending group and unwraps to ErrNonDivisiblePlan.
func assertDivisible(plan Node) error {
	return walkDivisible(plan, path{"plan"})
}

func walkDivisible(n Node, p path) error {
	switch v := n.(type) {
	case *Single:
	case *Sequential:
		if !v.Divisible {
			return &PlanError{Path: p.String(), Reason: "non-divisible sequential group", Err: ErrNonDivisiblePlan}
		}
		for i, c := range v.Children {
			if err := walkDivisible(c, appendPath(p, fmt.Sprintf("seq[%d]", i))); err != nil {
				return err
			}
		}
	case *Parallel:
		for i, c := range v.Children {
			if err := walkDivisible(c, appendPath(p, fmt.Sprintf("par[%d]", i))); err != nil {
				return err
			}
		}
	default:
		// Validate has already run; any other shape is a programmer bug.
		panic(fmt.Sprintf("txplan: unknown plan node %T", n))
	}
	return nil
}

// execState is shared by every branch of one Execute call. The canceled
// flag is the only cross-branch communication: the first failure, or the
// external signal, sets it exactly once, and every unit checks it right
// before starting. Nothing ever interrupts a unit that is already running.
type execState struct {
	run UnitExecutor

	mu       sync.Mutex
	canceled bool
	cause    error
}

// cancel poisons the run. The first cause wins; later calls are no-ops.
func (s *execState) cancel(cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canceled {
		return
	}
	s.canceled = true
	s.cause = cause
}

func (s *execState) poisoned() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canceled
}

func (s *execState) failure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cause
}

func executeNode(ctx context.Context, state *execState, n Node, p path) Result {
	switch v := n.(type) {
	case *Single:
		return executeSingle(ctx, state, v, p)
	case *Sequential:
		// Children run in order even after a failure: the later ones
		// must still settle, as canceled, so the tree stays complete.
		children := make([]Result, len(v.Children))
		for i, c := range v.Children {
			children[i] = executeNode(ctx, state, c, appendPath(p, fmt.Sprintf("seq[%d]", i)))
		}
		return &SequentialResult{Divisible: v.Divisible, Children: children}
	case *Parallel:
		children := make([]Result, len(v.Children))
		var wg sync.WaitGroup
		for i, c := range v.Children {
			wg.Add(1)
			go func() {
				defer wg.Done()
				children[i] = executeNode(ctx, state, c, appendPath(p, fmt.Sprintf("par[%d]", i)))
			}()
		}
		wg.Wait()
		return &ParallelResult{Children: children}
	default:
		panic(fmt.Sprintf("txplan: unknown plan node %T", n))
	}
}

func executeSingle(ctx context.Context, state *execState, n *Single, p path) Result {
	// Leaf boundary: fold the external signal into the shared state, then
	// decide whether this unit still gets to run.
	if cause := context.Cause(ctx); cause != nil {
		state.cancel(cause)
	}
	if state.poisoned() {
		return &SingleResult{Status: &Canceled{Message: n.Message}}
	}

	ctx = attempt.WithUnit(ctx, p.String())
	start := time.Now()
	eventbus.Publish(ctx, events.NodeStart{Path: p.String()})
	unit, err := state.run(ctx, n.Message)
	if err != nil {
		state.cancel(err)
		eventbus.Publish(ctx, events.NodeFinish{Path: p.String(), Status: "failed", Err: err, Duration: time.Since(start)})
		return &SingleResult{Status: &Failed{Message: n.Message, Err: err}}
	}
	eventbus.Publish(ctx, events.NodeFinish{Path: p.String(), Status: "successful", Duration: time.Since(start)})
	return &SingleResult{Status: &Successful{
		Transaction:  unit.Transaction,
		Confirmation: unit.Confirmation,
		Context:      unit.Context,
	}}
}

// ExecutionError reports a plan run that ended with failed or canceled
// units. Result holds the complete mirrored tree including every settled
// outcome; Cause is the failure that poisoned the run. The tree is
// deliberately kept out of the error text.
type ExecutionError struct {
	Cause  error
	Result Result
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("txplan: plan execution failed: %v", e.Cause)
}

func (e *ExecutionError) Unwrap() error { return e.Cause }

// Outcome lets callers consume partial results as data: it unwraps an
// *ExecutionError into the result tree it carries, leaving failure detail
// to the tree's own leaf statuses. Any other error, an invalid plan for
// example, passes through unchanged.
func Outcome(res Result, err error) (Result, error) {
	if err == nil {
		return res, nil
	}
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return ee.Result, nil
	}
	return nil, err
}

type path []string

func appendPath(p path, elem string) path {
	out := make(path, len(p)+1)
	copy(out, p)
	out[len(p)] = elem
	return out
}

func (p path) String() string { return strings.Join(p, ".") }
