package txplan

import (
	"fmt"

	"github.com/txweave/txweave/tx"
)

// Node is one element of a transaction plan tree. A plan is pure structure:
// nodes carry no identity and no status, and the only ordering is what the
// shape itself encodes. Exactly three shapes implement it: *Single,
// *Sequential and *Parallel.
type Node interface {
	node()
}

// Single is a leaf holding one unit of work.
type Single struct {
	Message *tx.Message
}

// Sequential groups children that run one after another, in order.
// Divisible marks whether consumers may treat a strict subset of the
// children as satisfiable on its own; execution always visits all of them.
type Sequential struct {
	Divisible bool
	Children  []Node
}

// Parallel groups children with no mutual ordering.
type Parallel struct {
	Children []Node
}

func (*Single) node()     {}
func (*Sequential) node() {}
func (*Parallel) node()   {}

// NewSingle wraps one unit of work in a leaf.
func NewSingle(m *tx.Message) *Single { return &Single{Message: m} }

// NewSequential groups children that must run in order. The group is
// divisible.
func NewSequential(children ...Node) *Sequential {
	return &Sequential{Divisible: true, Children: children}
}

// NewNonDivisibleSequential groups children that must run in order and only
// count as satisfied together.
func NewNonDivisibleSequential(children ...Node) *Sequential {
	return &Sequential{Children: children}
}

// NewParallel groups children with no mutual ordering.
func NewParallel(children ...Node) *Parallel { return &Parallel{Children: children} }

// PlanError reports a structurally invalid plan. Err, when set, is the
// sentinel the rejection matches against.
type PlanError struct {
	Path   string
	Reason string
	Err    error
}

func (e *PlanError) Error() string {
	return fmt.Sprintf("txplan: invalid plan at %s: %s", e.Path, e.Reason)
}

func (e *PlanError) Unwrap() error { return e.Err }

// Validate checks the plan's structure: no nil nodes, no empty groups, no
// leaf without a message.
func Validate(plan Node) error {
	return validateNode(plan, path{"plan"})
}

func validateNode(n Node, p path) error {
	switch v := n.(type) {
	case *Single:
		if v == nil {
			return &PlanError{Path: p.String(), Reason: "nil node"}
		}
		if v.Message == nil {
			return &PlanError{Path: p.String(), Reason: "leaf has no message"}
		}
	case *Sequential:
		if v == nil {
			return &PlanError{Path: p.String(), Reason: "nil node"}
		}
		if len(v.Children) == 0 {
			return &PlanError{Path: p.String(), Reason: "empty sequential group"}
		}
		for i, c := range v.Children {
			if err := validateNode(c, appendPath(p, fmt.Sprintf("seq[%d]", i))); err != nil {
				return err
			}
		}
	case *Parallel:
		if v == nil {
			return &PlanError{Path: p.String(), Reason: "nil node"}
		}
		if len(v.Children) == 0 {
			return &PlanError{Path: p.String(), Reason: "empty parallel group"}
		}
		for i, c := range v.Children {
			if err := validateNode(c, appendPath(p, fmt.Sprintf("par[%d]", i))); err != nil {
				return err
			}
		}
	case nil:
		return &PlanError{Path: p.String(), Reason: "nil node"}
	default:
		return &PlanError{Path: p.String(), Reason: fmt.Sprintf("unknown node type %T", n)}
	}
	return nil
}

// Walk visits every node depth-first, parents before children, stopping at
// the first error.
func Walk(n Node, visit func(Node) error) error {
	if n == nil {
		return nil
	}
	if err := visit(n); err != nil {
		return err
	}
	switch v := n.(type) {
	case *Sequential:
		for _, c := range v.Children {
			if err := Walk(c, visit); err != nil {
				return err
			}
		}
	case *Parallel:
		for _, c := range v.Children {
			if err := Walk(c, visit); err != nil {
				return err
			}
		}
	}
	return nil
}

// Messages returns the plan's units of work in leaf order.
func Messages(n Node) []*tx.Message {
	var out []*tx.Message
	Walk(n, func(n Node) error {
		if s, ok := n.(*Single); ok {
			out = append(out, s.Message)
		}
		return nil
	})
	return out
}

// CountLeaves returns the number of units of work in the plan.
func CountLeaves(n Node) int {
	count := 0
	Walk(n, func(n Node) error {
		if _, ok := n.(*Single); ok {
			count++
		}
		return nil
	})
	return count
}
