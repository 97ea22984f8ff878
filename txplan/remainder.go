package txplan

import (
	"errors"
	"fmt"
)

// ErrNonDivisibleRemainder reports a non-divisible sequential group that
// ended partially satisfied; retrying a subset of it is undefined.
var ErrNonDivisibleRemainder = errors.New("txplan: non-divisible sequential group is partially satisfied")

// Remainder extracts the plan still owed after a run: failed and canceled
// units keep their relative grouping, satisfied units drop out, and groups
// left with one child collapse into that child. It returns a nil node when
// nothing is owed. A non-divisible sequential group with some but not all
// of its units satisfied cannot be split and fails with
// ErrNonDivisibleRemainder.
func Remainder(res Result) (Node, error) {
	node, _, _, err := remainderOf(res)
	return node, err
}

// remainderOf rebuilds the owed subtree and counts total versus owed
// leaves so divisibility can be enforced per group.
func remainderOf(r Result) (rem Node, total, owed int, err error) {
	switch v := r.(type) {
	case *SingleResult:
		switch st := v.Status.(type) {
		case *Successful:
			return nil, 1, 0, nil
		case *Failed:
			return NewSingle(st.Message), 1, 1, nil
		case *Canceled:
			return NewSingle(st.Message), 1, 1, nil
		default:
			panic(fmt.Sprintf("txplan: unknown leaf status %T", v.Status))
		}
	case *SequentialResult:
		var children []Node
		for _, c := range v.Children {
			cn, ct, co, cerr := remainderOf(c)
			if cerr != nil {
				return nil, 0, 0, cerr
			}
			total += ct
			owed += co
			if cn != nil {
				children = append(children, cn)
			}
		}
		if owed == 0 {
			return nil, total, 0, nil
		}
		if !v.Divisible && owed != total {
			return nil, 0, 0, ErrNonDivisibleRemainder
		}
		if len(children) == 1 {
			return children[0], total, owed, nil
		}
		return &Sequential{Divisible: v.Divisible, Children: children}, total, owed, nil
	case *ParallelResult:
		var children []Node
		for _, c := range v.Children {
			cn, ct, co, cerr := remainderOf(c)
			if cerr != nil {
				return nil, 0, 0, cerr
			}
			total += ct
			owed += co
			if cn != nil {
				children = append(children, cn)
			}
		}
		if owed == 0 {
			return nil, total, 0, nil
		}
		if len(children) == 1 {
			return children[0], total, owed, nil
		}
		return &Parallel{Children: children}, total, owed, nil
	default:
		panic(fmt.Sprintf("txplan: unknown result node %T", r))
	}
}
