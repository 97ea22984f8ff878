package txplan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlattenReturnsLeavesInPlanOrder(t *testing.T) {
	script := newUnitScript()
	plan := NewSequential(
		leaf("t1"),
		NewParallel(leaf("t2"), NewSequential(leaf("t3"), leaf("t4"))),
		leaf("t5"),
	)

	res, err := NewExecutor(script.run).Execute(context.Background(), plan)
	require.NoError(t, err)

	flat := Flatten(res)
	require.Len(t, flat, 5)
	var labels []string
	for _, s := range flat {
		labels = append(labels, MustSuccessful(s.Status).Context.(string))
	}
	require.Equal(t, []string{"t1", "t2", "t3", "t4", "t5"}, labels)
}

func TestSummarizeCountsEveryStatus(t *testing.T) {
	boom := errors.New("boom")
	script := newUnitScript()
	script.fail["t2"] = boom

	plan := NewSequential(leaf("t1"), leaf("t2"), leaf("t3"), leaf("t4"))
	res, err := Outcome(NewExecutor(script.run).Execute(context.Background(), plan))
	require.NoError(t, err)

	sum := Summarize(res)
	require.Equal(t, Summary{Successful: 1, Failed: 1, Canceled: 2}, sum)
	require.Equal(t, 4, sum.Total())
	require.False(t, sum.AllSuccessful())
}

func TestNarrowingAcceptsOnlyMatchingShape(t *testing.T) {
	var r Result = &SingleResult{Status: &Successful{}}

	got, ok := AsSingle(r)
	require.True(t, ok)
	require.NotNil(t, got)

	_, ok = AsSequential(r)
	require.False(t, ok)
	_, ok = AsParallel(r)
	require.False(t, ok)

	require.Panics(t, func() { MustSequential(r) })
	require.Panics(t, func() { MustParallel(r) })
	require.NotPanics(t, func() { MustSingle(r) })
}

func TestStatusNarrowing(t *testing.T) {
	var s Status = &Failed{Err: errors.New("boom")}

	failed, ok := AsFailed(s)
	require.True(t, ok)
	require.Error(t, failed.Err)

	_, ok = AsSuccessful(s)
	require.False(t, ok)
	_, ok = AsCanceled(s)
	require.False(t, ok)

	require.Panics(t, func() { MustSuccessful(s) })
	require.Panics(t, func() { MustCanceled(s) })
	require.Same(t, failed, MustFailed(s))
}
