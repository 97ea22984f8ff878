package ledgertp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/dynamicpb"
)

// emptyProvider answers with no endpoints and no error, the contract hole a
// custom discovery integration can fall into.
type emptyProvider struct{}

func (emptyProvider) Endpoints(ctx context.Context, service string) ([]string, error) {
	return nil, nil
}

func TestCallRejectsEmptyProviderAnswer(t *testing.T) {
	tr := New(WithProvider(emptyProvider{}))
	defer tr.Close()

	md := GetLatestAnchorMethod()
	_, err := tr.Call(context.Background(), md, dynamicpb.NewMessage(md.Input()))
	require.ErrorIs(t, err, ErrNoEndpoints)
}

func TestCallRequiresProvider(t *testing.T) {
	tr := New()
	defer tr.Close()

	md := GetLatestAnchorMethod()
	_, err := tr.Call(context.Background(), md, dynamicpb.NewMessage(md.Input()))
	require.ErrorContains(t, err, "provider not configured")
}

func TestCallAfterClose(t *testing.T) {
	tr := New(WithProvider(NewStaticEndpoints("a:1")))
	require.NoError(t, tr.Close())

	md := GetLatestAnchorMethod()
	_, err := tr.Call(context.Background(), md, dynamicpb.NewMessage(md.Input()))
	require.ErrorIs(t, err, ErrClosed)
}
