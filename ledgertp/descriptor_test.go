package ledgertp

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/reflect/protoreflect"
)

func TestLedgerServiceDescriptor(t *testing.T) {
	require.Equal(t, ServiceName, string(ledgerService.FullName()))

	submit := SubmitTransactionMethod()
	require.NotNil(t, submit)
	require.Equal(t, "txweave.ledger.v1.SubmitTransactionRequest", string(submit.Input().FullName()))
	require.Equal(t, "txweave.ledger.v1.SubmitTransactionResponse", string(submit.Output().FullName()))

	sigs := submit.Input().Fields().ByName("signatures")
	require.NotNil(t, sigs)
	require.True(t, sigs.IsList())
	require.Equal(t, "txweave.ledger.v1.SignatureEntry", string(sigs.Message().FullName()))

	anchor := GetLatestAnchorMethod()
	require.NotNil(t, anchor)
	require.NotNil(t, anchor.Output().Fields().ByName("anchor"))
	require.NotNil(t, anchor.Output().Fields().ByName("height"))

	status := GetTransactionStatusMethod()
	require.NotNil(t, status)
	statusField := status.Output().Fields().ByName("status")
	require.NotNil(t, statusField)
	require.Equal(t, protoreflect.EnumKind, statusField.Kind())
}

func TestTransactionStatusEnumNumbers(t *testing.T) {
	statusField := GetTransactionStatusMethod().Output().Fields().ByName("status")
	values := statusField.Enum().Values()

	expect := map[string]Status{
		"TRANSACTION_STATUS_UNSPECIFIED": StatusUnspecified,
		"TRANSACTION_STATUS_PENDING":     StatusPending,
		"TRANSACTION_STATUS_CONFIRMED":   StatusConfirmed,
		"TRANSACTION_STATUS_REJECTED":    StatusRejected,
	}
	require.Equal(t, len(expect), values.Len())
	for name, num := range expect {
		v := values.ByName(protoreflect.Name(name))
		require.NotNil(t, v, name)
		require.Equal(t, protoreflect.EnumNumber(num), v.Number(), name)
	}
}
