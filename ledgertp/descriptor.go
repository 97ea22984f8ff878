package ledgertp

import (
	"fmt"

	"github.com/jhump/protoreflect/v2/protobuilder"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// The ledger's gRPC surface is owned by this package, so its descriptors are
// built programmatically instead of generated from a .proto source. The file
// is built and validated once, at package load.

// ServiceName is the fully-qualified name of the ledger gRPC service.
const ServiceName = "txweave.ledger.v1.LedgerService"

// Method names on the ledger service.
const (
	MethodSubmitTransaction    = "SubmitTransaction"
	MethodGetLatestAnchor      = "GetLatestAnchor"
	MethodGetTransactionStatus = "GetTransactionStatus"
)

// Status mirrors the wire values of the TransactionStatus enum.
type Status int32

const (
	StatusUnspecified Status = 0
	StatusPending     Status = 1
	StatusConfirmed   Status = 2
	StatusRejected    Status = 3
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusConfirmed:
		return "confirmed"
	case StatusRejected:
		return "rejected"
	default:
		return "unspecified"
	}
}

var ledgerService = mustBuildLedgerService()

// SubmitTransactionMethod returns the SubmitTransaction method descriptor.
func SubmitTransactionMethod() protoreflect.MethodDescriptor {
	return ledgerService.Methods().ByName(MethodSubmitTransaction)
}

// GetLatestAnchorMethod returns the GetLatestAnchor method descriptor.
func GetLatestAnchorMethod() protoreflect.MethodDescriptor {
	return ledgerService.Methods().ByName(MethodGetLatestAnchor)
}

// GetTransactionStatusMethod returns the GetTransactionStatus method descriptor.
func GetTransactionStatusMethod() protoreflect.MethodDescriptor {
	return ledgerService.Methods().ByName(MethodGetTransactionStatus)
}

func mustBuildLedgerService() protoreflect.ServiceDescriptor {
	fd, err := buildLedgerFile()
	if err != nil {
		panic(fmt.Sprintf("ledgertp: build ledger descriptors: %v", err))
	}
	svc := fd.Services().ByName("LedgerService")
	if svc == nil || string(svc.FullName()) != ServiceName {
		panic("ledgertp: ledger service descriptor missing")
	}
	return svc
}

func buildLedgerFile() (protoreflect.FileDescriptor, error) {
	fb := protobuilder.NewFile("txweave/ledger/v1/ledger.proto")
	fb.SetPackageName("txweave.ledger.v1")
	fb.SetSyntax(protoreflect.Proto3)

	statusEnum := protobuilder.NewEnum("TransactionStatus")
	for _, v := range []struct {
		name protoreflect.Name
		num  Status
	}{
		{"TRANSACTION_STATUS_UNSPECIFIED", StatusUnspecified},
		{"TRANSACTION_STATUS_PENDING", StatusPending},
		{"TRANSACTION_STATUS_CONFIRMED", StatusConfirmed},
		{"TRANSACTION_STATUS_REJECTED", StatusRejected},
	} {
		evb := protobuilder.NewEnumValue(v.name)
		evb.SetNumber(protoreflect.EnumNumber(v.num))
		statusEnum.AddValue(evb)
	}
	fb.AddEnum(statusEnum)

	sigEntry := protobuilder.NewMessage("SignatureEntry")
	sigEntry.AddField(scalarField("address", protoreflect.StringKind, 1))
	sigEntry.AddField(scalarField("signature", protoreflect.BytesKind, 2))
	fb.AddMessage(sigEntry)

	submitReq := protobuilder.NewMessage("SubmitTransactionRequest")
	submitReq.AddField(scalarField("payload", protoreflect.BytesKind, 1))
	sigs := protobuilder.NewField("signatures", protobuilder.FieldTypeMessage(sigEntry))
	sigs.SetNumber(2)
	sigs.SetRepeated()
	submitReq.AddField(sigs)
	fb.AddMessage(submitReq)

	submitResp := protobuilder.NewMessage("SubmitTransactionResponse")
	submitResp.AddField(scalarField("signature", protoreflect.BytesKind, 1))
	fb.AddMessage(submitResp)

	anchorReq := protobuilder.NewMessage("GetLatestAnchorRequest")
	fb.AddMessage(anchorReq)

	anchorResp := protobuilder.NewMessage("GetLatestAnchorResponse")
	anchorResp.AddField(scalarField("anchor", protoreflect.BytesKind, 1))
	anchorResp.AddField(scalarField("height", protoreflect.Uint64Kind, 2))
	fb.AddMessage(anchorResp)

	statusReq := protobuilder.NewMessage("GetTransactionStatusRequest")
	statusReq.AddField(scalarField("signature", protoreflect.BytesKind, 1))
	fb.AddMessage(statusReq)

	statusResp := protobuilder.NewMessage("GetTransactionStatusResponse")
	statusField := protobuilder.NewField("status", protobuilder.FieldTypeEnum(statusEnum))
	statusField.SetNumber(1)
	statusResp.AddField(statusField)
	statusResp.AddField(scalarField("detail", protoreflect.StringKind, 2))
	fb.AddMessage(statusResp)

	svc := protobuilder.NewService("LedgerService")
	svc.AddMethod(protobuilder.NewMethod(MethodSubmitTransaction,
		protobuilder.RpcTypeMessage(submitReq, false),
		protobuilder.RpcTypeMessage(submitResp, false)))
	svc.AddMethod(protobuilder.NewMethod(MethodGetLatestAnchor,
		protobuilder.RpcTypeMessage(anchorReq, false),
		protobuilder.RpcTypeMessage(anchorResp, false)))
	svc.AddMethod(protobuilder.NewMethod(MethodGetTransactionStatus,
		protobuilder.RpcTypeMessage(statusReq, false),
		protobuilder.RpcTypeMessage(statusResp, false)))
	fb.AddService(svc)

	return fb.Build()
}

func scalarField(name protoreflect.Name, kind protoreflect.Kind, num protoreflect.FieldNumber) *protobuilder.FieldBuilder {
	f := protobuilder.NewField(name, protobuilder.FieldTypeScalar(kind))
	f.SetNumber(num)
	return f
}
