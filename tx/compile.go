package tx

import (
	"encoding/binary"
	"errors"
)

// compileVersion tags the wire layout so future layouts can coexist.
const compileVersion byte = 1

// Compile freezes a message into its transaction artifact. The encoding is
// deterministic: the same message always yields the same payload bytes.
// Byte-level compatibility with any particular ledger is not a goal; the
// payload exists so signing and submission operate on real bytes.
func Compile(m *Message) (*Transaction, error) {
	if m == nil {
		return nil, errors.New("tx: cannot compile nil message")
	}
	if m.Payer.IsZero() {
		return nil, errors.New("tx: message has no payer")
	}
	if len(m.Instructions) == 0 {
		return nil, errors.New("tx: message has no instructions")
	}

	buf := make([]byte, 0, 128)
	buf = append(buf, compileVersion)
	buf = appendAddress(buf, m.Payer)
	buf = append(buf, m.Anchor[:]...)
	buf = binary.AppendUvarint(buf, uint64(len(m.Instructions)))
	for _, ins := range m.Instructions {
		buf = appendAddress(buf, ins.Program)
		buf = binary.AppendUvarint(buf, uint64(len(ins.Accounts)))
		for _, acc := range ins.Accounts {
			buf = appendAddress(buf, acc.Address)
			buf = append(buf, byte(acc.Flags))
		}
		buf = binary.AppendUvarint(buf, uint64(len(ins.Data)))
		buf = append(buf, ins.Data...)
	}

	return &Transaction{
		Payload:  buf,
		Required: m.RequiredSigners(),
		Message:  m,
	}, nil
}

func appendAddress(buf []byte, a Address) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(a)))
	return append(buf, a...)
}
