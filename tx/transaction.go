package tx

// Transaction is the compiled, signable artifact produced from a Message.
// Transactions are value-owned: a holder that wants to alter one (replace
// the payload, add signatures) must work on a Clone so concurrent holders
// never observe the change.
type Transaction struct {
	// Payload is the deterministic wire encoding of the source message.
	Payload []byte

	// Required lists the addresses that must sign, captured at compile
	// time in deterministic order.
	Required []Address

	// Signatures maps each party that has signed to its signature.
	Signatures map[Address]Signature

	// Message is the source the artifact was compiled from. Kept for
	// error reporting; never re-read during signing or submission.
	Message *Message
}

// Clone returns a copy whose payload and signature map are independent of
// the original. The source message reference is shared.
func (t *Transaction) Clone() *Transaction {
	out := &Transaction{Message: t.Message}
	if len(t.Payload) > 0 {
		out.Payload = make([]byte, len(t.Payload))
		copy(out.Payload, t.Payload)
	}
	if len(t.Required) > 0 {
		out.Required = make([]Address, len(t.Required))
		copy(out.Required, t.Required)
	}
	if len(t.Signatures) > 0 {
		out.Signatures = make(map[Address]Signature, len(t.Signatures))
		for addr, sig := range t.Signatures {
			out.Signatures[addr] = sig
		}
	}
	return out
}

// SetSignature records addr's signature, allocating the map on first use.
func (t *Transaction) SetSignature(addr Address, sig Signature) {
	if t.Signatures == nil {
		t.Signatures = make(map[Address]Signature)
	}
	t.Signatures[addr] = sig
}

// SignatureOf returns addr's recorded signature, if any.
func (t *Transaction) SignatureOf(addr Address) (Signature, bool) {
	sig, ok := t.Signatures[addr]
	return sig, ok
}

// MissingSigners returns the required addresses that have not produced a
// signature yet, in required order.
func (t *Transaction) MissingSigners() []Address {
	var out []Address
	for _, addr := range t.Required {
		if sig, ok := t.Signatures[addr]; !ok || sig.IsZero() {
			out = append(out, addr)
		}
	}
	return out
}

// FullySigned reports whether every required signature is present.
func (t *Transaction) FullySigned() bool { return len(t.MissingSigners()) == 0 }
