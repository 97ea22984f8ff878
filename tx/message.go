package tx

// Signer is the minimal identity a signing party exposes. Concrete signing
// capabilities are discovered by interface assertion on values implementing
// it, not declared up front.
type Signer interface {
	Address() Address
}

// Message is a unit of work under construction. It stays mutable until
// compiled into a Transaction; compiling never mutates it, so one message
// may be compiled more than once (for example with a refreshed anchor).
type Message struct {
	Payer        Address
	Anchor       Anchor
	Instructions []Instruction

	signers []Signer
}

// NewMessage returns an empty message paid for by payer.
func NewMessage(payer Address) *Message {
	return &Message{Payer: payer}
}

// AddInstruction appends an instruction and returns the message.
func (m *Message) AddInstruction(ins Instruction) *Message {
	m.Instructions = append(m.Instructions, ins)
	return m
}

// SetAnchor stamps the message with a recency anchor and returns the message.
func (m *Message) SetAnchor(a Anchor) *Message {
	m.Anchor = a
	return m
}

// AttachSigner records a party that will sign the compiled transaction.
// Attaching the same address twice keeps the first attachment.
func (m *Message) AttachSigner(s Signer) *Message {
	if s == nil {
		return m
	}
	for _, have := range m.signers {
		if have.Address() == s.Address() {
			return m
		}
	}
	m.signers = append(m.signers, s)
	return m
}

// Signers returns the attached signing parties in attachment order.
func (m *Message) Signers() []Signer {
	out := make([]Signer, len(m.signers))
	copy(out, m.signers)
	return out
}

// RequiredSigners returns every address that must sign the compiled
// transaction: the payer first, then instruction accounts flagged as
// signers, deduplicated in first-seen order.
func (m *Message) RequiredSigners() []Address {
	seen := make(map[Address]struct{})
	var out []Address
	add := func(a Address) {
		if a.IsZero() {
			return
		}
		if _, ok := seen[a]; ok {
			return
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	add(m.Payer)
	for _, ins := range m.Instructions {
		for _, acc := range ins.Accounts {
			if acc.Flags.Signer() {
				add(acc.Address)
			}
		}
	}
	return out
}

// Clone returns a deep copy sharing no mutable state with the original.
// Attached signers are carried over as-is; they are identities, not state.
func (m *Message) Clone() *Message {
	out := &Message{
		Payer:  m.Payer,
		Anchor: m.Anchor,
	}
	if len(m.Instructions) > 0 {
		out.Instructions = make([]Instruction, len(m.Instructions))
		for i, ins := range m.Instructions {
			cp := Instruction{Program: ins.Program}
			if len(ins.Accounts) > 0 {
				cp.Accounts = make([]AccountMeta, len(ins.Accounts))
				copy(cp.Accounts, ins.Accounts)
			}
			if len(ins.Data) > 0 {
				cp.Data = make([]byte, len(ins.Data))
				copy(cp.Data, ins.Data)
			}
			out.Instructions[i] = cp
		}
	}
	if len(m.signers) > 0 {
		out.signers = make([]Signer, len(m.signers))
		copy(out.signers, m.signers)
	}
	return out
}
