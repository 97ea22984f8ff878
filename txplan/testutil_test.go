package txplan

import (
	"context"
	"sync"

	"github.com/txweave/txweave/tx"
)

// unitScript scripts per-unit behavior, keyed by the message payer, and
// records which units actually ran.
type unitScript struct {
	mu    sync.Mutex
	calls []string

	fail    map[string]error           // unit -> error to return
	gate    map[string]<-chan struct{} // unit -> wait here before settling
	onStart map[string]func()          // unit -> run as soon as it starts
	after   map[string]func()          // unit -> run right before returning
}

func newUnitScript() *unitScript {
	return &unitScript{
		fail:    make(map[string]error),
		gate:    make(map[string]<-chan struct{}),
		onStart: make(map[string]func()),
		after:   make(map[string]func()),
	}
}

func (u *unitScript) record(label string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls = append(u.calls, label)
}

func (u *unitScript) log() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.calls...)
}

// run is the UnitExecutor under test.
func (u *unitScript) run(ctx context.Context, m *tx.Message) (UnitResult, error) {
	label := string(m.Payer)
	u.record(label)
	if fn := u.onStart[label]; fn != nil {
		fn()
	}
	if gate := u.gate[label]; gate != nil {
		<-gate
	}
	if fn := u.after[label]; fn != nil {
		defer fn()
	}
	if err := u.fail[label]; err != nil {
		return UnitResult{}, err
	}
	return UnitResult{Context: label}, nil
}

// leaf builds a minimal valid unit labeled through its payer address.
func leaf(label string) *Single {
	m := tx.NewMessage(tx.Address(label))
	m.AddInstruction(tx.Instruction{Program: "noop"})
	return NewSingle(m)
}
