package vm

import "github.com/bgpflow/filterlang/types"

// LinearMemory is the ephemeral scratch space one Exec call owns: a value
// stack and the fixed locals array. It is never shared across calls, so an
// immutable compiled Unit can be invoked from many goroutines at once (§5).
type LinearMemory struct {
	stack []types.Value
	vars  []types.Value
}

// NewLinearMemory allocates scratch space for a unit with nvars locals.
func NewLinearMemory(nvars int) *LinearMemory {
	return &LinearMemory{vars: make([]types.Value, nvars)}
}

func (m *LinearMemory) push(v types.Value) { m.stack = append(m.stack, v) }

func (m *LinearMemory) pop() types.Value {
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v
}

func (m *LinearMemory) popN(n int) []types.Value {
	vs := make([]types.Value, n)
	for i := n - 1; i >= 0; i-- {
		vs[i] = m.pop()
	}
	return vs
}
