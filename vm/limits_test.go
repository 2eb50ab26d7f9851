package vm_test

import (
	"testing"

	"github.com/bgpflow/filterlang/compiler"
	"github.com/bgpflow/filterlang/types"
	"github.com/bgpflow/filterlang/vm"
	"github.com/stretchr/testify/require"
)

// TestExecStepBudgetExceeded checks that an instruction stream that never
// reaches a Return instruction is killed once it exceeds the step budget,
// instead of spinning forever.
func TestExecStepBudgetExceeded(t *testing.T) {
	unit := &compiler.Unit{
		Name: "loop",
		Main: []compiler.Instr{
			{Op: compiler.OpJump, Target: 0},
		},
		Terms:   map[string][]compiler.Instr{},
		Actions: map[string][]compiler.Instr{},
		Streams: map[string]*types.Type{},
	}

	v, err := vm.Build(unit, vm.WithMaxSteps(1000))
	require.NoError(t, err)

	_, err = v.Exec(types.Value{}, types.Value{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "step budget exceeded")
}

// TestExecRecursionLimitExceeded checks that an action that (directly or
// transitively) calls itself is killed once it exceeds the recursion
// depth, instead of overflowing the Go call stack.
func TestExecRecursionLimitExceeded(t *testing.T) {
	unit := &compiler.Unit{
		Name: "recurse",
		Main: []compiler.Instr{
			{Op: compiler.OpCallAction, Name: "loop"},
			{Op: compiler.OpReturnAccept},
		},
		Terms: map[string][]compiler.Instr{},
		Actions: map[string][]compiler.Instr{
			"loop": {
				{Op: compiler.OpCallAction, Name: "loop"},
			},
		},
		Streams: map[string]*types.Type{},
	}

	v, err := vm.Build(unit, vm.WithMaxRecursionDepth(8))
	require.NoError(t, err)

	_, err = v.Exec(types.Value{}, types.Value{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "recursion limit exceeded")
}
