package fixtures_test

import (
	"testing"

	"github.com/bgpflow/filterlang/compiler"
	"github.com/bgpflow/filterlang/fixtures"
	"github.com/bgpflow/filterlang/types"
	"github.com/bgpflow/filterlang/vm"
	"github.com/stretchr/testify/require"
)

func TestGoldenScenarios(t *testing.T) {
	sc, err := fixtures.Load("testdata/asn_equality.yaml")
	require.NoError(t, err)
	require.Equal(t, "asn-equality-accepts", sc.Name)

	prog, err := compiler.CompileSource(sc.Name+".flt", sc.Source)
	require.NoError(t, err)

	unit := prog.Units[sc.Unit]
	require.NotNil(t, unit)

	v, err := vm.Build(unit)
	require.NoError(t, err)

	rx := fixtures.ToValue(sc.Rx)
	tx := types.Value{}
	if sc.Tx != nil {
		tx = fixtures.ToValue(sc.Tx)
	}

	res, err := v.Exec(rx, tx)
	require.NoError(t, err)
	require.Equal(t, sc.Expect.Accept, res.Accept)
	require.Len(t, res.Messages, len(sc.Expect.Messages))
}
