package types_test

import (
	"sort"
	"testing"

	"github.com/bgpflow/filterlang/types"
	"github.com/stretchr/testify/require"
)

// TestSortedRecordInvariant checks Testable Property 2: a Record's static
// field vector is always sorted by name, regardless of the order fields
// were supplied in, for both named and anonymous constructors.
func TestSortedRecordInvariant(t *testing.T) {
	fields := []types.Field{
		{Name: "peer_ip", Type: types.Simple(types.KIPAddr)},
		{Name: "asn", Type: types.Simple(types.KAsn)},
		{Name: "prefix", Type: types.Simple(types.KPrefix)},
	}

	named := types.Named("Message", fields)
	require.True(t, sort.SliceIsSorted(named.Fields, func(i, j int) bool {
		return named.Fields[i].Name < named.Fields[j].Name
	}))
	require.Equal(t, []string{"asn", "peer_ip", "prefix"}, fieldNames(named))

	anon := types.Anonymous(fields)
	require.True(t, sort.SliceIsSorted(anon.Fields, func(i, j int) bool {
		return anon.Fields[i].Name < anon.Fields[j].Name
	}))
	require.Equal(t, []string{"asn", "peer_ip", "prefix"}, fieldNames(anon))

	// Named/Anonymous must not mutate the caller's slice.
	require.Equal(t, "peer_ip", fields[0].Name)
}

func fieldNames(t *types.Type) []string {
	names := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		names[i] = f.Name
	}
	return names
}
