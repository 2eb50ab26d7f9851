package vm

import (
	"github.com/bgpflow/filterlang/external"
	"github.com/bgpflow/filterlang/types"
	"golang.org/x/text/unicode/norm"
)

func getFieldPath(v types.Value, path []string) (types.Value, error) {
	cur := v
	for _, name := range path {
		if cur.Kind != types.KRecord {
			return types.Value{}, newErr(ErrInvalidPayload, "field %q: not a record", name)
		}
		next, ok := cur.Fields[name]
		if !ok {
			return types.Value{}, newErr(ErrInvalidPayload, "record has no field %q", name)
		}
		cur = next
	}
	return cur, nil
}

// setFieldPath returns a clone of v with the field chain named by path
// replaced by leaf, per the uniquely-owned rx/tx mutation model (§9):
// StoreRxField commits directly to an owned clone rather than tracking a
// change set.
func setFieldPath(v types.Value, path []string, leaf types.Value) (types.Value, error) {
	if len(path) == 0 {
		return leaf, nil
	}
	if v.Kind != types.KRecord {
		return types.Value{}, newErr(ErrInvalidWrite, "field %q: not a record", path[0])
	}
	out := v.Clone()
	if out.Fields == nil {
		out.Fields = map[string]types.Value{}
	}
	if len(path) == 1 {
		out.Fields[path[0]] = leaf
		return out, nil
	}
	child := out.Fields[path[0]]
	newChild, err := setFieldPath(child, path[1:], leaf)
	if err != nil {
		return types.Value{}, err
	}
	out.Fields[path[0]] = newChild
	return out, nil
}

// loadLazyField materializes one field of a byte-backed record by
// dispatching to the external accessor for the variant named by v.Lazy.
// A mismatch between v's runtime tag and the requested variant yields
// Unknown, per the distilled specification's safe cross-variant access
// rule, rather than a hard error.
func loadLazyField(v types.Value, variant string, path []string, accessors external.Accessors) (types.Value, error) {
	if v.Kind != types.KLazyRecord || v.Lazy == nil {
		return types.Value{}, newErr(ErrInvalidPayload, "not a lazy record")
	}
	if v.Lazy.Variant != variant {
		return types.Unknown, nil
	}
	if accessors == nil {
		return types.Unknown, nil
	}
	out, err := accessors.Access(variant, v.Lazy.Bytes, path)
	if err != nil {
		return types.Value{}, err
	}
	if out.Str != "" {
		out.Str = norm.NFC.String(out.Str)
	}
	return out, nil
}
