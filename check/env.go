// Package check implements the Hindley-Milner style type checker: a
// unification-variable pool, row-typed records, and method/field dispatch
// over the conversion lattice in package types.
package check

import (
	"fmt"

	"github.com/bgpflow/filterlang/ast"
	"github.com/bgpflow/filterlang/types"
)

// builtins maps every primitive TypeExpr name to its concrete Type.
var builtins = map[string]*types.Type{
	"U8":              types.Simple(types.KU8),
	"U16":             types.Simple(types.KU16),
	"U32":             types.Simple(types.KU32),
	"Bool":            types.Simple(types.KBool),
	"Asn":             types.Simple(types.KAsn),
	"IpAddr":          types.Simple(types.KIPAddr),
	"Prefix":          types.Simple(types.KPrefix),
	"PrefixLength":    types.Simple(types.KPrefixLength),
	"Community":       types.Simple(types.KCommunity),
	"AsPath":          types.Simple(types.KAsPath),
	"Hop":             types.Simple(types.KHop),
	"Origin":          types.Simple(types.KOrigin),
	"NextHop":         types.Simple(types.KNextHop),
	"LocalPref":       types.Simple(types.KLocalPref),
	"MultiExitDisc":   types.Simple(types.KMultiExitDisc),
	"AtomicAggregate": types.Simple(types.KAtomicAggregate),
	"AggregatorInfo":  types.Simple(types.KAggregatorInfo),
	"AfiSafi":         types.Simple(types.KAfiSafi),
	"PathId":          types.Simple(types.KPathId),
	"NlriStatus":      types.Simple(types.KNlriStatus),
	"PeerId":          types.Simple(types.KPeerId),
	"PeerRibType":     types.Simple(types.KPeerRibType),
	"Provenance":      types.Simple(types.KProvenance),
	"RouteContext":    types.Simple(types.KRouteContext),
	"PrefixRoute":     types.Simple(types.KPrefixRoute),
	"FlowSpecRoute":   types.Simple(types.KFlowSpecRoute),
	"String":          types.Simple(types.KStringLiteral),
	"AcceptReject":    types.Simple(types.KAcceptReject),
}

// IsBuiltinTypeName reports whether name is a declared primitive/builtin
// type name, the signal the checker and the lowering pass use to recognize
// a type-level (static) method receiver such as `Asn.from_u32(...)`.
func IsBuiltinTypeName(name string) bool {
	_, ok := builtins[name]
	return ok
}

// lazyRecordVariants lists the BMP/BGP message variants that LazyRecord
// field access may dispatch on; a mismatch between the runtime tag and the
// requested variant yields Unknown rather than a hard error (§4.5/§9).
var lazyRecordVariants = map[string]bool{
	"RouteMonitoring":  true,
	"PeerUp":           true,
	"PeerDown":         true,
	"StatisticsReport": true,
	"Initiation":       true,
	"Termination":      true,
	"BgpUpdate":        true,
}

// Env is the global type environment for one compile: every declared
// RecordType, Rib, Table and OutputStream, resolved to a concrete Type.
type Env struct {
	Records map[string]*types.Type
	Ribs    map[string]*types.Type
	Tables  map[string]*types.Type
	Streams map[string]*types.Type
}

// NewEnv resolves every top-level declaration in prog into Env. RecordType
// declarations are resolved first so that Rib/Table/OutputStream `contains`
// clauses can refer to them regardless of declaration order.
func NewEnv(prog *ast.Program) (*Env, error) {
	env := &Env{
		Records: map[string]*types.Type{},
		Ribs:    map[string]*types.Type{},
		Tables:  map[string]*types.Type{},
		Streams: map[string]*types.Type{},
	}

	for _, d := range prog.Decls {
		rt, ok := d.(*ast.RecordTypeDecl)
		if !ok {
			continue
		}
		fields, err := env.resolveFields(rt.Fields)
		if err != nil {
			return nil, err
		}
		env.Records[rt.Name] = types.Named(rt.Name, fields)
	}

	for _, d := range prog.Decls {
		switch decl := d.(type) {
		case *ast.RibDecl:
			of, err := env.resolveContains(decl.Contains, decl.Fields)
			if err != nil {
				return nil, err
			}
			env.Ribs[decl.Name] = &types.Type{Kind: types.KRib, Of: of, KeyFields: decl.KeyFields}
		case *ast.TableDecl:
			of, err := env.resolveContains(decl.Contains, decl.Fields)
			if err != nil {
				return nil, err
			}
			env.Tables[decl.Name] = &types.Type{Kind: types.KTable, Of: of, KeyFields: decl.KeyFields}
		case *ast.OutputStreamDecl:
			of, err := env.resolveContains(decl.Contains, decl.Fields)
			if err != nil {
				return nil, err
			}
			env.Streams[decl.Name] = &types.Type{Kind: types.KOutputStream, Of: of}
		}
	}

	return env, nil
}

func (env *Env) resolveContains(name string, inlineFields []ast.Param) (*types.Type, error) {
	if rt, ok := env.Records[name]; ok {
		return rt, nil
	}
	if len(inlineFields) > 0 {
		fields, err := env.resolveFields(inlineFields)
		if err != nil {
			return nil, err
		}
		return types.Named(name, fields), nil
	}
	return nil, fmt.Errorf("undeclared record type %q", name)
}

func (env *Env) resolveFields(params []ast.Param) ([]types.Field, error) {
	fields := make([]types.Field, 0, len(params))
	for _, p := range params {
		ty, err := env.resolveTypeExpr(p.Type)
		if err != nil {
			return nil, err
		}
		fields = append(fields, types.Field{Name: p.Name, Type: ty})
	}
	return fields, nil
}

func (env *Env) resolveTypeExpr(te ast.TypeExpr) (*types.Type, error) {
	if ty, ok := builtins[te.Name]; ok {
		return ty, nil
	}
	if ty, ok := env.Records[te.Name]; ok {
		return ty, nil
	}
	if lazyRecordVariants[te.Name] {
		return &types.Type{Kind: types.KLazyRecord, Name: te.Name}, nil
	}
	return nil, fmt.Errorf("undeclared type %q", te.Name)
}
