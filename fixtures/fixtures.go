// Package fixtures loads golden end-to-end filter-map scenarios from YAML:
// a source program plus an rx/tx payload and the expected verdict and
// emitted messages, for the kind of fixture-driven regression test a large
// rule set accumulates over time.
package fixtures

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/bgpflow/filterlang/types"
	"gopkg.in/yaml.v3"
)

// MessageExpectation is one expected output-stream record.
type MessageExpectation struct {
	Stream string         `yaml:"stream"`
	Body   map[string]any `yaml:"body"`
}

// Expectation is the expected outcome of running a Scenario's unit.
type Expectation struct {
	Accept   bool                 `yaml:"accept"`
	Messages []MessageExpectation `yaml:"messages"`
}

// Scenario is one golden end-to-end test case: a filter-map source, the
// unit within it to run, an rx/tx payload, and the expected result.
type Scenario struct {
	Name   string         `yaml:"name"`
	Source string         `yaml:"source"`
	Unit   string         `yaml:"unit"`
	Rx     map[string]any `yaml:"rx"`
	Tx     map[string]any `yaml:"tx"`
	Expect Expectation    `yaml:"expect"`
}

// Load reads and parses a Scenario from a YAML file at path.
func Load(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixtures: reading %s: %w", path, err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, fmt.Errorf("fixtures: parsing %s: %w", path, err)
	}
	return &sc, nil
}

// ToValue converts a YAML-decoded field map into a KRecord Value, inferring
// each scalar leaf's Kind from its shape (see scalarToValue). Nested maps
// become nested records, lists become KList.
func ToValue(m map[string]any) types.Value {
	fields := make(map[string]types.Value, len(m))
	for k, v := range m {
		fields[k] = anyToValue(v)
	}
	return types.Value{Kind: types.KRecord, Fields: fields}
}

func anyToValue(v any) types.Value {
	switch val := v.(type) {
	case map[string]any:
		return ToValue(val)
	case []any:
		elems := make([]types.Value, len(val))
		for i, e := range val {
			elems[i] = anyToValue(e)
		}
		return types.Value{Kind: types.KList, List: elems}
	default:
		return scalarToValue(v)
	}
}

var (
	asnPattern    = regexp.MustCompile(`^AS\d+$`)
	ipv4Pattern   = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}$`)
	prefixPattern = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}/\d{1,2}$`)
)

// scalarToValue maps one YAML scalar to a Value, recognizing the textual
// shapes a filter-map fixture commonly needs (an "AS<n>" asn literal, a
// dotted-quad address, a CIDR prefix) in addition to plain bools/numbers/
// strings. A fixture that needs a Kind this heuristic can't infer should
// express the field in its filter-map source's own literal syntax instead
// of through a bare YAML scalar.
func scalarToValue(v any) types.Value {
	switch val := v.(type) {
	case bool:
		return types.Value{Kind: types.KBool, Bool: val}
	case int:
		return types.Value{Kind: types.KIntegerLiteral, I64: int64(val)}
	case int64:
		return types.Value{Kind: types.KIntegerLiteral, I64: val}
	case string:
		switch {
		case asnPattern.MatchString(val):
			n, _ := strconv.ParseUint(strings.TrimPrefix(val, "AS"), 10, 32)
			return types.Value{Kind: types.KAsn, U64: n}
		case prefixPattern.MatchString(val):
			return types.Value{Kind: types.KPrefix, Str: val}
		case ipv4Pattern.MatchString(val):
			return types.Value{Kind: types.KIPAddr, Str: val}
		default:
			return types.Value{Kind: types.KStringLiteral, Str: val}
		}
	default:
		return types.Unknown
	}
}
