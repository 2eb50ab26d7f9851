// Package datasource declares the external collaborator interfaces the VM
// dispatches DataSrcCall instructions into (ribs, tables) and the queue
// Emit instructions append to (output streams). Implementations — backed
// by a real routing table, a database, or an in-memory test double — are
// supplied by the host embedding this module at vm.Build time.
package datasource

import "github.com/bgpflow/filterlang/types"

// Rib is a longest-prefix-match routing table. Uniqueness of stored routes
// is enforced at the store boundary, not by the VM (§4.5).
type Rib interface {
	LongestMatch(prefix types.Value) (types.Value, bool)
	Contains(key types.Value) bool
	KeyFields() []string
}

// Table is a flat keyed store over a declared unique-field tuple.
type Table interface {
	Get(key types.Value) (types.Value, bool)
	Contains(key types.Value) bool
	KeyFields() []string
}

// Message is one record appended to an OutputStream's queue by an Emit
// instruction, carrying the target stream name and the emitted body.
type Message struct {
	Stream string
	Topic  string
	Body   types.Value
}

// OutputStream collects the records one vm.Exec invocation emits. A fresh
// OutputStream is allocated per invocation; it is never shared.
type OutputStream struct {
	messages []Message
}

// Emit appends a message to the queue.
func (o *OutputStream) Emit(stream string, body types.Value) {
	o.messages = append(o.messages, Message{Stream: stream, Body: body})
}

// Messages returns every record emitted so far, in emission order.
func (o *OutputStream) Messages() []Message { return o.messages }
