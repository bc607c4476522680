package tokens

import (
	"sync"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Builder accumulates tuples reported by a long running computation.
//
// Every snapshot re-encodes the whole buffer, so a final Snapshot is equal
// to Encode over everything pushed, regardless of how the pushes were split.
type Builder struct {
	mu       sync.Mutex
	tuples   []Tuple
	batch    int
	pending  int
	progress func(protocol.SemanticTokens)
}

func NewBuilder() *Builder {
	return &Builder{}
}

// OnProgress registers fn to receive an independent snapshot after every
// batch pushed tuples. A batch below one disables progress reporting.
func (b *Builder) OnProgress(batch int, fn func(protocol.SemanticTokens)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.batch = batch
	b.progress = fn
}

// Push appends tuples to the buffer and may emit a progress snapshot.
func (b *Builder) Push(tuples ...Tuple) {
	b.mu.Lock()
	b.tuples = append(b.tuples, tuples...)
	b.pending += len(tuples)

	var snapshot *protocol.SemanticTokens
	if b.progress != nil && b.batch > 0 && b.pending >= b.batch {
		b.pending = 0
		s := protocol.SemanticTokens{Data: Encode(b.tuples)}
		snapshot = &s
	}
	progress := b.progress
	b.mu.Unlock()

	if snapshot != nil {
		progress(*snapshot)
	}
}

// Len returns the number of buffered tuples.
func (b *Builder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.tuples)
}

// Snapshot encodes everything pushed so far.
func (b *Builder) Snapshot() protocol.SemanticTokens {
	b.mu.Lock()
	defer b.mu.Unlock()
	return protocol.SemanticTokens{Data: Encode(b.tuples)}
}
