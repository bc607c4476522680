package rename

import (
	"sync"

	"github.com/rottenpen/volar/internal/engine"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

type snapshotEntry struct {
	text  string
	owner string
}

// Snapshot holds the text renamed files had before the rename, so engines
// computing import updates never see content a concurrent close has already
// dropped. Entries belong to the batch that captured them.
type Snapshot struct {
	mu      sync.RWMutex
	entries map[protocol.DocumentUri]snapshotEntry
}

var _ engine.TextSource = (*Snapshot)(nil)

func NewSnapshot() *Snapshot {
	return &Snapshot{entries: make(map[protocol.DocumentUri]snapshotEntry)}
}

// Capture copies the current text of every uri that source knows about.
// Unknown documents are skipped.
func (s *Snapshot) Capture(owner string, uris []protocol.DocumentUri, source engine.TextSource) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	captured := 0
	for _, uri := range uris {
		text, ok := source.Text(uri)
		if !ok {
			continue
		}
		s.entries[uri] = snapshotEntry{text: text, owner: owner}
		captured++
	}
	return captured
}

func (s *Snapshot) Text(uri protocol.DocumentUri) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[uri]
	return entry.text, ok
}

// Release drops every entry captured by owner.
func (s *Snapshot) Release(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for uri, entry := range s.entries {
		if entry.owner == owner {
			delete(s.entries, uri)
		}
	}
}

func (s *Snapshot) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
