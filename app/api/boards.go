package api

import (
	"sync"
	"time"

	"github.com/lysyi3m/press-digest/app/curation"
)

const boardIdleTTL = 2 * time.Hour

type boardEntry struct {
	board    *curation.Board
	lastUsed time.Time
}

// BoardRegistry keeps one curation board per client, keyed by the
// X-Client-ID header. Boards idle for longer than boardIdleTTL are dropped.
type BoardRegistry struct {
	mu              sync.Mutex
	boards          map[string]*boardEntry
	initialPageSize int
	maxPageSize     int
	now             func() time.Time
}

func NewBoardRegistry(initialPageSize, maxPageSize int) *BoardRegistry {
	return &BoardRegistry{
		boards:          make(map[string]*boardEntry),
		initialPageSize: initialPageSize,
		maxPageSize:     maxPageSize,
		now:             time.Now,
	}
}

func (r *BoardRegistry) Get(clientID string) *curation.Board {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.evictLocked(now)

	entry, ok := r.boards[clientID]
	if !ok {
		entry = &boardEntry{board: curation.NewBoard(r.initialPageSize, r.maxPageSize)}
		r.boards[clientID] = entry
	}
	entry.lastUsed = now
	return entry.board
}

func (r *BoardRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.boards)
}

func (r *BoardRegistry) evictLocked(now time.Time) {
	for id, entry := range r.boards {
		if now.Sub(entry.lastUsed) > boardIdleTTL {
			delete(r.boards, id)
		}
	}
}
