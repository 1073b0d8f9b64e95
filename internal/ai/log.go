package ai

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one incident-log line: a status transition or an operator action
// in a room. The log lives in memory only; the HTML export is the persistent
// artifact.
type Entry struct {
	ID   string    `json:"id"`
	Room string    `json:"room"`
	At   time.Time `json:"at"`
	Text string    `json:"text"`
}

// Log is a concurrency-safe append-only incident log.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewLog() *Log {
	return &Log{}
}

// Append records an entry and returns it.
func (l *Log) Append(room, text string) Entry {
	e := Entry{
		ID:   uuid.NewString(),
		Room: room,
		At:   time.Now(),
		Text: text,
	}
	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()
	return e
}

// Entries returns a copy of all entries in append order.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// ByRoom groups entries per room, each group in chronological order.
func (l *Log) ByRoom() map[string][]Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string][]Entry)
	for _, e := range l.entries {
		out[e.Room] = append(out[e.Room], e)
	}
	for room := range out {
		es := out[room]
		sort.Slice(es, func(i, j int) bool { return es[i].At.Before(es[j].At) })
	}
	return out
}

// Len reports the number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
