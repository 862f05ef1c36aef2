package session

import (
	"context"
	"sync"
	"time"

	"menubot/internal/logging"
)

// Entry is the stored state of one user.
type Entry struct {
	State   State
	Ctx     Context
	Touched time.Time
}

// Table maps user ids to their conversation entries.
type Table struct {
	mu      sync.Mutex
	entries map[int64]*Entry
	ttl     time.Duration
	now     func() time.Time
}

// TableOption configures a Table.
type TableOption func(*Table)

// WithTTL sets how long an idle entry survives Sweep. Zero keeps entries
// forever.
func WithTTL(ttl time.Duration) TableOption {
	return func(t *Table) { t.ttl = ttl }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) TableOption {
	return func(t *Table) { t.now = now }
}

// NewTable creates an empty table.
func NewTable(opts ...TableOption) *Table {
	t := &Table{
		entries: make(map[int64]*Entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Get returns the user's state and context. Unknown users are in StateNone
// with an empty context.
func (t *Table) Get(userID int64) (State, Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[userID]
	if !ok {
		return StateNone, Context{}
	}
	return e.State, e.Ctx
}

// Set stores state and ctx for the user, creating the entry on first use.
func (t *Table) Set(userID int64, state State, ctx Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[userID]
	if !ok {
		e = &Entry{}
		t.entries[userID] = e
		logging.SessionDebug("session created for user %d", userID)
	}
	e.State = state
	e.Ctx = ctx
	e.Touched = t.now()
}

// Reset moves the user to state with a cleared context.
func (t *Table) Reset(userID int64, state State) {
	t.Set(userID, state, Context{})
}

// Touch marks the entry as active without changing it.
func (t *Table) Touch(userID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[userID]; ok {
		e.Touched = t.now()
	}
}

// Delete drops the user's entry.
func (t *Table) Delete(userID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, userID)
}

// Len returns the number of stored entries.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Sweep removes entries idle for longer than the TTL and returns how many
// were removed.
func (t *Table) Sweep() int {
	if t.ttl <= 0 {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-t.ttl)
	removed := 0
	for id, e := range t.entries {
		if e.Touched.Before(cutoff) {
			delete(t.entries, id)
			removed++
		}
	}
	if removed > 0 {
		logging.Session("swept %d idle sessions, %d remain", removed, len(t.entries))
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is cancelled.
func (t *Table) RunSweeper(ctx context.Context, interval time.Duration) error {
	if t.ttl <= 0 || interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			t.Sweep()
		}
	}
}
