// Package achievements evaluates the badge catalog against progress
// snapshots and keeps the set of unlocked badges.
//
// Unlocks are permanent. The set is loaded once when the engine is created
// and written after every pass that unlocks something.
package achievements

import (
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"focusflow/internal/localstate"
)

// UnlockSet is the persisted form of the unlocked badges.
type UnlockSet struct {
	UnlockedIDs []string             `json:"unlockedIds"`
	UnlockedAt  map[string]time.Time `json:"unlockedAt,omitempty"`
	SavedAt     time.Time            `json:"savedAt"`
}

// UnlockStore loads and saves the unlock set.
type UnlockStore interface {
	Load() (UnlockSet, error)
	Save(UnlockSet) error
}

// NewFileStore keeps the unlock set in a JSON file.
func NewFileStore(path string) *localstate.File[UnlockSet] {
	return localstate.Open[UnlockSet](path)
}

// Achievement is a catalog entry with its unlock state.
type Achievement struct {
	Definition
	Unlocked   bool      `json:"unlocked"`
	UnlockedAt time.Time `json:"unlocked_at,omitempty"`
}

// Evaluation is the outcome of one pass over the catalog.
type Evaluation struct {
	// Unlocked lists every badge unlocked by this pass, in catalog order.
	Unlocked []Achievement
	// Notify is the single badge to announce: the last one in Unlocked.
	Notify *Achievement
}

// Engine evaluates snapshots. It is safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	store    UnlockStore
	unlocked map[string]time.Time
	order    []string
	now      func() time.Time
	logger   *log.Logger
	onUnlock func(Achievement)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// OnUnlock registers fn to receive the announced badge of each pass.
func OnUnlock(fn func(Achievement)) Option {
	return func(e *Engine) { e.onUnlock = fn }
}

// NewEngine loads the unlock set from store. A store that cannot be read is
// logged and treated as empty.
func NewEngine(store UnlockStore, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		unlocked: make(map[string]time.Time),
		now:      time.Now,
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	if store == nil {
		return e
	}

	set, err := store.Load()
	if err != nil {
		e.logger.Warn("achievement state unreadable, starting empty", "err", err)
		return e
	}
	for _, id := range set.UnlockedIDs {
		if _, dup := e.unlocked[id]; dup {
			continue
		}
		at, ok := set.UnlockedAt[id]
		if !ok {
			at = set.SavedAt
		}
		e.unlocked[id] = at
		e.order = append(e.order, id)
	}
	return e
}

// Evaluate checks every locked badge against s, unlocks those now met and
// persists the result. A failed save is logged; the unlocks stand.
func (e *Engine) Evaluate(s Snapshot) Evaluation {
	e.mu.Lock()
	var ev Evaluation
	now := e.now()
	for _, d := range catalog {
		if _, done := e.unlocked[d.ID]; done {
			continue
		}
		if !Met(d, s) {
			continue
		}
		e.unlocked[d.ID] = now
		e.order = append(e.order, d.ID)
		ev.Unlocked = append(ev.Unlocked, Achievement{Definition: d, Unlocked: true, UnlockedAt: now})
	}
	if len(ev.Unlocked) > 0 {
		last := ev.Unlocked[len(ev.Unlocked)-1]
		ev.Notify = &last
		e.persistLocked(now)
	}
	listener := e.onUnlock
	e.mu.Unlock()

	if ev.Notify != nil {
		e.logger.Info("achievement unlocked", "id", ev.Notify.ID, "count", len(ev.Unlocked))
		if listener != nil {
			listener(*ev.Notify)
		}
	}
	return ev
}

func (e *Engine) persistLocked(now time.Time) {
	if e.store == nil {
		return
	}
	set := UnlockSet{
		UnlockedIDs: append([]string(nil), e.order...),
		UnlockedAt:  make(map[string]time.Time, len(e.unlocked)),
		SavedAt:     now,
	}
	for id, at := range e.unlocked {
		set.UnlockedAt[id] = at
	}
	if err := e.store.Save(set); err != nil {
		e.logger.Warn("saving achievements failed", "err", err)
	}
}

// Achievements lists the catalog with unlock state, in catalog order.
func (e *Engine) Achievements() []Achievement {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Achievement, 0, len(catalog))
	for _, d := range catalog {
		at, ok := e.unlocked[d.ID]
		out = append(out, Achievement{Definition: d, Unlocked: ok, UnlockedAt: at})
	}
	return out
}

// IsUnlocked reports whether id has been unlocked.
func (e *Engine) IsUnlocked(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.unlocked[id]
	return ok
}

// UnlockedCount counts unlocked catalog entries.
func (e *Engine) UnlockedCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, d := range catalog {
		if _, ok := e.unlocked[d.ID]; ok {
			n++
		}
	}
	return n
}
