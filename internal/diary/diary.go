package diary

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Persister snapshots the state after every mutation.
type Persister interface {
	Save(State) error
}

// Diary owns the session's entries and goal. All mutations go through
// Add, Remove, SetGoal and Restore, each followed by a save. A Diary is
// meant to be driven from a single goroutine.
type Diary struct {
	state   State
	persist Persister
	log     *zap.Logger

	now   func() time.Time
	newID func() string

	lastSynced time.Time
	syncErr    error
}

type Option func(*Diary)

func WithLogger(l *zap.Logger) Option {
	return func(d *Diary) {
		if l != nil {
			d.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(d *Diary) { d.now = now }
}

func WithIDs(next func() string) Option {
	return func(d *Diary) { d.newID = next }
}

// WithLastSynced seeds LastSynced, typically with the time the loaded
// state was written.
func WithLastSynced(t time.Time) Option {
	return func(d *Diary) { d.lastSynced = t }
}

// New wraps an initial state, usually the one returned by the store's Load.
// p may be nil for a purely in-memory diary.
func New(initial State, p Persister, opts ...Option) *Diary {
	d := &Diary{
		state:   cloneState(initial),
		persist: p,
		log:     zap.NewNop(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	d.state.Goal = NormalizeGoal(d.state.Goal)
	for _, o := range opts {
		o(d)
	}
	return d
}

// Add validates the draft, stamps it and puts it at the front of the log.
func (d *Diary) Add(draft Draft) (FoodEntry, error) {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return FoodEntry{}, err
	}

	id := d.newID()
	for d.indexOf(id) >= 0 {
		id = d.newID()
	}

	e := FoodEntry{
		ID:              id,
		Timestamp:       d.now().UnixMilli(),
		FoodItem:        draft.FoodItem,
		Category:        draft.Category,
		ServingSize:     draft.ServingSize,
		Unit:            draft.Unit,
		CaloriesPerUnit: draft.CaloriesPerUnit,
		TotalCalories:   draft.TotalCalories(),
	}
	d.state.Entries = slices.Insert(d.state.Entries, 0, e)
	d.sync()
	return e, nil
}

// Remove drops the entry with the given id. Unknown ids are ignored.
func (d *Diary) Remove(id string) bool {
	i := d.indexOf(id)
	if i < 0 {
		return false
	}
	d.state.Entries = slices.Delete(d.state.Entries, i, i+1)
	d.sync()
	return true
}

func (d *Diary) SetGoal(goal float64) error {
	if !validGoal(goal) {
		return ErrInvalidGoal
	}
	d.state.Goal = goal
	d.sync()
	return nil
}

// Restore replaces the whole entry list. The goal is only replaced when it
// is a usable value, so callers pass 0 to keep the current one.
func (d *Diary) Restore(entries []FoodEntry, goal float64) {
	d.state.Entries = slices.Clone(entries)
	if d.state.Entries == nil {
		d.state.Entries = []FoodEntry{}
	}
	if validGoal(goal) {
		d.state.Goal = goal
	}
	d.sync()
}

// Sync writes the current state without mutating it.
func (d *Diary) Sync() error {
	d.sync()
	return d.syncErr
}

func (d *Diary) Snapshot() State { return cloneState(d.state) }

func (d *Diary) Entries() []FoodEntry { return slices.Clone(d.state.Entries) }

func (d *Diary) Goal() float64 { return d.state.Goal }

func (d *Diary) Len() int { return len(d.state.Entries) }

func (d *Diary) Summary() Summary { return Summarize(d.state) }

// LastSynced is the time of the last successful save.
func (d *Diary) LastSynced() time.Time { return d.lastSynced }

// SyncErr is the error from the most recent save, nil once a save succeeds.
func (d *Diary) SyncErr() error { return d.syncErr }

func (d *Diary) sync() {
	if d.persist == nil {
		return
	}
	if err := d.persist.Save(d.Snapshot()); err != nil {
		d.syncErr = err
		d.log.Warn("could not persist diary, keeping changes in memory",
			zap.Error(err), zap.Int("entries", len(d.state.Entries)))
		return
	}
	d.syncErr = nil
	d.lastSynced = d.now()
}

func (d *Diary) indexOf(id string) int {
	return slices.IndexFunc(d.state.Entries, func(e FoodEntry) bool { return e.ID == id })
}

func cloneState(s State) State {
	entries := slices.Clone(s.Entries)
	if entries == nil {
		entries = []FoodEntry{}
	}
	return State{Entries: entries, Goal: s.Goal}
}
