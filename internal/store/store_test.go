package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/sadopc/fitfeast/internal/diary"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleState() diary.State {
	return diary.State{
		Entries: []diary.FoodEntry{
			{ID: "b", Timestamp: 1740830400000, FoodItem: `Latte "large"`, Category: diary.Drinks, ServingSize: 1, Unit: "cup", CaloriesPerUnit: 190.5, TotalCalories: 191},
			{ID: "a", Timestamp: 1740826800000, FoodItem: "Apple", Category: diary.Fruits, ServingSize: 2, Unit: "piece", CaloriesPerUnit: 95, TotalCalories: 190},
		},
		Goal: 1850,
	}
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	// Should have run migration v1
	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Fatalf("expected user_version 1, got %d", version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/fitfeast.db"
	s, err := New(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(sampleState()); err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Reopen: should succeed, not re-migrate, and keep the data.
	s2, err := New(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	if diff := cmp.Diff(sampleState(), s2.Load()); diff != "" {
		t.Fatalf("state lost across reopen (-want +got):\n%s", diff)
	}
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "fitfeast.db" {
		t.Fatalf("unexpected path %q", path)
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	// Running migrate again should be a no-op
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

// ============================================================
// Slots
// ============================================================

func TestSlotPutGet(t *testing.T) {
	s := newTestStore(t)
	if err := s.Put("k", "v1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Put("k", "v2"); err != nil {
		t.Fatal(err)
	}
	v, err := s.Get("k")
	if err != nil {
		t.Fatal(err)
	}
	if v != "v2" {
		t.Fatalf("value = %q, want v2", v)
	}
	if _, err := s.UpdatedAt("k"); err != nil {
		t.Fatalf("UpdatedAt: %v", err)
	}
}

func TestSlotNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.UpdatedAt("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ============================================================
// State load/save
// ============================================================

func TestLoadMissingReturnsDefault(t *testing.T) {
	s := newTestStore(t)
	st := s.Load()
	if st.Goal != diary.DefaultGoal {
		t.Fatalf("goal = %v, want default", st.Goal)
	}
	if st.Entries == nil || len(st.Entries) != 0 {
		t.Fatalf("expected empty entries, got %#v", st.Entries)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	states := []diary.State{
		diary.DefaultState(),
		sampleState(),
		{Entries: nil, Goal: 1234.5},
	}
	for _, want := range states {
		if err := s.Save(want); err != nil {
			t.Fatal(err)
		}
		got := s.Load()
		if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
			t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestSaveWritesEmptyList(t *testing.T) {
	s := newTestStore(t)
	s.Save(diary.State{Goal: 2000})
	raw, _ := s.Get(StateKey)
	if raw != `{"entries":[],"goal":2000}` {
		t.Fatalf("unexpected payload %s", raw)
	}
}

func TestLoadCorruptFallsBack(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	s, err := New(":memory:", zap.New(core))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	s.Put(StateKey, "{not json")
	st := s.Load()
	if st.Goal != diary.DefaultGoal || len(st.Entries) != 0 {
		t.Fatalf("expected default state, got %+v", st)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected one warning, got %d", logs.Len())
	}
}

func TestLoadFixesBadGoal(t *testing.T) {
	s := newTestStore(t)
	tests := []string{
		`{"entries":[]}`,
		`{"entries":[],"goal":0}`,
		`{"entries":[],"goal":-20}`,
		`{"goal":1500}`,
	}
	for _, raw := range tests {
		s.Put(StateKey, raw)
		st := s.Load()
		if raw == `{"goal":1500}` {
			if st.Goal != 1500 || st.Entries == nil {
				t.Fatalf("%s: got %+v", raw, st)
			}
			continue
		}
		if st.Goal != diary.DefaultGoal {
			t.Fatalf("%s: goal = %v, want default", raw, st.Goal)
		}
	}
}

func TestStoreAsPersister(t *testing.T) {
	s := newTestStore(t)
	d := diary.New(s.Load(), s)
	d.Add(diary.Draft{FoodItem: "Toast", Category: diary.Grains, ServingSize: 2, Unit: "slice", CaloriesPerUnit: 80})
	d.SetGoal(1900)

	if diff := cmp.Diff(d.Snapshot(), s.Load()); diff != "" {
		t.Fatalf("persisted state differs (-diary +store):\n%s", diff)
	}
}
