package diary

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// memPersister records every saved snapshot.
type memPersister struct {
	saved []State
	err   error
}

func (m *memPersister) Save(s State) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, s)
	return nil
}

func (m *memPersister) last() State { return m.saved[len(m.saved)-1] }

func newTestDiary(t *testing.T, p Persister) *Diary {
	t.Helper()
	n := 0
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return New(DefaultState(), p,
		WithIDs(func() string { n++; return fmt.Sprintf("id-%d", n) }),
		WithClock(func() time.Time { return clock }),
	)
}

func apple() Draft {
	return Draft{FoodItem: "Apple", Category: Fruits, ServingSize: 2, Unit: "piece", CaloriesPerUnit: 95}
}

// ============================================================
// Add
// ============================================================

func TestAddAppleScenario(t *testing.T) {
	p := &memPersister{}
	d := newTestDiary(t, p)

	e, err := d.Add(apple())
	if err != nil {
		t.Fatal(err)
	}
	if e.TotalCalories != 190 {
		t.Fatalf("TotalCalories = %d, want 190", e.TotalCalories)
	}
	if e.ID == "" {
		t.Fatal("entry should have an id")
	}
	if e.Timestamp != time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli() {
		t.Fatalf("unexpected timestamp %d", e.Timestamp)
	}

	s := d.Summary()
	if s.Total != 190 {
		t.Fatalf("total = %d, want 190", s.Total)
	}
	if math.Abs(s.Percentage-9.5) > 1e-9 {
		t.Fatalf("percentage = %v, want 9.5", s.Percentage)
	}
	if s.Remaining != 1810 {
		t.Fatalf("remaining = %v, want 1810", s.Remaining)
	}
	if len(p.saved) != 1 {
		t.Fatalf("expected 1 save, got %d", len(p.saved))
	}
}

func TestAddPrepends(t *testing.T) {
	d := newTestDiary(t, nil)
	d.Add(apple())
	d.Add(Draft{FoodItem: "Milk", Category: Dairy, ServingSize: 1, Unit: "cup", CaloriesPerUnit: 103})

	entries := d.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].FoodItem != "Milk" || entries[1].FoodItem != "Apple" {
		t.Fatalf("expected newest first, got %s, %s", entries[0].FoodItem, entries[1].FoodItem)
	}
}

func TestAddRoundsTotal(t *testing.T) {
	tests := []struct {
		serving, rate float64
		want          int
	}{
		{1, 0, 0},
		{1.5, 101, 152}, // 151.5
		{0.3, 10, 3},
		{2.25, 4.4, 10}, // 9.9
		{150, 0.52, 78},
	}
	d := newTestDiary(t, nil)
	for _, tt := range tests {
		e, err := d.Add(Draft{FoodItem: "x", Category: Other, ServingSize: tt.serving, CaloriesPerUnit: tt.rate})
		if err != nil {
			t.Fatal(err)
		}
		if e.TotalCalories != tt.want {
			t.Errorf("%v × %v = %d, want %d", tt.serving, tt.rate, e.TotalCalories, tt.want)
		}
	}
}

func TestAddTotalsMatchSum(t *testing.T) {
	d := newTestDiary(t, nil)
	want := 0
	for i := 1; i <= 20; i++ {
		draft := Draft{FoodItem: "item", Category: Snacks, ServingSize: float64(i) / 3, CaloriesPerUnit: 37.7}
		e, err := d.Add(draft)
		if err != nil {
			t.Fatal(err)
		}
		if e.TotalCalories != int(math.Round(draft.ServingSize*draft.CaloriesPerUnit)) {
			t.Fatalf("entry %d total %d not rounded product", i, e.TotalCalories)
		}
		want += e.TotalCalories
	}
	if got := DailyTotal(d.Entries()); got != want {
		t.Fatalf("DailyTotal = %d, want %d", got, want)
	}
}

func TestAddDefaultsUnit(t *testing.T) {
	d := newTestDiary(t, nil)
	e, err := d.Add(Draft{FoodItem: "  Rice ", Category: Grains, ServingSize: 1, CaloriesPerUnit: 200})
	if err != nil {
		t.Fatal(err)
	}
	if e.Unit != DefaultUnit {
		t.Fatalf("unit = %q, want %q", e.Unit, DefaultUnit)
	}
	if e.FoodItem != "Rice" {
		t.Fatalf("food item not trimmed: %q", e.FoodItem)
	}
}

func TestAddRejectsInvalidDraft(t *testing.T) {
	tests := []struct {
		name  string
		draft Draft
		field string
	}{
		{"empty name", Draft{FoodItem: "  ", Category: Other, ServingSize: 1}, "foodItem"},
		{"bad category", Draft{FoodItem: "x", Category: "Candy", ServingSize: 1}, "category"},
		{"zero serving", Draft{FoodItem: "x", Category: Other, ServingSize: 0}, "servingSize"},
		{"negative serving", Draft{FoodItem: "x", Category: Other, ServingSize: -2}, "servingSize"},
		{"nan serving", Draft{FoodItem: "x", Category: Other, ServingSize: math.NaN()}, "servingSize"},
		{"negative rate", Draft{FoodItem: "x", Category: Other, ServingSize: 1, CaloriesPerUnit: -1}, "caloriesPerUnit"},
		{"inf rate", Draft{FoodItem: "x", Category: Other, ServingSize: 1, CaloriesPerUnit: math.Inf(1)}, "caloriesPerUnit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &memPersister{}
			d := newTestDiary(t, p)
			_, err := d.Add(tt.draft)
			if !errors.Is(err, ErrInvalidDraft) {
				t.Fatalf("expected ErrInvalidDraft, got %v", err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Fatalf("expected field %q, got %v", tt.field, err)
			}
			if d.Len() != 0 || len(p.saved) != 0 {
				t.Fatal("rejected draft must not change state")
			}
		})
	}
}

func TestAddUniqueIDs(t *testing.T) {
	ids := []string{"dup", "dup", "other"}
	i := 0
	d := New(DefaultState(), nil, WithIDs(func() string { id := ids[i]; i++; return id }))

	a, _ := d.Add(apple())
	b, _ := d.Add(apple())
	if a.ID == b.ID {
		t.Fatalf("ids should be unique, both %q", a.ID)
	}
}

// ============================================================
// Remove
// ============================================================

func TestRemoveIdempotent(t *testing.T) {
	p := &memPersister{}
	d := newTestDiary(t, p)
	e, _ := d.Add(apple())
	d.Add(apple())

	if !d.Remove(e.ID) {
		t.Fatal("first remove should report removal")
	}
	saves := len(p.saved)
	if d.Remove(e.ID) {
		t.Fatal("second remove should be a no-op")
	}
	if len(p.saved) != saves {
		t.Fatal("no-op remove should not write")
	}
	if d.Len() != 1 {
		t.Fatalf("expected 1 entry left, got %d", d.Len())
	}
}

func TestRemoveUnknown(t *testing.T) {
	d := newTestDiary(t, nil)
	if d.Remove("nope") {
		t.Fatal("removing unknown id should return false")
	}
}

// ============================================================
// Goal
// ============================================================

func TestSetGoal(t *testing.T) {
	p := &memPersister{}
	d := newTestDiary(t, p)
	if err := d.SetGoal(1800); err != nil {
		t.Fatal(err)
	}
	if d.Goal() != 1800 {
		t.Fatalf("goal = %v", d.Goal())
	}
	if p.last().Goal != 1800 {
		t.Fatal("goal change should be persisted")
	}
}

func TestSetGoalRejectsNonPositive(t *testing.T) {
	d := newTestDiary(t, nil)
	for _, g := range []float64{0, -100, math.NaN(), math.Inf(1)} {
		if err := d.SetGoal(g); !errors.Is(err, ErrInvalidGoal) {
			t.Fatalf("SetGoal(%v) = %v, want ErrInvalidGoal", g, err)
		}
	}
	if d.Goal() != DefaultGoal {
		t.Fatalf("goal should be unchanged, got %v", d.Goal())
	}
	if p := Percentage(100, 0); math.IsNaN(p) || math.IsInf(p, 0) {
		t.Fatalf("Percentage with zero goal = %v", p)
	}
}

func TestNewNormalizesGoal(t *testing.T) {
	d := New(State{Goal: -5}, nil)
	if d.Goal() != DefaultGoal {
		t.Fatalf("goal = %v, want default", d.Goal())
	}
	if d.Entries() == nil {
		t.Fatal("entries should be an empty slice, not nil")
	}
}

// ============================================================
// Restore / snapshots
// ============================================================

func TestRestoreReplacesEntries(t *testing.T) {
	p := &memPersister{}
	d := newTestDiary(t, p)
	d.Add(apple())

	restored := []FoodEntry{
		{ID: "a", FoodItem: "Egg", Category: Proteins, ServingSize: 2, Unit: "egg", CaloriesPerUnit: 78, TotalCalories: 156},
		{ID: "b", FoodItem: "Tea", Category: Drinks, ServingSize: 1, Unit: "cup", CaloriesPerUnit: 2, TotalCalories: 2},
	}
	d.Restore(restored, 1600)

	if diff := cmp.Diff(restored, d.Entries()); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
	if d.Goal() != 1600 {
		t.Fatalf("goal = %v, want 1600", d.Goal())
	}
	if diff := cmp.Diff(d.Snapshot(), p.last()); diff != "" {
		t.Fatalf("restore not persisted:\n%s", diff)
	}
}

func TestRestoreKeepsGoalWhenZero(t *testing.T) {
	d := newTestDiary(t, nil)
	d.SetGoal(1700)
	d.Restore(nil, 0)
	if d.Goal() != 1700 {
		t.Fatalf("goal = %v, want 1700", d.Goal())
	}
	if d.Len() != 0 {
		t.Fatal("entries should be empty")
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	d := newTestDiary(t, nil)
	d.Add(apple())
	snap := d.Snapshot()
	snap.Entries[0].FoodItem = "changed"
	if d.Entries()[0].FoodItem != "Apple" {
		t.Fatal("snapshot should not alias diary state")
	}
}

// ============================================================
// Persistence failures
// ============================================================

func TestSaveFailureKeepsState(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	p := &memPersister{err: errors.New("disk full")}
	d := New(DefaultState(), p, WithLogger(zap.New(core)))

	if _, err := d.Add(apple()); err != nil {
		t.Fatalf("save failure must not fail Add: %v", err)
	}
	if d.Len() != 1 {
		t.Fatal("in-memory state should keep the entry")
	}
	if d.SyncErr() == nil {
		t.Fatal("SyncErr should report the failure")
	}
	if !d.LastSynced().IsZero() {
		t.Fatal("LastSynced should not advance on failure")
	}
	if logs.Len() != 1 {
		t.Fatalf("expected one warning, got %d", logs.Len())
	}

	p.err = nil
	if err := d.Sync(); err != nil {
		t.Fatal(err)
	}
	if d.SyncErr() != nil || d.LastSynced().IsZero() {
		t.Fatal("successful sync should clear the error")
	}
}

func TestWithLastSynced(t *testing.T) {
	saved := time.Date(2025, 2, 28, 21, 15, 0, 0, time.UTC)
	p := &memPersister{}
	d := New(DefaultState(), p, WithLastSynced(saved))
	if !d.LastSynced().Equal(saved) {
		t.Fatalf("LastSynced = %v, want %v", d.LastSynced(), saved)
	}

	p.err = errors.New("read-only")
	d.Add(apple())
	if !d.LastSynced().Equal(saved) {
		t.Fatal("a failed save must keep the loaded time")
	}
}
