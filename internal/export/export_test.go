package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sadopc/fitfeast/internal/diary"
)

func sampleEntries() []diary.FoodEntry {
	ts := time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC).UnixMilli()
	return []diary.FoodEntry{
		{ID: "e2", Timestamp: ts + 3600_000, FoodItem: "Greek yogurt", Category: diary.Dairy, ServingSize: 170, Unit: "g", CaloriesPerUnit: 0.59, TotalCalories: 100},
		{ID: "e1", Timestamp: ts, FoodItem: "Apple", Category: diary.Fruits, ServingSize: 2, Unit: "piece", CaloriesPerUnit: 95, TotalCalories: 190},
	}
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	if !bytes.HasPrefix(data, []byte(bom)) {
		t.Fatal("csv should start with a byte-order mark")
	}
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte(bom))))
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("CSV should be valid: %v", err)
	}
	return records
}

// ============================================================
// CSV
// ============================================================

func TestToCSV(t *testing.T) {
	entries := sampleEntries()
	path := filepath.Join(t.TempDir(), "test.csv")

	if err := ToCSV(entries, path); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	records := readCSV(t, data)

	// header + 2 data rows
	if len(records) != 3 {
		t.Fatalf("expected 3 rows (1 header + 2 data), got %d", len(records))
	}

	// Check header
	if diff := cmp.Diff(csvHeader, records[0]); diff != "" {
		t.Fatalf("header mismatch:\n%s", diff)
	}

	// Rows keep store order
	row := records[1]
	want := []string{
		"Greek yogurt", "Dairy", "170", "g", "0.59", "100",
		entries[0].LoggedAt().Local().Format(loggedAtLayout),
	}
	if diff := cmp.Diff(want, row); diff != "" {
		t.Fatalf("row mismatch (-want +got):\n%s", diff)
	}
	if records[2][0] != "Apple" {
		t.Fatalf("second row = %q, want Apple", records[2][0])
	}
}

func TestToCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatal(err)
	}
	records := readCSV(t, buf.Bytes())
	if len(records) != 1 {
		t.Fatalf("expected 1 row (header only), got %d", len(records))
	}
}

func TestToCSVBadPath(t *testing.T) {
	err := ToCSV(nil, "/nonexistent/dir/file.csv")
	if err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestToCSVSpecialCharacters(t *testing.T) {
	entries := []diary.FoodEntry{
		{ID: "x", FoodItem: `Pizza "Margherita", large`, Category: diary.Grains, ServingSize: 1, Unit: "slice, thin", CaloriesPerUnit: 285, TotalCalories: 285},
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, entries); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(buf.String(), `"Pizza ""Margherita"", large"`) {
		t.Fatalf("embedded quotes should be doubled: %s", buf.String())
	}
	records := readCSV(t, buf.Bytes())
	if records[1][0] != `Pizza "Margherita", large` {
		t.Fatalf("food item mangled: %q", records[1][0])
	}
	if records[1][3] != "slice, thin" {
		t.Fatalf("unit mangled: %q", records[1][3])
	}
}

func TestFileNames(t *testing.T) {
	at := time.Date(2025, 7, 4, 23, 30, 0, 0, time.FixedZone("X", -5*3600))
	if got := CSVFileName(at); got != "fitfeast_log_2025-07-05.csv" {
		t.Fatalf("CSVFileName = %q", got)
	}
	if got := BackupFileName(at); got != "fitfeast_dashboard_backup_2025-07-05.json" {
		t.Fatalf("BackupFileName = %q", got)
	}
}

// ============================================================
// Backup export
// ============================================================

func TestToBackup(t *testing.T) {
	st := diary.State{Entries: sampleEntries(), Goal: 1800}
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "backup.json")

	if err := ToBackup(st, path, at); err != nil {
		t.Fatalf("ToBackup: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var b Backup
	if err := json.Unmarshal(data, &b); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if b.ExportDate != "2025-03-01T10:00:00.000Z" {
		t.Fatalf("exportDate = %q", b.ExportDate)
	}
	if b.Goal != 1800 {
		t.Fatalf("goal = %v", b.Goal)
	}
	if diff := cmp.Diff(st.Entries, b.Entries); diff != "" {
		t.Fatalf("entries mismatch:\n%s", diff)
	}
}

func TestBackupPrettyPrinted(t *testing.T) {
	var buf bytes.Buffer
	WriteBackup(&buf, diary.DefaultState(), time.Now())

	// Pretty-printed JSON should contain newlines and indentation
	if !strings.Contains(buf.String(), "\n  \"entries\": []") {
		t.Fatalf("JSON should be indented with an empty entries list:\n%s", buf.String())
	}
}

func TestToBackupBadPath(t *testing.T) {
	err := ToBackup(diary.DefaultState(), "/nonexistent/dir/file.json", time.Now())
	if err == nil {
		t.Fatal("expected error for bad path")
	}
}

// ============================================================
// Backup import
// ============================================================

func TestBackupRoundTrip(t *testing.T) {
	st := diary.State{Entries: sampleEntries(), Goal: 2200}
	var buf bytes.Buffer
	if err := WriteBackup(&buf, st, time.Now()); err != nil {
		t.Fatal(err)
	}

	r, err := ReadBackup(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(st.Entries, r.Entries); diff != "" {
		t.Fatalf("entries differ after round trip (-want +got):\n%s", diff)
	}
	if r.Goal != 2200 {
		t.Fatalf("goal = %v", r.Goal)
	}

	// Applying it to a diary reproduces the exported state.
	d := diary.New(diary.DefaultState(), nil)
	d.Add(diary.Draft{FoodItem: "Old", Category: diary.Other, ServingSize: 1})
	d.Restore(r.Entries, r.Goal)
	if diff := cmp.Diff(st, d.Snapshot()); diff != "" {
		t.Fatalf("restored diary differs:\n%s", diff)
	}
}

func TestParseBackupLenientEntries(t *testing.T) {
	data := `{"entries": [
		{"id": 42, "timestamp": "1700000000000", "foodItem": "Rice", "category": "grains",
		 "servingSize": "1.5", "unit": "cup", "caloriesPerUnit": 200, "totalCalories": "300"},
		{"id": "b", "timestamp": "2025-03-14T12:00:00.000Z", "foodItem": true, "category": "Candy",
		 "servingSize": "lots", "caloriesPerUnit": 10},
		{"id": "c", "servingSize": 2, "caloriesPerUnit": 95}
	]}`

	r, err := ParseBackup([]byte(data))
	if err != nil {
		t.Fatalf("ParseBackup: %v", err)
	}

	want := []diary.FoodEntry{
		{ID: "42", Timestamp: 1700000000000, FoodItem: "Rice", Category: diary.Grains,
			ServingSize: 1.5, Unit: "cup", CaloriesPerUnit: 200, TotalCalories: 300},
		{ID: "b", Timestamp: time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC).UnixMilli(),
			FoodItem: "true", Category: "Candy", CaloriesPerUnit: 10},
		{ID: "c", ServingSize: 2, CaloriesPerUnit: 95, TotalCalories: 190},
	}
	if diff := cmp.Diff(want, r.Entries); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestParseBackupErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"not json", "hello", ErrInvalidBackup},
		{"array", "[]", ErrInvalidBackup},
		{"missing entries", `{"goal": 1800}`, ErrMissingEntries},
		{"null entries", `{"entries": null}`, ErrMissingEntries},
		{"entries not list", `{"entries": {"a": 1}}`, ErrMissingEntries},
		{"number entry", `{"entries": [42]}`, ErrInvalidBackup},
		{"null entry", `{"entries": [{"id": "a"}, null]}`, ErrInvalidBackup},
		{"duplicate ids", `{"entries": [{"id": "a"}, {"id": "a"}]}`, ErrInvalidBackup},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBackup([]byte(tt.data))
			if !errors.Is(err, tt.want) {
				t.Fatalf("ParseBackup(%s) = %v, want %v", tt.data, err, tt.want)
			}
		})
	}
}

func TestImportMissingEntriesLeavesState(t *testing.T) {
	d := diary.New(diary.DefaultState(), nil)
	d.Add(diary.Draft{FoodItem: "Keep", Category: diary.Other, ServingSize: 1, CaloriesPerUnit: 50})
	before := d.Snapshot()

	if r, err := ParseBackup([]byte(`{"goal": 1200}`)); err == nil {
		d.Restore(r.Entries, r.Goal)
	}
	if diff := cmp.Diff(before, d.Snapshot()); diff != "" {
		t.Fatalf("failed import changed state:\n%s", diff)
	}
}

func TestParseBackupGoal(t *testing.T) {
	tests := []struct {
		data string
		want float64
	}{
		{`{"entries": [], "goal": 1500}`, 1500},
		{`{"entries": []}`, 0},
		{`{"entries": [], "goal": 0}`, 0},
		{`{"entries": [], "goal": -3}`, 0},
		{`{"entries": [], "goal": "lots"}`, 0},
	}
	for _, tt := range tests {
		r, err := ParseBackup([]byte(tt.data))
		if err != nil {
			t.Fatalf("%s: %v", tt.data, err)
		}
		if r.Goal != tt.want {
			t.Errorf("%s: goal = %v, want %v", tt.data, r.Goal, tt.want)
		}
	}
}

func TestParseBackupAssignsMissingIDs(t *testing.T) {
	r, err := ParseBackup([]byte("\uFEFF" + `{"entries": [{"foodItem": "A"}, {"foodItem": "B"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if r.Entries[0].ID == "" || r.Entries[0].ID == r.Entries[1].ID {
		t.Fatalf("expected fresh unique ids, got %q and %q", r.Entries[0].ID, r.Entries[1].ID)
	}
}

func TestFromBackupMissingFile(t *testing.T) {
	if _, err := FromBackup(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
