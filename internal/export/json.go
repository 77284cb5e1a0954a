package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sadopc/fitfeast/internal/diary"
)

var (
	ErrInvalidBackup  = errors.New("invalid backup file format")
	ErrMissingEntries = errors.New("backup has no entries list")
)

// isoLayout matches JavaScript's Date.toISOString.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

type Backup struct {
	Entries    []diary.FoodEntry `json:"entries"`
	Goal       float64           `json:"goal"`
	ExportDate string            `json:"exportDate"`
}

// Restore is the part of a backup that gets applied. Goal is 0 when the
// backup carries no usable goal.
type Restore struct {
	Entries []diary.FoodEntry
	Goal    float64
}

func WriteBackup(w io.Writer, st diary.State, at time.Time) error {
	entries := st.Entries
	if entries == nil {
		entries = []diary.FoodEntry{}
	}
	b := Backup{
		Entries:    entries,
		Goal:       st.Goal,
		ExportDate: at.UTC().Format(isoLayout),
	}

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func ToBackup(st diary.State, path string, at time.Time) error {
	var buf bytes.Buffer
	if err := WriteBackup(&buf, st, at); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

// BackupFileName is fitfeast_dashboard_backup_<date>.json for the UTC date of t.
func BackupFileName(t time.Time) string {
	return fmt.Sprintf("fitfeast_dashboard_backup_%s.json", t.UTC().Format("2006-01-02"))
}

// ParseBackup decodes a backup. It either returns everything needed to
// restore or an error; nothing is applied here.
func ParseBackup(data []byte) (Restore, error) {
	data = bytes.TrimPrefix(data, []byte(bom))

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Restore{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}

	rawEntries, ok := fields["entries"]
	rawEntries = bytes.TrimSpace(rawEntries)
	if !ok || len(rawEntries) == 0 || rawEntries[0] != '[' {
		return Restore{}, ErrMissingEntries
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(rawEntries, &raws); err != nil {
		return Restore{}, fmt.Errorf("%w: entries: %v", ErrInvalidBackup, err)
	}
	entries := make([]diary.FoodEntry, 0, len(raws))
	for i, raw := range raws {
		e, err := decodeEntry(raw)
		if err != nil {
			return Restore{}, fmt.Errorf("%w: entry %d: %v", ErrInvalidBackup, i, err)
		}
		entries = append(entries, e)
	}

	seen := make(map[string]bool, len(entries))
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.NewString()
		}
		if seen[entries[i].ID] {
			return Restore{}, fmt.Errorf("%w: duplicate entry id %q", ErrInvalidBackup, entries[i].ID)
		}
		seen[entries[i].ID] = true
	}

	r := Restore{Entries: entries}
	if raw, ok := fields["goal"]; ok {
		var g float64
		if json.Unmarshal(raw, &g) == nil && g > 0 && !math.IsInf(g, 0) {
			r.Goal = g
		}
	}
	return r, nil
}

func ReadBackup(r io.Reader) (Restore, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Restore{}, fmt.Errorf("read backup: %w", err)
	}
	return ParseBackup(data)
}

func FromBackup(path string) (Restore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Restore{}, fmt.Errorf("read backup: %w", err)
	}
	return ParseBackup(data)
}
