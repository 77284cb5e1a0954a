package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sadopc/fitfeast/internal/diary"
	"go.uber.org/zap"
)

// StateKey is the slot holding the serialized {entries, goal} object.
const StateKey = "fitfeast_v1_data"

type storedState struct {
	Entries []diary.FoodEntry `json:"entries"`
	Goal    *float64          `json:"goal"`
}

// Load reads the dashboard state. A missing slot yields the default state;
// a slot that cannot be read or parsed is logged and also yields the
// default, so startup never fails on bad data.
func (s *Store) Load() diary.State {
	raw, err := s.Get(StateKey)
	if errors.Is(err, ErrNotFound) {
		return diary.DefaultState()
	}
	if err != nil {
		s.log.Warn("could not read saved state, starting fresh", zap.Error(err))
		return diary.DefaultState()
	}

	st, err := decodeState([]byte(raw))
	if err != nil {
		s.log.Warn("saved state is corrupt, starting fresh",
			zap.Error(err), zap.Int("bytes", len(raw)))
		return diary.DefaultState()
	}
	return st
}

// Save writes the state to the slot. It satisfies diary.Persister.
func (s *Store) Save(st diary.State) error {
	entries := st.Entries
	if entries == nil {
		entries = []diary.FoodEntry{}
	}
	goal := st.Goal
	data, err := json.Marshal(storedState{Entries: entries, Goal: &goal})
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	return s.Put(StateKey, string(data))
}

func decodeState(data []byte) (diary.State, error) {
	var ss storedState
	if err := json.Unmarshal(data, &ss); err != nil {
		return diary.State{}, fmt.Errorf("decode state: %w", err)
	}
	st := diary.DefaultState()
	if ss.Entries != nil {
		st.Entries = ss.Entries
	}
	if ss.Goal != nil {
		st.Goal = diary.NormalizeGoal(*ss.Goal)
	}
	return st, nil
}
