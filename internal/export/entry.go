package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/fitfeast/internal/diary"
)

var errNotObject = errors.New("entry is not an object")

// decodeEntry reads one backup entry field by field. Off-type or missing
// fields fall back to zero values instead of failing the import; only a
// non-object entry is rejected.
func decodeEntry(raw json.RawMessage) (diary.FoodEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return diary.FoodEntry{}, errNotObject
	}
	if fields == nil {
		return diary.FoodEntry{}, errNotObject
	}

	e := diary.FoodEntry{
		ID:              text(fields["id"]),
		Timestamp:       millis(fields["timestamp"]),
		FoodItem:        text(fields["foodItem"]),
		Category:        diary.Category(text(fields["category"])),
		Unit:            text(fields["unit"]),
		ServingSize:     number(fields["servingSize"]),
		CaloriesPerUnit: number(fields["caloriesPerUnit"]),
	}
	if c, err := diary.ParseCategory(string(e.Category)); err == nil {
		e.Category = c
	}
	if total, ok := toNumber(fields["totalCalories"]); ok {
		e.TotalCalories = int(math.Round(total))
	} else {
		e.TotalCalories = int(math.Round(e.ServingSize * e.CaloriesPerUnit))
	}
	return e, nil
}

func text(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

func number(v any) float64 {
	f, _ := toNumber(v)
	return f
}

func toNumber(v any) (float64, bool) {
	var f float64
	var err error
	switch v := v.(type) {
	case json.Number:
		f, err = v.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// millis accepts epoch milliseconds as a number or string, or an ISO-8601
// date string.
func millis(v any) int64 {
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i
		}
	}
	if f, ok := toNumber(v); ok {
		return int64(f)
	}
	if s, ok := v.(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s)); err == nil {
			return t.UnixMilli()
		}
	}
	return 0
}
