package diary

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// DefaultGoal is the daily calorie target used when none is stored.
const DefaultGoal = 2000.0

// DefaultUnit is applied to drafts that leave the unit blank.
const DefaultUnit = "serving"

type Category string

const (
	Proteins   Category = "Proteins"
	Fruits     Category = "Fruits"
	Vegetables Category = "Vegetables"
	Dairy      Category = "Dairy"
	Grains     Category = "Grains"
	Snacks     Category = "Snacks"
	Drinks     Category = "Drinks"
	Other      Category = "Other"
)

// Categories lists the closed category enumeration in display order.
var Categories = []Category{Proteins, Fruits, Vegetables, Dairy, Grains, Snacks, Drinks, Other}

var (
	ErrInvalidDraft    = errors.New("invalid entry")
	ErrInvalidGoal     = errors.New("goal must be a positive number")
	ErrUnknownCategory = errors.New("unknown category")
)

func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// ParseCategory matches s against the enumeration, ignoring case and
// surrounding space.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// FoodEntry is one logged item. TotalCalories is fixed at creation time.
type FoodEntry struct {
	ID              string   `json:"id"`
	Timestamp       int64    `json:"timestamp"` // ms since epoch
	FoodItem        string   `json:"foodItem"`
	Category        Category `json:"category"`
	ServingSize     float64  `json:"servingSize"`
	Unit            string   `json:"unit"`
	CaloriesPerUnit float64  `json:"caloriesPerUnit"`
	TotalCalories   int      `json:"totalCalories"`
}

func (e FoodEntry) LoggedAt() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// Draft carries the user-supplied fields of a new entry.
type Draft struct {
	FoodItem        string   `json:"foodItem"`
	Category        Category `json:"category"`
	ServingSize     float64  `json:"servingSize"`
	Unit            string   `json:"unit"`
	CaloriesPerUnit float64  `json:"caloriesPerUnit"`
}

// ValidationError names the draft field that was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidDraft
}

// Normalize trims text fields and fills in the default unit.
func (d Draft) Normalize() Draft {
	d.FoodItem = strings.TrimSpace(d.FoodItem)
	d.Unit = strings.TrimSpace(d.Unit)
	if d.Unit == "" {
		d.Unit = DefaultUnit
	}
	return d
}

// Validate reports the first problem with the draft, or nil.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.FoodItem) == "" {
		return &ValidationError{Field: "foodItem", Reason: "must not be empty"}
	}
	if !d.Category.Valid() {
		return &ValidationError{Field: "category", Reason: fmt.Sprintf("%q is not a known category", d.Category)}
	}
	if !finite(d.ServingSize) || d.ServingSize <= 0 {
		return &ValidationError{Field: "servingSize", Reason: "must be a positive number"}
	}
	if !finite(d.CaloriesPerUnit) || d.CaloriesPerUnit < 0 {
		return &ValidationError{Field: "caloriesPerUnit", Reason: "must be zero or more"}
	}
	return nil
}

// TotalCalories rounds servingSize × caloriesPerUnit to the nearest calorie.
func (d Draft) TotalCalories() int {
	return int(math.Round(d.ServingSize * d.CaloriesPerUnit))
}

// State is the persisted dashboard: entries newest first plus the goal.
type State struct {
	Entries []FoodEntry `json:"entries"`
	Goal    float64     `json:"goal"`
}

func DefaultState() State {
	return State{Entries: []FoodEntry{}, Goal: DefaultGoal}
}

// NormalizeGoal falls back to DefaultGoal for values that cannot be a goal.
func NormalizeGoal(g float64) float64 {
	if !validGoal(g) {
		return DefaultGoal
	}
	return g
}

func validGoal(g float64) bool {
	return finite(g) && g > 0
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
