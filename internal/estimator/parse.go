package estimator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sadopc/fitfeast/internal/diary"
)

// Sanity caps for model output.
const (
	maxServingSize     = 10000
	maxCaloriesPerUnit = 10000
)

type rawEstimate struct {
	FoodItem        *string  `json:"foodItem"`
	Category        *string  `json:"category"`
	ServingSize     *float64 `json:"servingSize"`
	Unit            *string  `json:"unit"`
	CaloriesPerUnit *float64 `json:"caloriesPerUnit"`
}

// ParseEstimate validates a model response against the estimate schema.
// Every failure wraps ErrInvalidEstimate.
func ParseEstimate(text string) (diary.Draft, error) {
	text = stripFence(strings.TrimSpace(text))
	if text == "" {
		return diary.Draft{}, fmt.Errorf("%w: empty response", ErrInvalidEstimate)
	}

	var raw rawEstimate
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return diary.Draft{}, fmt.Errorf("%w: %v", ErrInvalidEstimate, err)
	}

	switch {
	case raw.FoodItem == nil:
		return diary.Draft{}, missing("foodItem")
	case raw.Category == nil:
		return diary.Draft{}, missing("category")
	case raw.ServingSize == nil:
		return diary.Draft{}, missing("servingSize")
	case raw.Unit == nil:
		return diary.Draft{}, missing("unit")
	case raw.CaloriesPerUnit == nil:
		return diary.Draft{}, missing("caloriesPerUnit")
	}

	cat, err := diary.ParseCategory(*raw.Category)
	if err != nil {
		return diary.Draft{}, fmt.Errorf("%w: %w", ErrInvalidEstimate, err)
	}

	draft := diary.Draft{
		FoodItem:        *raw.FoodItem,
		Category:        cat,
		ServingSize:     *raw.ServingSize,
		Unit:            *raw.Unit,
		CaloriesPerUnit: *raw.CaloriesPerUnit,
	}.Normalize()
	if err := draft.Validate(); err != nil {
		return diary.Draft{}, fmt.Errorf("%w: %w", ErrInvalidEstimate, err)
	}
	if draft.ServingSize > maxServingSize {
		return diary.Draft{}, fmt.Errorf("%w: servingSize %v out of range", ErrInvalidEstimate, draft.ServingSize)
	}
	if draft.CaloriesPerUnit > maxCaloriesPerUnit {
		return diary.Draft{}, fmt.Errorf("%w: caloriesPerUnit %v out of range", ErrInvalidEstimate, draft.CaloriesPerUnit)
	}
	return draft, nil
}

func missing(field string) error {
	return fmt.Errorf("%w: missing %s", ErrInvalidEstimate, field)
}

// stripFence removes a ```json ... ``` wrapper some models add.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
