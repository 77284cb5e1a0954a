// Package estimator talks to the hosted model that turns meal descriptions
// into entry drafts and entry histories into advice.
package estimator

import (
	"context"
	"errors"

	"github.com/sadopc/fitfeast/internal/diary"
)

var (
	ErrEstimate         = errors.New("nutrient estimation failed")
	ErrInvalidEstimate  = errors.New("estimate does not match the expected schema")
	ErrBusy             = errors.New("an estimate is already in progress")
	ErrNoAPIKey         = errors.New("no API key configured")
	ErrEmptyDescription = errors.New("description is empty")
)

// Estimator turns free text into an entry draft.
type Estimator interface {
	Estimate(ctx context.Context, description string) (diary.Draft, error)
}

// Advisor returns short advice for an entry history.
type Advisor interface {
	Advise(ctx context.Context, history []diary.FoodEntry) (string, error)
}
