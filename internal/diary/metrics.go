package diary

import "math"

// DailyTotal sums the stored totals of all entries.
func DailyTotal(entries []FoodEntry) int {
	var total int
	for _, e := range entries {
		total += e.TotalCalories
	}
	return total
}

// Remaining is what is left of the goal, never negative.
func Remaining(total int, goal float64) float64 {
	return math.Max(0, goal-float64(total))
}

// Percentage is progress towards the goal clamped to [0, 100]. A goal that
// is zero, negative or not finite yields 0.
func Percentage(total int, goal float64) float64 {
	if !validGoal(goal) {
		return 0
	}
	p := float64(total) / goal * 100
	return math.Min(100, math.Max(0, p))
}

// OverGoal reports whether the raw ratio exceeds 100%.
func OverGoal(total int, goal float64) bool {
	return validGoal(goal) && float64(total) > goal
}

type Summary struct {
	Total      int
	Goal       float64
	Remaining  float64
	Percentage float64
	Over       bool
	Count      int
}

func Summarize(s State) Summary {
	total := DailyTotal(s.Entries)
	return Summary{
		Total:      total,
		Goal:       s.Goal,
		Remaining:  Remaining(total, s.Goal),
		Percentage: Percentage(total, s.Goal),
		Over:       OverGoal(total, s.Goal),
		Count:      len(s.Entries),
	}
}

// CategoryTotal aggregates calories per category.
type CategoryTotal struct {
	Category Category
	Calories int
	Count    int
}

// ByCategory returns one row per category that has entries, in
// enumeration order. Unknown categories are folded into Other.
func ByCategory(entries []FoodEntry) []CategoryTotal {
	sums := make(map[Category]*CategoryTotal)
	for _, e := range entries {
		c := e.Category
		if !c.Valid() {
			c = Other
		}
		ct, ok := sums[c]
		if !ok {
			ct = &CategoryTotal{Category: c}
			sums[c] = ct
		}
		ct.Calories += e.TotalCalories
		ct.Count++
	}

	var out []CategoryTotal
	for _, c := range Categories {
		if ct, ok := sums[c]; ok {
			out = append(out, *ct)
		}
	}
	return out
}
