package nihss

import (
	"fmt"

	"nihss-scoring-service/internal/domain"
)

// ScoreSheet holds the current score of every item in an assessment.
// Engine operations never mutate their input; they return an updated copy.
type ScoreSheet struct {
	scores  map[string]int
	choices map[string]int
	locked  map[string]bool
}

// NewScoreSheet returns a sheet with every item at its first option.
func NewScoreSheet() ScoreSheet {
	sheet := ScoreSheet{
		scores:  make(map[string]int, len(items)),
		choices: make(map[string]int, len(items)),
		locked:  make(map[string]bool),
	}
	for _, item := range items {
		sheet.scores[item.ID] = item.Options[0].Score()
		sheet.choices[item.ID] = 0
	}
	return sheet
}

// Reset discards all selections and returns a fresh sheet.
func Reset() ScoreSheet {
	return NewScoreSheet()
}

// RestoreScoreSheet rebuilds a sheet from stored option choices, for example
// after loading a session from an external store. Unknown items are rejected
// and missing items keep their default.
func RestoreScoreSheet(choices map[string]int) (ScoreSheet, error) {
	sheet := NewScoreSheet()
	for itemID, choice := range choices {
		item, ok := Lookup(itemID)
		if !ok {
			return ScoreSheet{}, fmt.Errorf("restore %q: %w", itemID, domain.ErrInvalidItem)
		}
		if choice < 0 || choice >= len(item.Options) {
			return ScoreSheet{}, fmt.Errorf("restore %q option %d: %w", itemID, choice, domain.ErrInvalidOption)
		}
		sheet.scores[itemID] = item.Options[choice].Score()
		sheet.choices[itemID] = choice
	}
	return Recompute(sheet), nil
}

func (s ScoreSheet) clone() ScoreSheet {
	out := ScoreSheet{
		scores:  make(map[string]int, len(s.scores)),
		choices: make(map[string]int, len(s.choices)),
		locked:  make(map[string]bool, len(s.locked)),
	}
	for k, v := range s.scores {
		out.scores[k] = v
	}
	for k, v := range s.choices {
		out.choices[k] = v
	}
	for k, v := range s.locked {
		out.locked[k] = v
	}
	return out
}

// Score returns the stored score for an item.
func (s ScoreSheet) Score(itemID string) int {
	return s.scores[itemID]
}

// Choice returns the index of the selected option for an item.
func (s ScoreSheet) Choice(itemID string) int {
	return s.choices[itemID]
}

// Locked reports whether the item should render as non-interactive.
func (s ScoreSheet) Locked(itemID string) bool {
	return s.locked[itemID]
}

// Scores returns a copy of the item to score mapping.
func (s ScoreSheet) Scores() map[string]int {
	out := make(map[string]int, len(s.scores))
	for k, v := range s.scores {
		out[k] = v
	}
	return out
}

// Choices returns a copy of the item to selected option index mapping.
func (s ScoreSheet) Choices() map[string]int {
	out := make(map[string]int, len(s.choices))
	for k, v := range s.choices {
		out[k] = v
	}
	return out
}

// SelectOption stores the score of the option at index for the item.
func SelectOption(sheet ScoreSheet, itemID string, index int) (ScoreSheet, error) {
	item, ok := Lookup(itemID)
	if !ok {
		return sheet, fmt.Errorf("select %q: %w", itemID, domain.ErrInvalidItem)
	}
	if index < 0 || index >= len(item.Options) {
		return sheet, fmt.Errorf("select %q option %d: %w", itemID, index, domain.ErrInvalidOption)
	}
	if sheet.locked[itemID] {
		return sheet, fmt.Errorf("select %q: %w", itemID, domain.ErrItemLocked)
	}

	next := sheet.clone()
	next.scores[itemID] = item.Options[index].Score()
	next.choices[itemID] = index
	return next, nil
}

// SelectOptionCode is SelectOption addressed by option code ("0".."4", "UN").
func SelectOptionCode(sheet ScoreSheet, itemID, code string) (ScoreSheet, error) {
	item, ok := Lookup(itemID)
	if !ok {
		return sheet, fmt.Errorf("select %q: %w", itemID, domain.ErrInvalidItem)
	}
	index, ok := item.OptionIndex(code)
	if !ok {
		return sheet, fmt.Errorf("select %q option %q: %w", itemID, code, domain.ErrInvalidOption)
	}
	return SelectOption(sheet, itemID, index)
}

// EvaluateComaState reports whether item 1a is scored as coma.
func EvaluateComaState(sheet ScoreSheet) bool {
	return sheet.scores[ComaItemID] == ComaScore
}

// ApplyComaOverrides forces every coma override while comaActive holds and
// locks those items. When inactive, scores are left as they are and locks
// are released; forced values stay until the user picks another option.
func ApplyComaOverrides(sheet ScoreSheet, comaActive bool) ScoreSheet {
	next := sheet.clone()
	if !comaActive {
		next.locked = make(map[string]bool)
		return next
	}
	for itemID, value := range comaOverrides {
		item, _ := Lookup(itemID)
		next.scores[itemID] = value
		next.choices[itemID] = item.choiceFor(value)
		next.locked[itemID] = true
	}
	return next
}

// Recompute re-derives coma state and applies overrides. Call it after every
// selection.
func Recompute(sheet ScoreSheet) ScoreSheet {
	return ApplyComaOverrides(sheet, EvaluateComaState(sheet))
}

// TotalScore sums the stored score of every item.
func TotalScore(sheet ScoreSheet) int {
	total := 0
	for _, item := range items {
		total += sheet.scores[item.ID]
	}
	return total
}
