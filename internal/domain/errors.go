package domain

import "errors"

var (
	// ErrInvalidItem is returned when a selection names an item outside the scale.
	ErrInvalidItem = errors.New("unknown nihss item")
	// ErrInvalidOption is returned when a selection names an option the item does not declare.
	ErrInvalidOption = errors.New("option not declared for item")
	// ErrItemLocked indicates the item is forced by the coma protocol and cannot be changed.
	ErrItemLocked = errors.New("item locked by coma protocol")
	// ErrAssessmentNotFound is returned when an assessment session does not exist.
	ErrAssessmentNotFound = errors.New("assessment not found")
	// ErrConflict indicates the assessment changed elsewhere since it was loaded.
	ErrConflict = errors.New("assessment changed concurrently")
	// ErrRecordNotFound indicates no finalized record exists for the assessment.
	ErrRecordNotFound = errors.New("assessment record not found")
)
