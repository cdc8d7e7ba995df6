package model

import (
	"errors"
	"time"
)

// ErrNotFound is returned by storage when a student does not exist.
var ErrNotFound = errors.New("student not found")

// Student is the root record; schedules, attendance and fees hang off its ID.
type Student struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	PhotoPath string    `json:"photo_path,omitempty"`
	FeeAmount string    `json:"fee_amount"`
	CreatedAt time.Time `json:"created_at"`
}
