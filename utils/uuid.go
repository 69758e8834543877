package utils

import (
	"github.com/google/uuid"
)

// GenerateID returns a time-ordered UUID (v7), so event ids sort by creation
// time in broker logs. Falls back to a random v4 if the clock source fails.
func GenerateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
