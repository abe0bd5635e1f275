package utils

import (
	"github.com/google/uuid"
)

// GenerateID returns a new random identifier for documents and jobs.
func GenerateID() string {
	return uuid.NewString()
}
