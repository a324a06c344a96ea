package repository

import (
	"fmt"

	"github.com/google/uuid"
)

// ensureID assigns a time-ordered UUIDv7 when id is unset.
func ensureID(id *uuid.UUID) error {
	if *id != uuid.Nil {
		return nil
	}
	v, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate id: %w", err)
	}
	*id = v
	return nil
}
