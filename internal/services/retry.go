package services

import (
	"errors"

	"sourcing-system/internal/domain"
)

// maxSaveAttempts bounds the load-mutate-save loop retried on optimistic
// version conflicts.
const maxSaveAttempts = 3

func retryOnVersionConflict(fn func() error) error {
	var err error
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		err = fn()
		if !errors.Is(err, domain.ErrVersionConflict) {
			return err
		}
	}
	return domain.NewConflictError("document was modified concurrently, retries exhausted")
}
