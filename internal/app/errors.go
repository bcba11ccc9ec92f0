package app

import (
	"errors"
	"fmt"

	"weighttracker/internal/domain"
)

// storageErr tags a repository failure with domain.ErrStorage while keeping
// the cause reachable through errors.Is.
func storageErr(err error) error {
	if err == nil || errors.Is(err, domain.ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrStorage, err)
}
