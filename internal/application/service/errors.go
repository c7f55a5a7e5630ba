package service

import (
	"errors"

	"github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/sangkips/investify-pos/pkg/apperror"
)

// storeError maps repository sentinels onto the error taxonomy
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case apperror.IsAppError(err):
		return err
	case errors.Is(err, repository.ErrStoreUnavailable):
		return apperror.NewPersistenceUnavailableError(err)
	case errors.Is(err, repository.ErrSessionBusy):
		return apperror.NewCheckoutInProgressError()
	}
	return err
}
