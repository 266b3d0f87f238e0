package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound            = errors.New("record not found")
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrOrganizationMissing = errors.New("organization not found")
	ErrDuplicate           = errors.New("duplicate record")
	ErrStatusConflict      = errors.New("message is not in the expected status")
)

// translate maps gorm errors onto the package sentinels, notFound is used for missing rows.
func translate(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}
