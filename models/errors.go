package models

import (
	"errors"

	"gorm.io/gorm"
)

// ErrConflict is the storage-level duplicate-key error. Callers branch on
// this instead of driver SQLSTATE codes; the gorm error translator maps the
// underlying unique violation onto gorm.ErrDuplicatedKey.
var ErrConflict = errors.New("duplicate key conflict")

var ErrNotFound = errors.New("record not found")

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, gorm.ErrDuplicatedKey)
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
