// Package store persists portal entities through GORM and maps driver errors
// onto the application error kinds.
package store

import (
	"errors"
	"strings"

	"github.com/naccer/portal/backend/internal/models"
	"github.com/naccer/portal/backend/pkg/response"
	"gorm.io/gorm"
)

// translate maps a GORM error to an *response.AppError. notFound is the
// message used for a missing row.
func translate(err error, notFound, action string) error {
	if err == nil {
		return nil
	}
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return response.NewValidation(verr.Message)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return response.NewNotFound(notFound)
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		conflict := response.NewConflict("Record already exists")
		conflict.Err = err
		return conflict
	}
	return response.NewPersistence(action, err)
}

// isUniqueViolation catches drivers that do not translate errors for GORM.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}
