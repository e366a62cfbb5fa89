package service

import (
	"database/sql"
	"errors"

	"github.com/noah-isme/credit-tracker-api/internal/models"
	"github.com/noah-isme/credit-tracker-api/internal/repository"
	appErrors "github.com/noah-isme/credit-tracker-api/pkg/errors"
)

// authorizeStudentAccess lets a student touch only their own records and an
// admin touch any student's records when holding one of perms.
func authorizeStudentAccess(caller *models.Identity, studentID string, perms ...string) error {
	switch {
	case caller == nil:
		return appErrors.ErrMissingToken
	case caller.IsStudent():
		if caller.ID == studentID {
			return nil
		}
		return appErrors.Clone(appErrors.ErrAccessDenied, "students may only access their own records")
	case caller.IsAdmin():
		for _, perm := range perms {
			if caller.HasPermission(perm) {
				return nil
			}
		}
		return appErrors.Clone(appErrors.ErrAccessDenied, "missing permission for student records")
	default:
		return appErrors.ErrWrongIdentityType
	}
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

// lookupError maps sql.ErrNoRows to NotFound and anything else to a data store error.
func lookupError(err error, notFound, failure string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Store(err, failure)
}

// writeError maps repository write failures onto domain errors.
func writeError(err error, conflict, failure string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.ErrNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return appErrors.Clone(appErrors.ErrConflict, conflict)
	default:
		return appErrors.Store(err, failure)
	}
}
