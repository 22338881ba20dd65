package domain

import (
	"fmt"
	"net/http"

	apperrors "github.com/lucadeg/Esame-de-gregorio/pkg/errors"
)

// Domain failure constructors. Each carries a stable machine code that the
// HTTP layer serializes verbatim, wrapping the generic sentinel for its
// class so callers can still classify with errors.Is.

// ErrInvalidCredentials is the constant-shape login failure. It is used
// both for unknown emails and wrong passwords so responses do not reveal
// which accounts exist.
func ErrInvalidCredentials() *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "INVALID_CREDENTIALS",
		Message: "invalid email or password",
		Status:  http.StatusUnauthorized,
		Err:     apperrors.ErrUnauthorized,
	}
}

func ErrAccountInactive() *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "ACCOUNT_INACTIVE",
		Message: "account is deactivated",
		Status:  http.StatusForbidden,
		Err:     apperrors.ErrForbidden,
	}
}

func ErrTokenInvalid() *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "TOKEN_INVALID",
		Message: "invalid token",
		Status:  http.StatusUnauthorized,
		Err:     apperrors.ErrUnauthorized,
	}
}

func ErrTokenExpired() *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "TOKEN_EXPIRED",
		Message: "token has expired",
		Status:  http.StatusUnauthorized,
		Err:     apperrors.ErrUnauthorized,
	}
}

func ErrEmailAlreadyExists(email string) *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "EMAIL_ALREADY_EXISTS",
		Message: fmt.Sprintf("an account with email %q already exists", email),
		Status:  http.StatusConflict,
		Err:     apperrors.ErrAlreadyExists,
	}
}

func ErrCourseNotFound(id int64) *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "COURSE_NOT_FOUND",
		Message: fmt.Sprintf("course %d not found", id),
		Status:  http.StatusNotFound,
		Err:     apperrors.ErrNotFound,
	}
}

func ErrCourseFull(id int64) *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "COURSE_FULL",
		Message: fmt.Sprintf("course %d has no remaining seats", id),
		Status:  http.StatusConflict,
		Err:     apperrors.ErrConflict,
	}
}

func ErrAlreadyEnrolled(courseID int64, email string) *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "ALREADY_ENROLLED",
		Message: fmt.Sprintf("%s is already enrolled in course %d", email, courseID),
		Status:  http.StatusConflict,
		Err:     apperrors.ErrConflict,
	}
}

func ErrCourseStarted(id int64) *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "COURSE_STARTED",
		Message: fmt.Sprintf("course %d has already started", id),
		Status:  http.StatusBadRequest,
		Err:     apperrors.ErrInvalidInput,
	}
}

// ErrCourseStartedConflict is the cancellation-path variant of
// ErrCourseStarted: cancelling after the course began conflicts with the
// committed enrollment rather than being a malformed request.
func ErrCourseStartedConflict(id int64) *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "COURSE_STARTED",
		Message: fmt.Sprintf("course %d has already started", id),
		Status:  http.StatusConflict,
		Err:     apperrors.ErrConflict,
	}
}

func ErrInvalidParticipant(reason string) *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "INVALID_PARTICIPANT",
		Message: reason,
		Status:  http.StatusBadRequest,
		Err:     apperrors.ErrInvalidInput,
	}
}

func ErrEnrollmentNotFound(id int64) *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "ENROLLMENT_NOT_FOUND",
		Message: fmt.Sprintf("enrollment %d not found", id),
		Status:  http.StatusNotFound,
		Err:     apperrors.ErrNotFound,
	}
}

func ErrEnrollmentLimitReached(tier string, max int) *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "ENROLLMENT_LIMIT_REACHED",
		Message: fmt.Sprintf("the %s tier allows at most %d concurrent enrollments", tier, max),
		Status:  http.StatusConflict,
		Err:     apperrors.ErrConflict,
	}
}

func ErrInvalidCurrentPassword() *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "INVALID_CURRENT_PASSWORD",
		Message: "current password is incorrect",
		Status:  http.StatusBadRequest,
		Err:     apperrors.ErrInvalidInput,
	}
}

func ErrPasswordMismatch() *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "PASSWORD_MISMATCH",
		Message: "new password and confirmation do not match",
		Status:  http.StatusBadRequest,
		Err:     apperrors.ErrInvalidInput,
	}
}

func ErrSamePassword() *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "SAME_PASSWORD",
		Message: "new password must be different from the current password",
		Status:  http.StatusBadRequest,
		Err:     apperrors.ErrInvalidInput,
	}
}
