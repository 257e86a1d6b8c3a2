package models

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode is the stable machine-readable kind attached to every engine
// error. Clients branch on the code; the message is display text only.
type ErrorCode string

const (
	// Validation errors: rejected before any transaction
	CodeInvalidAmount    ErrorCode = "invalid_amount"
	CodeInvalidEta       ErrorCode = "invalid_eta"
	CodeValidationFailed ErrorCode = "validation_failed"

	// Eligibility errors: checked optimistically and authoritatively
	CodeBookingNotBiddable    ErrorCode = "booking_not_biddable"
	CodeDuplicateBid          ErrorCode = "duplicate_bid"
	CodeServiceMismatch       ErrorCode = "service_mismatch"
	CodeContractorUnavailable ErrorCode = "contractor_unavailable"

	// Resolution errors on accept/reject
	CodeBidExpired         ErrorCode = "bid_expired"
	CodeBidAlreadyResolved ErrorCode = "bid_already_resolved"

	// Concurrency conflicts: detected inside the transaction; callers
	// should refresh state rather than retry blindly
	CodeBookingAlreadyAssigned ErrorCode = "booking_already_assigned"
	CodeConflict               ErrorCode = "conflict"

	// Stage progression errors
	CodeInvalidStageTransition ErrorCode = "invalid_stage_transition"
	CodeBookingNotActive       ErrorCode = "booking_not_active"

	// Payment errors
	CodeExtraPartsPending      ErrorCode = "extra_parts_pending"
	CodeWrongStage             ErrorCode = "wrong_stage"
	CodePaymentAlreadyComplete ErrorCode = "payment_already_complete"

	// Generic
	CodeUnauthorized ErrorCode = "unauthorized"
	CodeNotFound     ErrorCode = "not_found"
	CodeInternal     ErrorCode = "internal_error"
)

// AppError is the error type returned across the engine boundary. Engines
// never panic through it and never return bare strings.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Status  int       `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

// NewAppError builds an error with an explicit HTTP status
func NewAppError(code ErrorCode, status int, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Status:  status,
	}
}

// AsAppError unwraps err into an *AppError if it is one
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func ErrValidation(format string, args ...interface{}) *AppError {
	return NewAppError(CodeValidationFailed, http.StatusUnprocessableEntity, format, args...)
}

func ErrInvalidAmount(format string, args ...interface{}) *AppError {
	return NewAppError(CodeInvalidAmount, http.StatusUnprocessableEntity, format, args...)
}

func ErrInvalidEta(format string, args ...interface{}) *AppError {
	return NewAppError(CodeInvalidEta, http.StatusUnprocessableEntity, format, args...)
}

func ErrBookingNotBiddable(format string, args ...interface{}) *AppError {
	return NewAppError(CodeBookingNotBiddable, http.StatusBadRequest, format, args...)
}

func ErrDuplicateBid(format string, args ...interface{}) *AppError {
	return NewAppError(CodeDuplicateBid, http.StatusConflict, format, args...)
}

func ErrServiceMismatch(format string, args ...interface{}) *AppError {
	return NewAppError(CodeServiceMismatch, http.StatusBadRequest, format, args...)
}

func ErrContractorUnavailable(format string, args ...interface{}) *AppError {
	return NewAppError(CodeContractorUnavailable, http.StatusBadRequest, format, args...)
}

func ErrBidExpired(format string, args ...interface{}) *AppError {
	return NewAppError(CodeBidExpired, http.StatusConflict, format, args...)
}

func ErrBidAlreadyResolved(format string, args ...interface{}) *AppError {
	return NewAppError(CodeBidAlreadyResolved, http.StatusConflict, format, args...)
}

func ErrBookingAlreadyAssigned(format string, args ...interface{}) *AppError {
	return NewAppError(CodeBookingAlreadyAssigned, http.StatusConflict, format, args...)
}

func ErrConflict(format string, args ...interface{}) *AppError {
	return NewAppError(CodeConflict, http.StatusConflict, format, args...)
}

func ErrInvalidStageTransition(format string, args ...interface{}) *AppError {
	return NewAppError(CodeInvalidStageTransition, http.StatusBadRequest, format, args...)
}

func ErrBookingNotActive(format string, args ...interface{}) *AppError {
	return NewAppError(CodeBookingNotActive, http.StatusBadRequest, format, args...)
}

func ErrExtraPartsPending(pendingCount int64) *AppError {
	return NewAppError(CodeExtraPartsPending, http.StatusConflict,
		"payment blocked: %d extra part(s) awaiting customer approval", pendingCount)
}

func ErrWrongStage(format string, args ...interface{}) *AppError {
	return NewAppError(CodeWrongStage, http.StatusBadRequest, format, args...)
}

func ErrPaymentAlreadyComplete(format string, args ...interface{}) *AppError {
	return NewAppError(CodePaymentAlreadyComplete, http.StatusConflict, format, args...)
}

func ErrUnauthorized(format string, args ...interface{}) *AppError {
	return NewAppError(CodeUnauthorized, http.StatusForbidden, format, args...)
}

func ErrNotFound(format string, args ...interface{}) *AppError {
	return NewAppError(CodeNotFound, http.StatusNotFound, format, args...)
}
