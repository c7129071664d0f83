package services

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserInactive       = errors.New("account suspended")
	ErrTOTPRequired       = errors.New("two-factor code required")
	ErrInvalidTOTPCode    = errors.New("invalid two-factor code")
	ErrTOTPNotEnabled     = errors.New("two-factor authentication is not enabled")
	ErrNoTOTPSecret       = errors.New("two-factor setup has not been started")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrSelfDelete         = errors.New("cannot delete your own account")

	ErrPaymentsDisabled     = errors.New("online payments are not configured")
	ErrInvalidSignature     = errors.New("invalid payment signature")
	ErrAmountExceedsBalance = errors.New("amount exceeds the remaining balance")

	ErrStorageDisabled = errors.New("object storage is not configured")
)
