package user

import "errors"

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrUserEmailExists        = errors.New("email already registered")
	ErrAdminPrivilegeRequired = errors.New("admin privilege required")
	ErrForbidden              = errors.New("not allowed to act on behalf of another user")
	ErrRateEffectiveInPast    = errors.New("hourly rate changes cannot take effect in the past")
)
