package repository

import "errors"

var (
	ErrDepartmentNotFound = errors.New("department not found")
	ErrSampleNotFound     = errors.New("sample not found")
	ErrUnitNotFound       = errors.New("unit not found")
	ErrCOANotFound        = errors.New("COA not found")
	ErrDraftNotFound      = errors.New("draft not found")
	ErrSignatureNotFound  = errors.New("signature not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrTokenNotFound      = errors.New("refresh token not found or revoked")
)
