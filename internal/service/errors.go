package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidRole        = errors.New("role must be admin, technician or user")
	ErrInvalidPINFormat   = errors.New("PIN must be 6 to 8 digits")
	ErrPINRejected        = errors.New("PIN does not match any active signature")
	ErrPINInUse           = errors.New("PIN is already used by another signature")
	ErrSignatureExists    = errors.New("a signature with this name already exists")
	ErrUnitNotInSample    = errors.New("unit does not belong to this sample")
	ErrDepartmentChanged  = errors.New("the department of a saved unit cannot change")
	ErrDuplicateUnit      = errors.New("unit is listed more than once")
	ErrCOAExists          = errors.New("a COA already exists for this unit")
	ErrCOAFinalized       = errors.New("COA is finalized")
	ErrCOANotFinalized    = errors.New("COA is not finalized")
	ErrInvalidCOA         = errors.New("invalid COA")
	ErrInvalidPeriod      = errors.New("period must be day, week, month or year, or a from/to date range")
)
