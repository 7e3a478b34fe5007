package errors

import "errors"

var (
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidLevel       = errors.New("invalid level")
	ErrInvalidAdminUser   = errors.New("invalid admin user")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrForbidden          = errors.New("forbidden")
	ErrAdminNotFound      = errors.New("admin user not found")
	ErrDuplicateEmail     = errors.New("admin user with this email already exists")
	ErrAdminAlreadyActive = errors.New("admin user is already active")
	ErrHierarchyLookup    = errors.New("location hierarchy lookup failed")
)
