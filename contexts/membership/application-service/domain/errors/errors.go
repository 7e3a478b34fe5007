package domainerrors

import "errors"

var (
	ErrInvalidApplication  = errors.New("application input is invalid")
	ErrApplicationNotFound = errors.New("application not found")
	ErrUnknownDistrict     = errors.New("district is not present in the location hierarchy")
	ErrForbidden           = errors.New("actor is not authorized for this application")
	ErrAlreadyClaimed      = errors.New("application is already claimed by another administrator")
	ErrAlreadyDecided      = errors.New("application status is terminal")
	ErrNotAccepted         = errors.New("only accepted members can be assigned roles")
	ErrInvalidRole         = errors.New("role selection is invalid")
	ErrInvalidCursor       = errors.New("list cursor is malformed")
	ErrLetterUnavailable   = errors.New("joining letter could not be produced")
)
