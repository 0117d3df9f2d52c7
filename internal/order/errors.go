package order

import "errors"

var (
	ErrValidation           = errors.New("validation")
	ErrNotFound             = errors.New("not found")
	ErrTransitionNotAllowed = errors.New("transition not allowed")
	ErrNotEditable          = errors.New("order is no longer editable")
)
