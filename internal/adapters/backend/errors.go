package backend

import "errors"

// Sentinel errors. The text doubles as the {error} message on the wire, so
// some start with a capital letter.
var (
	ErrEventNotFound         = errors.New("Event not found")
	ErrCategoryNotFound      = errors.New("Category not found")
	ErrMissingEventFields    = errors.New("Missing 'text' or 'date' field")
	ErrMissingCategoryFields = errors.New("Missing 'name' or 'color' field")
	ErrInvalidDate           = errors.New("date must be YYYY-MM-DD")
	ErrUnknownCategory       = errors.New("categoryId does not reference a category")
	ErrEmptyText             = errors.New("text must not be empty")
	ErrEmptyName             = errors.New("name must not be empty")
	ErrPersist               = errors.New("failed to save data")
)
