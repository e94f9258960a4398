package repository

import "errors"

// Storage drivers translate their own "no rows" / duplicate errors into these
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)
