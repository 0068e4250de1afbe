package item

import "errors"

var (
	ErrItemNotFound = errors.New("item not found")
	ErrTitleMissing = errors.New("title is required")
)
