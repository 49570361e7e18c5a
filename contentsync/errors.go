package contentsync

import "errors"

// Sentinel errors for package contentsync.
var (
	// Category errors
	ErrEmptyCategory         = errors.New("category name is empty")
	ErrDuplicateCategory     = errors.New("duplicate category")
	ErrInvalidRetention      = errors.New("retention must not be negative")
	ErrOverlappingCategories = errors.New("category tokens overlap")
	ErrInvalidCategoryName   = errors.New("category name must be a plain directory name")

	// Run errors
	ErrNoCategories = errors.New("no categories configured")
)
