package config

import "errors"

var (
	// ErrInvalidBudget is returned when the discovery budget is not greater than 0
	ErrInvalidBudget = errors.New("budget must be greater than 0")
	// ErrInvalidMaxDepth is returned when max_depth is not greater than 0
	ErrInvalidMaxDepth = errors.New("max_depth must be greater than 0")
	// ErrInvalidMinExpand is returned when min_expand is not greater than 0
	ErrInvalidMinExpand = errors.New("min_expand must be greater than 0")
	// ErrInvalidJitter is returned when delay_jitter is outside [0, 1]
	ErrInvalidJitter = errors.New("delay_jitter must be between 0 and 1")
	// ErrInvalidTimeout is returned when request_timeout is not greater than 0
	ErrInvalidTimeout = errors.New("request_timeout must be greater than 0")
	// ErrEmptyDatabasePath is returned when database path is empty
	ErrEmptyDatabasePath = errors.New("database_path cannot be empty")
	// ErrNegativeWeight is returned when a scoring weight is negative
	ErrNegativeWeight = errors.New("scoring weights must be non-negative")
)
