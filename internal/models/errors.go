package models

import "errors"

// Custom errors
var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicateKey     = errors.New("duplicate key violation")
	ErrEmptySeries      = errors.New("price series is empty")
	ErrUnorderedSeries  = errors.New("price series dates are not strictly increasing")
	ErrInvalidPrice     = errors.New("price series contains non-positive prices")
	ErrInvalidVolume    = errors.New("price series contains negative volume")
	ErrScannerNotFound  = errors.New("scanner not registered")
	ErrUnknownParameter = errors.New("unknown scanner parameter")
)
