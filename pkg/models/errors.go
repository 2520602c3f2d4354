package models

import (
	"errors"
	"fmt"
)

// Error kinds shared by services and handlers. Handlers map them to status codes.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation failed")
	ErrDataAccess   = errors.New("data access failed")
	ErrUpstream     = errors.New("upstream service failed")
	ErrModel        = errors.New("model failure")
)

// DaysRangeError reports a day count outside its allowed window
type DaysRangeError struct {
	Days int
	Min  int
	Max  int
}

func (e *DaysRangeError) Error() string {
	return fmt.Sprintf("Days must be between %d and %d", e.Min, e.Max)
}

func (e *DaysRangeError) Unwrap() error { return ErrValidation }

// CheckDays validates days against [lo, hi]
func CheckDays(days, lo, hi int) error {
	if days < lo || days > hi {
		return &DaysRangeError{Days: days, Min: lo, Max: hi}
	}
	return nil
}

// UnknownFunctionError is returned when the model asks for a function the service does not know
type UnknownFunctionError struct {
	Name string
}

func (e *UnknownFunctionError) Error() string {
	return fmt.Sprintf("function %q is not recognized", e.Name)
}
