package models

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoValidItems is returned when none of the requested menu ids exist.
	ErrNoValidItems = errors.New("no valid menu items found")

	// ErrOrderNotFound covers missing orders and ownership mismatches alike,
	// so callers cannot probe which order ids exist.
	ErrOrderNotFound = errors.New("order not found")

	// ErrMenuItemNotFound is returned by point lookups in the catalog.
	ErrMenuItemNotFound = errors.New("menu item not found")
)

// FieldError names a single invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports the malformed fields of a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		return fmt.Sprintf("invalid field %s: %s", e.Fields[0].Field, e.Fields[0].Message)
	}
	return fmt.Sprintf("%d invalid fields", len(e.Fields))
}

// Add appends a field error and returns the receiver for chaining.
func (e *ValidationError) Add(field, message string) *ValidationError {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
	return e
}

// LeadTimeError is returned when the delivery window starts too soon.
type LeadTimeError struct {
	Required time.Duration
}

func (e *LeadTimeError) Error() string {
	return fmt.Sprintf("delivery time must be at least %v in advance", e.Required)
}

// UnknownItemError is returned when a requested menu id does not exist in
// the catalog. The whole order is rejected, never partially admitted.
type UnknownItemError struct {
	MenuID string
}

func (e *UnknownItemError) Error() string {
	return fmt.Sprintf("menu item with id %s not found", e.MenuID)
}

// InsufficientStockError is returned when live stock cannot cover a
// requested quantity. Available reports the stock seen at rejection time.
type InsufficientStockError struct {
	MenuID    string
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for menu item %s: only %d available", e.MenuID, e.Available)
}
