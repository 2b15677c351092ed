package order

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrItemNotFound      = errors.New("item not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrAlreadySettled is returned when a webhook reports a different outcome
	// for a payment that already reached a terminal state.
	ErrAlreadySettled = errors.New("payment already settled with a different outcome")
)

// ValidationError marks a request rejected before touching storage.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationf(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// ShortLine describes one requested line that exceeds available stock.
type ShortLine struct {
	ItemID    string `json:"itemId"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// InsufficientStockError carries every line that could not be fulfilled.
// The order is rejected as a whole; no stock is decremented.
type InsufficientStockError struct {
	Lines []ShortLine
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		parts = append(parts, fmt.Sprintf("%s (requested %d, available %d)", l.Name, l.Requested, l.Available))
	}
	return "insufficient stock for " + strings.Join(parts, ", ")
}
