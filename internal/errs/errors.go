// Package errs defines the error kinds the commerce core raises. Every kind
// carries enough context for the delivery layer to build a precise user-facing
// message; the core itself never logs or retries.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError reports malformed or out-of-range input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports a missing or inactive referenced entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// OutOfRangeError reports a quantity outside the permitted cart line bounds.
type OutOfRangeError struct {
	Field string
	Min   int
	Max   int
	Value int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s %d out of range [%d, %d]", e.Field, e.Value, e.Min, e.Max)
}

// InvalidQuantityError reports a quantity below one.
type InvalidQuantityError struct {
	Quantity int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be at least 1, got %d", e.Quantity)
}

// StockShortfall describes one cart or order line that cannot be fulfilled.
type StockShortfall struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

// InsufficientStockError reports lines whose requested quantity exceeds live
// stock. Single-line operations carry exactly one shortfall; checkout may
// carry several.
type InsufficientStockError struct {
	Shortfalls []StockShortfall
}

func (e *InsufficientStockError) Error() string {
	if len(e.Shortfalls) == 1 {
		s := e.Shortfalls[0]
		return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
			s.ProductID, s.Requested, s.Available)
	}
	return fmt.Sprintf("insufficient stock for %d products", len(e.Shortfalls))
}

// InvalidCartStateError reports checkout attempted on a cart that cannot be
// ordered (empty, expired, or inactive).
type InvalidCartStateError struct {
	CartID string
	Reason string
}

func (e *InvalidCartStateError) Error() string {
	return fmt.Sprintf("cart %s cannot be ordered: %s", e.CartID, e.Reason)
}

// NegativeStockError reports a ledger transaction that would drive stock
// below zero.
type NegativeStockError struct {
	ProductID   string
	StockBefore int
	Quantity    int
}

func (e *NegativeStockError) Error() string {
	return fmt.Sprintf("transaction of %d would drive product %s stock below zero (current %d)",
		e.Quantity, e.ProductID, e.StockBefore)
}

// InvalidStateTransitionError reports an order status change from a terminal
// or non-adjacent state.
type InvalidStateTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("%s cannot transition from %s to %s", e.Entity, e.From, e.To)
}

// ConflictError reports a uniqueness violation (duplicate SKU, duplicate
// review, order number collision that exhausted retries).
type ConflictError struct {
	Entity string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Entity, e.Reason)
}

// HTTPStatus maps an error kind to the status code the delivery layer should
// respond with. Unknown errors map to 500.
func HTTPStatus(err error) int {
	var (
		validation  *ValidationError
		notFound    *NotFoundError
		outOfRange  *OutOfRangeError
		invalidQty  *InvalidQuantityError
		noStock     *InsufficientStockError
		cartState   *InvalidCartStateError
		negStock    *NegativeStockError
		transition  *InvalidStateTransitionError
		conflictErr *ConflictError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &outOfRange), errors.As(err, &invalidQty):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &noStock), errors.As(err, &negStock), errors.As(err, &cartState), errors.As(err, &transition):
		return http.StatusUnprocessableEntity
	case errors.As(err, &conflictErr):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
