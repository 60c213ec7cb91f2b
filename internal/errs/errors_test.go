package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&ValidationError{Field: "price", Reason: "negative"}, http.StatusBadRequest},
		{&OutOfRangeError{Field: "quantity", Min: 1, Max: 999, Value: 0}, http.StatusBadRequest},
		{&InvalidQuantityError{Quantity: 0}, http.StatusBadRequest},
		{&NotFoundError{Entity: "product", ID: "x"}, http.StatusNotFound},
		{&InsufficientStockError{}, http.StatusUnprocessableEntity},
		{&NegativeStockError{}, http.StatusUnprocessableEntity},
		{&InvalidCartStateError{}, http.StatusUnprocessableEntity},
		{&InvalidStateTransitionError{}, http.StatusUnprocessableEntity},
		{&ConflictError{Entity: "review"}, http.StatusConflict},
		{errors.New("db gone"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), "%T", tc.err)
	}
}

func TestHTTPStatusUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("checkout failed: %w", &NotFoundError{Entity: "cart", ID: "c1"})
	assert.Equal(t, http.StatusNotFound, HTTPStatus(wrapped))
}

func TestInsufficientStockMessage(t *testing.T) {
	one := &InsufficientStockError{Shortfalls: []StockShortfall{
		{ProductID: "p1", Requested: 4, Available: 2},
	}}
	assert.Contains(t, one.Error(), "requested 4, available 2")

	many := &InsufficientStockError{Shortfalls: []StockShortfall{{}, {}}}
	assert.Contains(t, many.Error(), "2 products")
}
