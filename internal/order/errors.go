package order

import "errors"

// ErrDuplicateOrderNumber maps the order_number unique violation so the
// usecase can regenerate the number and retry the insert.
var ErrDuplicateOrderNumber = errors.New("order number already taken")
