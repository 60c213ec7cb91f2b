package inventory

import "errors"

// ErrStockConflict signals that the product's stock level moved between the
// usecase read and the guarded write. The usecase re-reads and retries.
var ErrStockConflict = errors.New("stock level changed concurrently")
