package checkout

import "fmt"

// StockConflictError is the collaborator's commit-time rejection: at least
// one line's authoritative stock was insufficient. The whole sale was rolled
// back; nothing was decremented.
type StockConflictError struct {
	ProductIDs []string
}

func (e *StockConflictError) Error() string {
	return fmt.Sprintf("stock conflict at commit for products %v", e.ProductIDs)
}
