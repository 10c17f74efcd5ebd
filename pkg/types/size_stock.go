package types

// SizeStock is one per-size stock counter on a product's inventory record.
// The slice of these is stored as a JSON column and is only mutated through
// the inventory ledger's adjust operation.
type SizeStock struct {
	Size  string `json:"size"`
	Stock int    `json:"stock"`
}

// SizeStocks is the full per-size inventory list for a product.
type SizeStocks []SizeStock

// StockFor returns the stock count for the given size. A size that has no
// entry yet counts as zero stock.
func (s SizeStocks) StockFor(size string) int {
	for _, entry := range s {
		if entry.Size == size {
			return entry.Stock
		}
	}
	return 0
}

// WithStock returns a copy of the list with the given size set to count,
// appending a new entry when the size is not present.
func (s SizeStocks) WithStock(size string, count int) SizeStocks {
	updated := make(SizeStocks, len(s))
	copy(updated, s)
	for i, entry := range updated {
		if entry.Size == size {
			updated[i].Stock = count
			return updated
		}
	}
	return append(updated, SizeStock{Size: size, Stock: count})
}
