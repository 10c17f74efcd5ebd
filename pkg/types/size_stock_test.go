package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStockFor(t *testing.T) {
	sizes := SizeStocks{{Size: "M", Stock: 5}, {Size: "L", Stock: 0}}

	assert.Equal(t, 5, sizes.StockFor("M"))
	assert.Equal(t, 0, sizes.StockFor("L"))
	assert.Equal(t, 0, sizes.StockFor("XL"))
	assert.Equal(t, 0, SizeStocks(nil).StockFor("M"))
}

func TestWithStock_updatesExistingEntry(t *testing.T) {
	sizes := SizeStocks{{Size: "M", Stock: 5}}

	updated := sizes.WithStock("M", 2)
	assert.Equal(t, 2, updated.StockFor("M"))

	// The original list is untouched.
	assert.Equal(t, 5, sizes.StockFor("M"))
}

func TestWithStock_appendsMissingEntry(t *testing.T) {
	sizes := SizeStocks{{Size: "M", Stock: 5}}

	updated := sizes.WithStock("XL", 3)
	assert.Len(t, updated, 2)
	assert.Equal(t, 3, updated.StockFor("XL"))
	assert.Len(t, sizes, 1)
}
