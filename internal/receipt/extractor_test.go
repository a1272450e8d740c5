package receipt_test

import (
	"sync"
	"testing"
	"time"

	"fintrack/internal/receipt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 10, 19, 15, 4, 5, 0, time.UTC)

func newExtractor(t *testing.T) *receipt.Extractor {
	t.Helper()
	return receipt.NewExtractor(receipt.DefaultTables(), receipt.WithClock(func() time.Time { return fixedNow }))
}

func TestExtractEmptyInputReturnsDefaults(t *testing.T) {
	ex := newExtractor(t)

	for _, input := range []string{"", "   ", "\n\r\n\t"} {
		got := ex.Extract(input)
		assert.Equal(t, "Receipt Purchase", got.Description)
		assert.Nil(t, got.Amount)
		assert.False(t, got.HasAmount())
		assert.Equal(t, "2025-10-19", got.Date)
		assert.Equal(t, "Other", got.Category)
	}
}

func TestExtractFullReceipt(t *testing.T) {
	text := "STARBUCKS COFFEE #1234\r\n" +
		"123 Main St\r\n" +
		"Tel 555-123-4567\r\n" +
		"09/24/2018 10:32 AM\r\n" +
		"Latte Grande      $4.95\r\n" +
		"Muffin            $2.50\r\n" +
		"Subtotal          $7.45\r\n" +
		"Tax               $0.60\r\n" +
		"TOTAL             $8.05\r\n" +
		"VISA              $8.05\r\n"

	got := newExtractor(t).Extract(text)

	require.NotNil(t, got.Amount)
	assert.InDelta(t, 8.05, *got.Amount, 0.0001)
	assert.Equal(t, "Starbucks", got.Description)
	assert.Equal(t, "2018-09-24", got.Date)
	assert.Equal(t, "Food & Dining", got.Category)
}

func TestExtractDayMonthYearReceipt(t *testing.T) {
	got := newExtractor(t).Extract("24 Sep 18\nTotal $50.00")

	assert.Equal(t, "2018-09-24", got.Date)
	require.NotNil(t, got.Amount)
	assert.InDelta(t, 50.00, *got.Amount, 0.0001)
}

func TestExtractIsIdempotent(t *testing.T) {
	ex := newExtractor(t)
	text := "Corner Bistro\nLot 12 Jalan Ampang\n12 Mar 2024\nSub-total RM 40.00\nTOTAL RM 43.20"

	first := ex.Extract(text)
	second := ex.Extract(text)
	assert.Equal(t, first, second)
}

func TestExtractConcurrentUse(t *testing.T) {
	ex := newExtractor(t)
	text := "Walmart Supercenter\n03/14/2024\nTOTAL $123.45"
	want := ex.Extract(text)

	var wg sync.WaitGroup
	results := make([]receipt.Result, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = ex.Extract(text)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestNewExtractorCopiesTables(t *testing.T) {
	tables := receipt.DefaultTables()
	ex := receipt.NewExtractor(tables)

	tables.Categories[0].Keywords[0] = "walmart"
	tables.Brands[0] = "nothing"

	got := ex.Extract("starbucks at the walmart")
	assert.Equal(t, "Starbucks", got.Description)
	assert.Equal(t, "Groceries", got.Category)
}

func TestExtractorCategories(t *testing.T) {
	ex := newExtractor(t)
	assert.Equal(t, []string{
		"Food & Dining", "Groceries", "Transportation", "Housing",
		"Utilities", "Entertainment", "Shopping", "Health", "Other",
	}, ex.Categories())

	custom := receipt.NewExtractor(receipt.Tables{
		Categories: []receipt.CategoryRule{{Category: "Pets", Keywords: []string{"petco"}}},
	})
	assert.Equal(t, []string{"Pets", "Other"}, custom.Categories())
}
