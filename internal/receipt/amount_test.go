package receipt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAmount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{name: "dollar total", text: "Coffee $3.00\nTotal $252.00", want: 252.00},
		{name: "dropped decimal", text: "Total 25200", want: 252.00},
		{name: "total outranks earlier subtotal", text: "Subtotal $10.00\nTax $2.50\nTotal $12.50", want: 12.50},
		{name: "last total wins", text: "Total items 2\nTotal $30.00\nCash $50.00\nChange $20.00", want: 30.00},
		{name: "amount on next line", text: "GRAND TOTAL\n$18.40\nThank you", want: 18.40},
		{name: "ringgit prefix with thousands", text: "TOTAL RM 1,234.50", want: 1234.50},
		{name: "stray s for dollar", text: "TOTAL s12.00", want: 12.00},
		{name: "stray S at line start", text: "Coffee\nS7.25", want: 7.25},
		{name: "stray S after colon", text: "Paid:S9.10", want: 9.10},
		{name: "whole amount up to 100 kept", text: "Total 100", want: 100},
		{name: "whole amount above 100 rescaled", text: "Total 101", want: 1.01},
		{name: "subtotal when no total", text: "Sub-total $9.00\nTax $0.90", want: 9.00},
		{name: "sub total with space", text: "Sub Total 1500", want: 15.00},
		{name: "largest currency amount fallback", text: "Item $3.00\nItem $45.00\nItem $1.20", want: 45.00},
		{name: "fallback rescales dropped decimal", text: "Burger $1299\nFries $3.50", want: 12.99},
	}

	ex := newExtractor(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ex.Extract(tt.text)
			require.NotNil(t, got.Amount)
			assert.InDelta(t, tt.want, *got.Amount, 0.0001)
		})
	}
}

func TestExtractAmountAbsent(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "below noise threshold", text: "Candy $0.30"},
		{name: "at noise threshold", text: "Candy $0.50"},
		{name: "no numbers", text: "Thank you for shopping"},
		{name: "zero total", text: "Total $0.00"},
		{name: "bare numbers only", text: "Item 12.00\nItem 3.40"},
		{name: "possessive before address", text: "Trader Joe's 123 Main St\nThank you"},
		{name: "possessive before quantity", text: "McDonald's 2 Big Mac"},
		{name: "possessive before street number", text: "Lotus's 5500 Jalan Ampang"},
	}

	ex := newExtractor(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, ex.Extract(tt.text).Amount)
		})
	}
}
