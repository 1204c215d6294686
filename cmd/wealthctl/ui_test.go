package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/simaogato/wealthsim-backend/internal/domain"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{amount: "0", want: "$0.00"},
		{amount: "1234.5", want: "$1,234.50"},
		{amount: "10.005", want: "$10.01"},
		{amount: "-2500", want: "-$2,500.00"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, formatMoney(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestLastPoints(t *testing.T) {
	points := make([]domain.NetWorthPoint, 5)
	for i := range points {
		points[i].Version = int64(i)
	}

	assert.Len(t, lastPoints(points, 0), 5)
	assert.Len(t, lastPoints(points, 10), 5)
	got := lastPoints(points, 2)
	assert.Equal(t, []int64{3, 4}, []int64{got[0].Version, got[1].Version})
}

func TestPrintHistory(t *testing.T) {
	color.NoColor = true
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	var buf bytes.Buffer
	printHistory(&buf, []domain.NetWorthPoint{
		{At: at, NetWorth: decimal.NewFromInt(10_000)},
		{At: at, NetWorth: decimal.NewFromInt(12_500)},
	})

	out := buf.String()
	assert.Contains(t, out, "$12,500.00")
	assert.Contains(t, out, "+$2,500.00")
	assert.Contains(t, out, "2026-01-02 03:04:05")
}
