package orders

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	all := []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

	allowed := map[[2]Status]bool{
		{StatusPending, StatusProcessing}:   true,
		{StatusPending, StatusCancelled}:    true,
		{StatusProcessing, StatusShipped}:   true,
		{StatusProcessing, StatusCancelled}: true,
		{StatusShipped, StatusDelivered}:    true,
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]Status{from, to}]
			assert.Equalf(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCanTransition_SelfAlwaysRejected(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled} {
		assert.Falsef(t, CanTransition(s, s), "self transition %s", s)
	}
}

func TestCanTransition_UnknownStatus(t *testing.T) {
	assert.False(t, CanTransition(Status("BOGUS"), StatusPending))
	assert.False(t, CanTransition(StatusPending, Status("BOGUS")))
}

func TestDeletable(t *testing.T) {
	assert.True(t, Deletable(StatusPending))
	assert.True(t, Deletable(StatusCancelled))
	assert.False(t, Deletable(StatusProcessing))
	assert.False(t, Deletable(StatusShipped))
	assert.False(t, Deletable(StatusDelivered))
}

func TestComputeTotal(t *testing.T) {
	price := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }

	tests := []struct {
		name  string
		lines []OrderLine
		want  string
	}{
		{"empty set is exactly zero", nil, "0"},
		{"single line", []OrderLine{{Quantity: 2, UnitPrice: price("1500.00")}}, "3000.00"},
		{"replacement set", []OrderLine{{Quantity: 3, UnitPrice: price("25.00")}}, "75.00"},
		{
			"multiple lines",
			[]OrderLine{
				{Quantity: 2, UnitPrice: price("10.50")},
				{Quantity: 1, UnitPrice: price("0.99")},
				{Quantity: 4, UnitPrice: price("3.00")},
			},
			"33.99",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotal(tt.lines)
			assert.Truef(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}
