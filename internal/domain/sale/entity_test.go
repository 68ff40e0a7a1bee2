// internal/domain/sale/entity_test.go
package sale

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func datePtr(value string) *time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestPaymentStatusPriority(t *testing.T) {
	pastDue := datePtr("2020-01-01")
	futureDue := datePtr("2099-01-01")

	cases := []struct {
		name string
		sale Sale
		want PaymentStatus
	}{
		{
			name: "closure wins over everything",
			sale: Sale{IsClosed: true, DueAmount: amount("100"), PaidAmount: amount("50"), DueDate: pastDue},
			want: PaymentStatusClosed,
		},
		{
			name: "fully paid",
			sale: Sale{DueAmount: amount("0"), PaidAmount: amount("100")},
			want: PaymentStatusCompleted,
		},
		{
			name: "partly paid beats overdue",
			sale: Sale{DueAmount: amount("50"), PaidAmount: amount("50"), DueDate: pastDue},
			want: PaymentStatusPartial,
		},
		{
			name: "overdue when unpaid past the due date",
			sale: Sale{DueAmount: amount("100"), DueDate: pastDue},
			want: PaymentStatusOverdue,
		},
		{
			name: "pending when unpaid before the due date",
			sale: Sale{DueAmount: amount("100"), DueDate: futureDue},
			want: PaymentStatusPending,
		},
		{
			name: "pending without a due date",
			sale: Sale{DueAmount: amount("100")},
			want: PaymentStatusPending,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.sale.PaymentStatus())
		})
	}
}

func TestClosureStatus(t *testing.T) {
	cases := []struct {
		name string
		sale Sale
		want string
	}{
		{"open", Sale{}, "Open"},
		{
			"fully paid",
			Sale{IsClosed: true, DueAmount: amount("0"), WriteoffAmount: amount("0"), PaidAmount: amount("100")},
			"Closed - Fully Paid",
		},
		{
			"write-off with payments",
			Sale{IsClosed: true, DueAmount: amount("0"), WriteoffAmount: amount("70"), PaidAmount: amount("200")},
			"Closed - Partial Write-off",
		},
		{
			// A full write-off zeroes the due amount first, so this label
			// applies even when nothing was ever paid
			"write-off without payments",
			Sale{IsClosed: true, DueAmount: amount("0"), WriteoffAmount: amount("270")},
			"Closed - Partial Write-off",
		},
		{
			"full write-off label needs money still due",
			Sale{IsClosed: true, DueAmount: amount("50"), WriteoffAmount: amount("220")},
			"Closed - Full Write-off",
		},
		{
			"administrative closure with balance owed",
			Sale{IsClosed: true, DueAmount: amount("270"), PaidAmount: amount("10")},
			"Closed",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.sale.ClosureStatus())
		})
	}
}

func TestSettlementMetrics(t *testing.T) {
	t.Run("standard case", func(t *testing.T) {
		s := Sale{
			FinalAmount:    amount("270"),
			PaidAmount:     amount("200"),
			WriteoffAmount: amount("70"),
		}
		assert.True(t, s.CollectionEfficiency().Equal(amount("74.07")))
		assert.True(t, s.RecoveryRate().Equal(amount("100")))
		assert.True(t, s.LossPercentage().Equal(amount("25.93")))
	})

	t.Run("zero final amount", func(t *testing.T) {
		s := Sale{FinalAmount: amount("0")}
		assert.True(t, s.CollectionEfficiency().IsZero())
		// nothing to recover counts as fully recovered
		assert.True(t, s.RecoveryRate().Equal(amount("100")))
		assert.True(t, s.LossPercentage().IsZero())
	})
}

func TestLineAmounts(t *testing.T) {
	t.Run("rounds the discount before the total", func(t *testing.T) {
		item := SaleItem{Quantity: 3, UnitPrice: amount("9.99"), DiscountPercentage: amount("5")}
		discountAmount, totalPrice := item.LineAmounts()
		// 29.97 * 5% = 1.4985, rounded to 1.50
		assert.True(t, discountAmount.Equal(amount("1.50")), "discount %s", discountAmount)
		assert.True(t, totalPrice.Equal(amount("28.47")), "total %s", totalPrice)
	})

	t.Run("no discount", func(t *testing.T) {
		item := SaleItem{Quantity: 4, UnitPrice: amount("12.25")}
		discountAmount, totalPrice := item.LineAmounts()
		assert.True(t, discountAmount.IsZero())
		assert.True(t, totalPrice.Equal(amount("49.00")))
	})
}

func TestOverdue(t *testing.T) {
	t.Run("needs a past due date and money owed", func(t *testing.T) {
		s := Sale{DueAmount: amount("10"), DueDate: datePtr("2020-01-01")}
		assert.True(t, s.Overdue())
		assert.Positive(t, s.DaysOverdue())
	})

	t.Run("not overdue without a due date", func(t *testing.T) {
		s := Sale{DueAmount: amount("10")}
		assert.False(t, s.Overdue())
		assert.Zero(t, s.DaysOverdue())
	})

	t.Run("not overdue once closed", func(t *testing.T) {
		s := Sale{DueAmount: amount("10"), DueDate: datePtr("2020-01-01"), IsClosed: true}
		assert.False(t, s.Overdue())
	})

	t.Run("not overdue when settled", func(t *testing.T) {
		s := Sale{DueAmount: decimal.Zero, DueDate: datePtr("2020-01-01")}
		assert.False(t, s.Overdue())
	})
}

func TestRecomputeAmountsIdempotent(t *testing.T) {
	s := &Sale{
		DiscountAmount: amount("10"),
		Items: []SaleItem{
			{Quantity: 10, UnitPrice: amount("20.00"), DiscountPercentage: amount("10")},
			{Quantity: 1, UnitPrice: amount("100.00")},
		},
	}
	recomputeAmounts(s)
	assert.True(t, s.TotalAmount.Equal(amount("300.00")))
	assert.True(t, s.FinalAmount.Equal(amount("270.00")))
	assert.True(t, s.DueAmount.Equal(amount("270.00")))

	first := *s
	recomputeAmounts(s)
	assert.True(t, first.TotalAmount.Equal(s.TotalAmount))
	assert.True(t, first.FinalAmount.Equal(s.FinalAmount))
	assert.True(t, first.DueAmount.Equal(s.DueAmount))

	t.Run("final amount floors at zero", func(t *testing.T) {
		s := &Sale{
			DiscountAmount: amount("500"),
			Items:          []SaleItem{{Quantity: 1, UnitPrice: amount("100.00")}},
		}
		recomputeAmounts(s)
		assert.True(t, s.FinalAmount.IsZero())
		assert.True(t, s.DueAmount.IsZero())
	})
}
