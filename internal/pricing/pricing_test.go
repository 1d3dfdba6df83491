package pricing

import (
	"testing"
	"time"

	"github.com/itsalifarrukh/hb-apparel/internal/deal"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var now = time.Date(2024, 11, 29, 12, 0, 0, 0, time.UTC)

func window(id int, discount string, from, to time.Duration) deal.Deal {
	return deal.Deal{ID: id, Discount: d(discount), StartTime: now.Add(from), EndTime: now.Add(to)}
}

func TestEvaluate_NoDealUsesDiscountedPrice(t *testing.T) {
	expired := window(1, "50", -48*time.Hour, -24*time.Hour)
	future := window(2, "50", time.Hour, 2*time.Hour)

	q := Evaluate(d("100"), d("90"), []deal.Deal{expired, future}, now)
	assert.Nil(t, q.ActiveDeal)
	assert.Nil(t, q.DealPrice)
	assert.True(t, q.EffectivePrice.Equal(d("90")))
}

func TestEvaluate_ActiveDealOverridesStaticDiscount(t *testing.T) {
	active := window(3, "20", -time.Hour, time.Hour)

	q := Evaluate(d("100"), d("90"), []deal.Deal{active}, now)
	require.NotNil(t, q.ActiveDeal)
	require.NotNil(t, q.DealPrice)
	assert.Equal(t, 3, q.ActiveDeal.ID)
	assert.True(t, q.DealPrice.Equal(d("80")))
	assert.True(t, q.EffectivePrice.Equal(d("80")), "deal and static discount must not stack")
}

func TestActiveDeal_TieBreak(t *testing.T) {
	cases := []struct {
		name  string
		deals []deal.Deal
		want  int
	}{
		{"highest discount", []deal.Deal{window(1, "10", -time.Hour, time.Hour), window(2, "30", -time.Hour, time.Hour)}, 2},
		{"latest start on equal discount", []deal.Deal{window(5, "10", -3*time.Hour, time.Hour), window(4, "10", -time.Hour, time.Hour)}, 4},
		{"lowest id on full tie", []deal.Deal{window(9, "10", -time.Hour, time.Hour), window(6, "10", -time.Hour, time.Hour)}, 6},
		{"inactive ignored", []deal.Deal{window(1, "90", time.Hour, 2*time.Hour), window(2, "5", -time.Hour, time.Hour)}, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ActiveDeal(tc.deals, now)
			require.NotNil(t, got)
			assert.Equal(t, tc.want, got.ID)
		})
	}
}

func TestDiscountedPrice(t *testing.T) {
	assert.True(t, DiscountedPrice(d("100"), d("0")).Equal(d("100")))
	assert.True(t, DiscountedPrice(d("59.99"), d("15")).Equal(d("50.99")))
	assert.True(t, DiscountedPrice(d("19.99"), d("33")).Equal(d("13.39")))
}

func TestRoundCents_HalfUp(t *testing.T) {
	assert.Equal(t, "1.01", RoundCents(d("1.005")).StringFixed(2))
	assert.Equal(t, "2.67", RoundCents(d("2.665")).StringFixed(2))
	assert.Equal(t, "2.66", RoundCents(d("2.6649")).StringFixed(2))
}

func TestToCents(t *testing.T) {
	assert.Equal(t, int64(21600), ToCents(d("216.00")))
	assert.Equal(t, int64(8640), ToCents(d("86.4")))
	assert.Equal(t, int64(1), ToCents(d("0.005")))
}
