package deal

import (
	"time"

	"github.com/shopspring/decimal"
)

// Deal is a time-bounded promotion attached to one or more products.
// Whether it is active is derived from the clock, never stored.
type Deal struct {
	ID        int             `json:"id"`
	Title     string          `json:"title"`
	Discount  decimal.Decimal `json:"discount"`
	StartTime time.Time       `json:"startTime"`
	EndTime   time.Time       `json:"endTime"`
}

// ActiveAt reports whether start <= now <= end.
func (d Deal) ActiveAt(now time.Time) bool {
	return !now.Before(d.StartTime) && !now.After(d.EndTime)
}
