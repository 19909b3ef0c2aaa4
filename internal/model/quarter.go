package model

import (
	"fmt"
	"time"
)

// Quarter identifies one calendar quarter.
type Quarter struct {
	Year int
	Q    int // 1-4
}

// QuarterOf returns the calendar quarter containing t.
func QuarterOf(t time.Time) Quarter {
	return Quarter{Year: t.Year(), Q: (int(t.Month())-1)/3 + 1}
}

// Label renders the quarter as e.g. "2024Q1".
func (q Quarter) Label() string {
	return fmt.Sprintf("%dQ%d", q.Year, q.Q)
}

// Start returns the first day of the quarter (UTC midnight).
func (q Quarter) Start() time.Time {
	return time.Date(q.Year, time.Month((q.Q-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
}

// Next returns the following quarter.
func (q Quarter) Next() Quarter {
	if q.Q == 4 {
		return Quarter{Year: q.Year + 1, Q: 1}
	}
	return Quarter{Year: q.Year, Q: q.Q + 1}
}

// Compare orders quarters chronologically: -1, 0, or 1.
func (q Quarter) Compare(o Quarter) int {
	if q.Year != o.Year {
		if q.Year < o.Year {
			return -1
		}
		return 1
	}
	if q.Q != o.Q {
		if q.Q < o.Q {
			return -1
		}
		return 1
	}
	return 0
}

// Before reports whether q precedes o.
func (q Quarter) Before(o Quarter) bool {
	return q.Compare(o) < 0
}
