package tier

import "fmt"

// Tier is the entitlement level a user has purchased.
type Tier string

const (
	Free      Tier = "free"
	Lessons   Tier = "lessons"
	LessonsAI Tier = "lessons_ai"
)

// All lists every tier in ascending rank.
var All = []Tier{Free, Lessons, LessonsAI}

// Paid lists the tiers that map to processor prices.
var Paid = []Tier{Lessons, LessonsAI}

// Parse validates a raw tier identifier.
func Parse(s string) (Tier, error) {
	switch t := Tier(s); t {
	case Free, Lessons, LessonsAI:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTier, s)
	}
}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	_, err := Parse(string(t))
	return err == nil
}

func (t Tier) String() string { return string(t) }

// Rank orders tiers: free=0, lessons=1, lessons_ai=2.
// Unknown tiers rank below free so they never win a comparison.
func Rank(t Tier) int {
	switch t {
	case Free:
		return 0
	case Lessons:
		return 1
	case LessonsAI:
		return 2
	default:
		return -1
	}
}

// Direction classifies a change from current to desired.
type Direction int

const (
	Lateral Direction = iota
	Upgrade
	Downgrade
)

func (d Direction) String() string {
	switch d {
	case Upgrade:
		return "upgrade"
	case Downgrade:
		return "downgrade"
	default:
		return "lateral"
	}
}

// Compare returns the direction of a change from current to desired.
func Compare(current, desired Tier) Direction {
	switch rc, rd := Rank(current), Rank(desired); {
	case rd > rc:
		return Upgrade
	case rd < rc:
		return Downgrade
	default:
		return Lateral
	}
}

// Interval is the billing frequency of a paid tier.
type Interval string

const (
	Monthly Interval = "month"
	Yearly  Interval = "year"
)

// Intervals lists every supported billing interval.
var Intervals = []Interval{Monthly, Yearly}

// ParseInterval validates a raw interval. Empty input defaults to Monthly.
func ParseInterval(s string) (Interval, error) {
	switch s {
	case "", string(Monthly), "monthly":
		return Monthly, nil
	case string(Yearly), "yearly", "annual":
		return Yearly, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidInterval, s)
	}
}
