package domain

import "time"

// UnderlyingBar is one minute bar of the spot index, together with the
// expiry date and the call/put contract codes active for that bar.
// Bars are immutable; the replay runner delivers one per step.
type UnderlyingBar struct {
	Time   time.Time // local wall clock, no timezone
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64

	ExpiryDay   int
	ExpiryMonth int
	ExpiryYear  int

	CallScrip string // scrip code of the active CE leg
	PutScrip  string // scrip code of the active PE leg
}

// ExpiryDate returns the contract expiry carried by this bar as a date.
func (b *UnderlyingBar) ExpiryDate() time.Time {
	return time.Date(b.ExpiryYear, time.Month(b.ExpiryMonth), b.ExpiryDay, 0, 0, 0, 0, time.UTC)
}

// DaysToExpiry returns whole calendar days from the bar's date to expiry.
func (b *UnderlyingBar) DaysToExpiry() int {
	barDate := time.Date(b.Time.Year(), b.Time.Month(), b.Time.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.ExpiryDate().Sub(barDate).Hours() / 24)
}

// IsExpiryDay reports whether the bar's date equals the contract expiry date.
func (b *UnderlyingBar) IsExpiryDay() bool {
	return b.Time.Year() == b.ExpiryYear &&
		int(b.Time.Month()) == b.ExpiryMonth &&
		b.Time.Day() == b.ExpiryDay
}

// SameDate reports whether two timestamps fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
