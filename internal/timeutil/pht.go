package timeutil

import (
	"time"
)

// PHT is Philippine Standard Time (UTC+8), the store's business timezone
var PHT *time.Location

func init() {
	var err error
	PHT, err = time.LoadLocation("Asia/Manila")
	if err != nil {
		// Fallback: create fixed zone if Asia/Manila not available
		PHT = time.FixedZone("PHT", 8*60*60)
	}
}

// SetLocation switches the business timezone (store.timezone in config).
// Unknown names leave the current location in place.
func SetLocation(name string) error {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return err
	}
	PHT = loc
	return nil
}

// Now returns the current time in the store timezone
func Now() time.Time {
	return time.Now().In(PHT)
}

// ToLocal converts any time to the store timezone
func ToLocal(t time.Time) time.Time {
	return t.In(PHT)
}

// StartOfDay returns 00:00:00 of t's calendar day in the store timezone
func StartOfDay(t time.Time) time.Time {
	l := t.In(PHT)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, PHT)
}

// StartOfMonth returns midnight on the first of t's month in the store timezone
func StartOfMonth(t time.Time) time.Time {
	l := t.In(PHT)
	return time.Date(l.Year(), l.Month(), 1, 0, 0, 0, 0, PHT)
}

// Layouts printed on statements
const (
	StampLayout     = "02-Jan-2006 03:04 PM"
	DateLayout      = "02-Jan-2006"
	ShortDateLayout = "02-Jan-06"
)
