package utils

import (
	"math"
	"time"
)

// Aging bucket labels, ordered from least to most overdue. Day 0 (due
// today) counts as current, so the first overdue bucket starts at day 1.
const (
	BucketCurrent = "current"
	Bucket1To30   = "1-30"
	Bucket31To60  = "31-60"
	Bucket61To90  = "61-90"
	BucketOver90  = ">90"
)

// TruncateToDay drops the sub-day component of t in its own location.
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysUntilDue returns the whole calendar days between now and dueDate.
// Positive means the due date is in the future, negative means overdue.
// The due date is evaluated in now's location and both sides truncated to
// midnight, so neither sub-day precision nor a timezone offset between the
// stored date and the sweep clock can shift a reminder across a trigger
// point.
func DaysUntilDue(dueDate, now time.Time) int {
	due := TruncateToDay(dueDate.In(now.Location()))
	today := TruncateToDay(now)
	// Round instead of truncating so a DST-shortened day still counts as one.
	return int(math.Round(due.Sub(today).Hours() / 24))
}

// AgingBucket classifies how many days an obligation is overdue.
// daysOverdue <= 0 means not yet due.
func AgingBucket(daysOverdue int) string {
	switch {
	case daysOverdue <= 0:
		return BucketCurrent
	case daysOverdue <= 30:
		return Bucket1To30
	case daysOverdue <= 60:
		return Bucket31To60
	case daysOverdue <= 90:
		return Bucket61To90
	default:
		return BucketOver90
	}
}

// AgingBucketLabels returns every bucket label in report order.
func AgingBucketLabels() []string {
	return []string{BucketCurrent, Bucket1To30, Bucket31To60, Bucket61To90, BucketOver90}
}
