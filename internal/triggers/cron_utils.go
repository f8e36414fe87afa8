package triggers

import (
	"fmt"
	"time"

	"github.com/dhima/version-watch/internal/models"
	"github.com/robfig/cron/v3"
)

var dailyParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// NextOccurrence returns the first instant strictly after from at which t
// occurs, in from's location. A time of day equal to from therefore lands on
// the following day. On a date where a forward clock change skips t, the
// occurrence is midnight plus t's elapsed duration, so that date still fires.
func NextOccurrence(t models.FixedTime, from time.Time) (time.Time, error) {
	if !t.Valid() {
		return time.Time{}, NewValidationError("invalid time of day %d:%d", t.Hour, t.Minute)
	}

	schedule, err := dailyParser.Parse(fmt.Sprintf("%d %d * * *", t.Minute, t.Hour))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid daily schedule: %w", err)
	}

	next := schedule.Next(from)
	if next.IsZero() {
		return time.Time{}, fmt.Errorf("no occurrence of %s after %s", t, from.Format(time.RFC3339))
	}

	// cron passes over dates on which the wall-clock time does not exist.
	for day := from; dateBefore(day, next); day = day.AddDate(0, 0, 1) {
		if at := onDate(t, day); at.After(from) && at.Before(next) {
			return at, nil
		}
	}
	return next, nil
}

// NextDailyOccurrence returns the occurrence of t after a fire at fired. It
// never lands on fired's local date, even when a backward clock change
// repeats the wall-clock time later that day.
func NextDailyOccurrence(t models.FixedTime, fired, now time.Time) (time.Time, error) {
	from := endOfDay(fired.In(now.Location()))
	if now.After(from) {
		from = now
	}
	return NextOccurrence(t, from)
}

// onDate places t on day's calendar date in day's location.
func onDate(t models.FixedTime, day time.Time) time.Time {
	y, m, d := day.Date()
	at := time.Date(y, m, d, t.Hour, t.Minute, 0, 0, day.Location())
	if at.Hour() == t.Hour && at.Minute() == t.Minute {
		return at
	}
	midnight := time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	return midnight.Add(time.Duration(t.Hour)*time.Hour + time.Duration(t.Minute)*time.Minute)
}

// endOfDay is the last nanosecond of at's local date.
func endOfDay(at time.Time) time.Time {
	y, m, d := at.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, at.Location()).Add(-time.Nanosecond)
}

func dateBefore(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC).Before(time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC))
}
