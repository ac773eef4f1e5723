package conditions

import (
	"time"

	"github.com/i474232898/ski-conditions-aggregation/internal/common"
)

// ResortWindows slices a forecast timeline into today, this weekend and next
// weekend using Saturday/Sunday spans. Once Saturday noon has passed, the
// current weekend no longer counts and both windows move one week ahead.
//
// now is injected so weekend boundaries are reproducible; its location
// defines what "local" means for the noon rule and calendar days.
func ResortWindows(periods []ForecastPeriod, now time.Time) Forecasts {
	f := Forecasts{
		ThisWeekend: []ForecastPeriod{},
		NextWeekend: []ForecastPeriod{},
	}
	if len(periods) > 0 {
		f.Today = periods[0]
	}

	d := daysUntil(now, time.Saturday)
	if d == 0 && now.After(atHour(now, 12)) {
		d = 7
	}

	for _, p := range periods {
		off, ok := dayOffset(now, p.Date)
		if !ok {
			continue
		}
		switch {
		case off >= d && off <= d+1:
			f.ThisWeekend = append(f.ThisWeekend, p)
		case off >= d+7 && off <= d+8:
			f.NextWeekend = append(f.NextWeekend, p)
		}
	}
	return f
}

// AreaWindows groups a timeline for the general area summary. Weekends run
// Friday afternoon through Sunday night; on Friday only periods labelled
// afternoon, evening or night are kept. After 18:00 on Friday the current
// weekend is considered started and "this weekend" moves to the next one.
//
// The Friday filter relies on upstream period names and is a heuristic.
func AreaWindows(periods []ForecastPeriod, now time.Time) AreaSummary {
	s := AreaSummary{
		TodayTomorrow: []ForecastPeriod{},
		ThisWeekend:   []ForecastPeriod{},
		NextWeekend:   []ForecastPeriod{},
	}

	d := daysUntil(now, time.Friday)
	if now.Weekday() == time.Friday && !now.Before(atHour(now, 18)) {
		d = 7
	}

	for _, p := range periods {
		off, ok := dayOffset(now, p.Date)
		if !ok {
			continue
		}
		if off == 0 || off == 1 {
			s.TodayTomorrow = append(s.TodayTomorrow, p)
		}
		if inFridayWeekend(p, off, d) {
			s.ThisWeekend = append(s.ThisWeekend, p)
		}
		if inFridayWeekend(p, off, d+7) {
			s.NextWeekend = append(s.NextWeekend, p)
		}
	}
	return s
}

func inFridayWeekend(p ForecastPeriod, off, friday int) bool {
	if off < friday || off > friday+2 {
		return false
	}
	if off == friday {
		return common.ContainsAnyFold(p.Name, "afternoon", "evening", "night")
	}
	return true
}

// daysUntil returns how many days ahead the next target weekday is (0 if today).
func daysUntil(now time.Time, target time.Weekday) int {
	return (int(target) - int(now.Weekday()) + 7) % 7
}

func atHour(now time.Time, hour int) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, hour, 0, 0, 0, now.Location())
}

// dayOffset is the number of calendar days from now's date to t's date, both
// taken in now's location. Periods without a date are skipped.
func dayOffset(now, t time.Time) (int, bool) {
	if t.IsZero() {
		return 0, false
	}
	y1, m1, d1 := now.Date()
	y2, m2, d2 := t.In(now.Location()).Date()
	a := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	b := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24), true
}
