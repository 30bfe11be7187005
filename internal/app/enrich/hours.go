package enrich

import (
	"fmt"
	"strconv"

	"platemap/internal/placeapi"
	"platemap/internal/store"
)

// defaultCloseTime is used when a period arrives without an explicit close.
// Both the intake and batch paths share this parser, so the default is the
// same everywhere.
const defaultCloseTime = "23:00"

// providerDays maps the provider's day index (0 = Sunday) to weekday keys.
var providerDays = []string{
	"sunday", "monday", "tuesday", "wednesday",
	"thursday", "friday", "saturday",
}

// ParseHours translates provider opening periods into the canonical hours
// map. Every weekday key is present in the output: days with a matching
// period are marked open with the translated times, the rest keep the default
// schedule and stay marked closed.
func ParseHours(periods []placeapi.OpeningPeriod) map[string]store.DayHours {
	hours := make(map[string]store.DayHours, len(store.Weekdays))
	for _, day := range store.Weekdays {
		hours[day] = store.DefaultDayHours(day)
	}

	for _, period := range periods {
		if period.OpenDay < 0 || period.OpenDay >= len(providerDays) {
			continue
		}
		day := providerDays[period.OpenDay]
		if hours[day].IsOpen {
			continue // first matching period wins
		}

		open := formatClock(period.OpenTime, period.OpenHour, period.OpenMinute, "")
		if open == "" {
			continue
		}
		close := formatClock(period.CloseTime, period.CloseHour, period.CloseMinute, defaultCloseTime)

		hours[day] = store.DayHours{Open: open, Close: close, IsOpen: true}
	}

	return hours
}

// formatClock renders "HH:MM" from either a compact "HHMM" string or split
// hour/minute fields, falling back when neither is usable.
func formatClock(compact string, hour, minute *int, fallback string) string {
	if hour != nil {
		m := 0
		if minute != nil {
			m = *minute
		}
		if *hour >= 0 && *hour <= 23 && m >= 0 && m <= 59 {
			return fmt.Sprintf("%02d:%02d", *hour, m)
		}
		return fallback
	}

	if len(compact) == 4 {
		h, errH := strconv.Atoi(compact[:2])
		m, errM := strconv.Atoi(compact[2:])
		if errH == nil && errM == nil && h >= 0 && h <= 23 && m >= 0 && m <= 59 {
			return fmt.Sprintf("%02d:%02d", h, m)
		}
	}

	return fallback
}
