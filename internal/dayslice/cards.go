package dayslice

import (
	"time"

	"github.com/weatherdash/weatherdash/internal/weather"
)

// DailyCard summarizes one day of the record.
type DailyCard struct {
	Index       int      `json:"index"`
	Date        string   `json:"date"`
	DayName     string   `json:"dayName"`
	DayNumber   int      `json:"dayNumber"`
	TempMax     *float64 `json:"tempMax"`
	TempMin     *float64 `json:"tempMin"`
	Icon        string   `json:"icon"`
	IconURL     string   `json:"iconUrl"`
	Condition   string   `json:"condition"`
	IsToday     bool     `json:"isToday"`
	IsYesterday bool     `json:"isYesterday"`
	IsSelected  bool     `json:"isSelected"`
}

// DailyCards builds one card per daily entry. Today is evaluated at now in
// the record's UTC offset; the icon and condition come from the first hour
// of each day.
func DailyCards(r *weather.Record, selected int, now time.Time) []DailyCard {
	if r == nil {
		return nil
	}

	loc := time.FixedZone(r.Timezone, r.UTCOffsetSeconds)
	today := now.In(loc).Format(time.DateOnly)
	yesterday := now.In(loc).AddDate(0, 0, -1).Format(time.DateOnly)
	codes := r.Hourly.Get(weather.MetricWeatherCode)

	cards := make([]DailyCard, 0, len(r.Daily.Time))
	for i, date := range r.Daily.Time {
		code := 0
		if v, ok := codes.At(i * weather.HoursPerDay); ok {
			code = int(v)
		}
		cond := weather.NewCondition(code, true)

		card := DailyCard{
			Index:       i,
			Date:        date,
			TempMax:     r.Daily.TemperatureMax.Ptr(i),
			TempMin:     r.Daily.TemperatureMin.Ptr(i),
			Icon:        cond.Icon,
			IconURL:     weather.IconURL(cond.Icon),
			Condition:   cond.Description,
			IsToday:     date == today,
			IsYesterday: date == yesterday,
			IsSelected:  i == selected,
		}

		d, err := time.ParseInLocation(time.DateOnly, date, loc)
		if err == nil {
			card.DayNumber = d.Day()
		}
		switch {
		case card.IsYesterday:
			card.DayName = "Yesterday"
		case card.IsToday:
			card.DayName = "Today"
		case err == nil:
			card.DayName = d.Format("Mon")
		default:
			card.DayName = date
		}
		cards = append(cards, card)
	}
	return cards
}

// TodayIndex returns the index of today's entry in the record, or -1.
func TodayIndex(r *weather.Record, now time.Time) int {
	if r == nil {
		return -1
	}
	today := now.In(time.FixedZone(r.Timezone, r.UTCOffsetSeconds)).Format(time.DateOnly)
	for i, date := range r.Daily.Time {
		if date == today {
			return i
		}
	}
	return -1
}

// ReaderOptions returns the reader options for day of r at now.
func ReaderOptions(r *weather.Record, day int, now time.Time, opts Options) Options {
	if r == nil {
		return opts
	}
	opts.IsToday = TodayIndex(r, now) == day
	opts.Hour = now.In(time.FixedZone(r.Timezone, r.UTCOffsetSeconds)).Hour()
	return opts
}
