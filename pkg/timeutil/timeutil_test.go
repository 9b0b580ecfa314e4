package timeutil

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDateOfTruncatesToUTCDay(t *testing.T) {
	// 23:30 in UTC+5 is 18:30 UTC the same day.
	zone := time.FixedZone("UTC+5", 5*60*60)
	local := time.Date(2026, time.March, 14, 23, 30, 0, 0, zone)

	d := DateOf(local)
	assert.Equal(t, NewDate(2026, time.March, 14), d)

	// 03:00 in UTC+5 is still the previous UTC day.
	early := time.Date(2026, time.March, 15, 3, 0, 0, 0, zone)
	assert.Equal(t, NewDate(2026, time.March, 14), DateOf(early))
}

func TestAddDaysCrossesMonthBoundary(t *testing.T) {
	d := NewDate(2026, time.January, 31)
	assert.Equal(t, NewDate(2026, time.February, 1), d.AddDays(1))
	assert.Equal(t, NewDate(2026, time.January, 30), d.AddDays(-1))
}

func TestDaysUntilIsSigned(t *testing.T) {
	a := NewDate(2026, time.March, 1)
	b := NewDate(2026, time.March, 4)

	assert.Equal(t, 3, a.DaysUntil(b))
	assert.Equal(t, -3, b.DaysUntil(a))
	assert.Equal(t, 0, a.DaysUntil(a))
}

func TestWeekStartReturnsMonday(t *testing.T) {
	// 2026-03-14 is a Saturday; its week starts Monday 2026-03-09.
	sat := NewDate(2026, time.March, 14)
	assert.Equal(t, NewDate(2026, time.March, 9), sat.WeekStart())

	// Sunday belongs to the week starting the previous Monday.
	sun := NewDate(2026, time.March, 15)
	assert.Equal(t, NewDate(2026, time.March, 9), sun.WeekStart())

	// Monday is its own week start.
	mon := NewDate(2026, time.March, 9)
	assert.Equal(t, mon, mon.WeekStart())
}

func TestZeroDate(t *testing.T) {
	var d CalendarDate
	assert.True(t, d.IsZero())
	assert.Equal(t, "", d.String())
	assert.False(t, NewDate(2026, time.January, 1).IsZero())
}

func TestParseDateRoundTrip(t *testing.T) {
	d, err := ParseDate("2026-03-14")
	assert.NoError(t, err)
	assert.Equal(t, NewDate(2026, time.March, 14), d)
	assert.Equal(t, "2026-03-14", d.String())

	_, err = ParseDate("14.03.2026")
	assert.Error(t, err)
}

func TestCalendarDateJSON(t *testing.T) {
	type payload struct {
		Date CalendarDate `json:"date"`
	}

	out, err := json.Marshal(payload{Date: NewDate(2026, time.March, 14)})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"date":"2026-03-14"}`, string(out))

	var in payload
	assert.NoError(t, json.Unmarshal([]byte(`{"date":"2026-03-14"}`), &in))
	assert.Equal(t, NewDate(2026, time.March, 14), in.Date)

	var empty payload
	assert.NoError(t, json.Unmarshal([]byte(`{"date":null}`), &empty))
	assert.True(t, empty.Date.IsZero())

	out, err = json.Marshal(payload{})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"date":null}`, string(out))
}

func TestFixedClock(t *testing.T) {
	start := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	clock := NewFixedClock(start)

	assert.Equal(t, start, clock.Now())
	assert.Equal(t, NewDate(2026, time.March, 14), Today(clock))

	clock.AdvanceDays(1)
	assert.Equal(t, NewDate(2026, time.March, 15), Today(clock))

	clock.Advance(12 * time.Hour)
	assert.Equal(t, start.AddDate(0, 0, 1).Add(12*time.Hour), clock.Now())
}
