package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCronExpressionFieldCount(t *testing.T) {
	_, err := ParseCronExpression("* * * *")
	assert.Error(t, err)

	_, err = ParseCronExpression("0 3 * * *")
	assert.NoError(t, err)
}

func TestParseCronExpressionInvalidFields(t *testing.T) {
	cases := []string{
		"60 * * * *",
		"* 24 * * *",
		"x * * * *",
		"*/0 * * * *",
	}
	for _, expr := range cases {
		_, err := ParseCronExpression(expr)
		assert.Error(t, err, expr)
	}
}

func TestCronNextDailyAtThree(t *testing.T) {
	ce := MustParseCronExpression("0 3 * * *")

	// Before 03:00 resolves to today, after resolves to tomorrow.
	next := ce.Next(time.Date(2026, time.March, 14, 1, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, time.March, 14, 3, 0, 0, 0, time.UTC), next)

	next = ce.Next(time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, time.March, 15, 3, 0, 0, 0, time.UTC), next)
}

func TestCronNextEveryFiveMinutes(t *testing.T) {
	ce := MustParseCronExpression("*/5 * * * *")

	next := ce.Next(time.Date(2026, time.March, 14, 10, 2, 30, 0, time.UTC))
	assert.Equal(t, time.Date(2026, time.March, 14, 10, 5, 0, 0, time.UTC), next)

	// Exactly on a match the next slot is returned, not the current one.
	next = ce.Next(time.Date(2026, time.March, 14, 10, 5, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, time.March, 14, 10, 10, 0, 0, time.UTC), next)
}

func TestCronNextWeekday(t *testing.T) {
	// Midnight on Sundays. 2026-03-14 is a Saturday.
	ce := MustParseCronExpression("0 0 * * 0")

	next := ce.Next(time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC), next)
	assert.Equal(t, time.Sunday, next.Weekday())
}

func TestCronNextList(t *testing.T) {
	ce := MustParseCronExpression("0,30 12 * * *")

	next := ce.Next(time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, time.March, 14, 12, 30, 0, 0, time.UTC), next)
}

func TestCronString(t *testing.T) {
	assert.Equal(t, "0 3 * * *", MustParseCronExpression("0 3 * * *").String())
}

func TestIntervalSchedule(t *testing.T) {
	s := NewIntervalSchedule(10 * time.Minute)

	at := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, at.Add(10*time.Minute), s.Next(at))
	require.Contains(t, s.String(), "10m")
}
