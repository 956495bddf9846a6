package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
}

func TestHolidayCalendar_IsWorkday(t *testing.T) {
	h := NewHolidayCalendar()

	tests := []struct {
		name    string
		day     time.Time
		country string
		want    bool
	}{
		{"weekday without calendar", date(2025, time.December, 24), "NONE", true},
		{"weekend without calendar", date(2025, time.December, 27), "NONE", false},
		{"unknown country falls back to weekdays", date(2025, time.December, 25), "ZZ", true},
		{"US christmas", date(2025, time.December, 25), "US", false},
		{"GB boxing day", date(2025, time.December, 26), "gb", false},
		{"CN national day", date(2024, time.October, 1), "CN", false},
		{"CN make-up workday on sunday", date(2024, time.September, 29), "CN", true},
		{"CN ordinary weekday", date(2024, time.October, 15), "CN", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.IsWorkday(tt.day, tt.country))
		})
	}
}

func TestHolidayCalendar_SupportedCountries(t *testing.T) {
	h := NewHolidayCalendar()
	codes := map[string]bool{}
	for _, c := range h.SupportedCountries() {
		codes[c.Code] = true
	}
	for code := range h.calendars {
		assert.True(t, codes[code], "calendar %s not listed", code)
	}
	assert.True(t, codes["CN"])
	assert.True(t, codes["NONE"])
}

func TestHolidayCalendar_Supports(t *testing.T) {
	h := NewHolidayCalendar()
	assert.True(t, h.Supports("us"))
	assert.True(t, h.Supports(" NONE "))
	assert.False(t, h.Supports("XX"))
}
