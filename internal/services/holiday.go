package services

import (
	"strings"
	"time"

	"github.com/6tail/lunar-go/HolidayUtil"
	"github.com/6tail/lunar-go/calendar"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/au"
	"github.com/rickar/cal/v2/ca"
	"github.com/rickar/cal/v2/de"
	"github.com/rickar/cal/v2/fr"
	"github.com/rickar/cal/v2/gb"
	"github.com/rickar/cal/v2/jp"
	"github.com/rickar/cal/v2/us"
)

// HolidayCalendar answers whether a date is a working day in a country.
// "NONE" and unknown codes mean Monday to Friday.
type HolidayCalendar struct {
	calendars map[string]*cal.BusinessCalendar
}

func NewHolidayCalendar() *HolidayCalendar {
	h := &HolidayCalendar{calendars: make(map[string]*cal.BusinessCalendar)}
	h.calendars["US"] = businessCalendar("United States", us.Holidays...)
	h.calendars["GB"] = businessCalendar("United Kingdom", gb.Holidays...)
	h.calendars["DE"] = businessCalendar("Germany", de.Holidays...)
	h.calendars["FR"] = businessCalendar("France", fr.Holidays...)
	h.calendars["JP"] = businessCalendar("Japan", jp.Holidays...)
	h.calendars["AU"] = businessCalendar("Australia", au.HolidaysNSW...)
	h.calendars["CA"] = businessCalendar("Canada", ca.Holidays...)
	return h
}

func businessCalendar(name string, holidays ...*cal.Holiday) *cal.BusinessCalendar {
	c := cal.NewBusinessCalendar()
	c.Name = name
	c.AddHoliday(holidays...)
	return c
}

func (h *HolidayCalendar) IsWorkday(t time.Time, country string) bool {
	country = strings.ToUpper(strings.TrimSpace(country))
	if country == "CN" {
		return isWorkdayChina(t)
	}
	c, ok := h.calendars[country]
	if !ok {
		return !cal.IsWeekend(t)
	}
	return c.IsWorkday(t)
}

// isWorkdayChina honours the official make-up working days, which can fall
// on weekends.
func isWorkdayChina(t time.Time) bool {
	solar := calendar.NewSolarFromDate(t)
	if holiday := HolidayUtil.GetHolidayByYmd(solar.GetYear(), solar.GetMonth(), solar.GetDay()); holiday != nil {
		return holiday.IsWork()
	}
	return !cal.IsWeekend(t)
}

type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (h *HolidayCalendar) SupportedCountries() []Country {
	return []Country{
		{Code: "NONE", Name: "Weekdays Only (Mon-Fri)"},
		{Code: "US", Name: "United States"},
		{Code: "GB", Name: "United Kingdom"},
		{Code: "DE", Name: "Germany"},
		{Code: "FR", Name: "France"},
		{Code: "JP", Name: "Japan"},
		{Code: "AU", Name: "Australia"},
		{Code: "CA", Name: "Canada"},
		{Code: "CN", Name: "China"},
	}
}

// Supports reports whether country has a calendar. Unknown codes fall back
// to plain weekdays in IsWorkday.
func (h *HolidayCalendar) Supports(country string) bool {
	country = strings.ToUpper(strings.TrimSpace(country))
	for _, c := range h.SupportedCountries() {
		if c.Code == country {
			return true
		}
	}
	return false
}
