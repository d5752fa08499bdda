// Package reports turns the raw visit log and the registration log into the
// 14-day dashboard report. Aggregation is recomputed from scratch on every
// run; there is no incremental state to drift.
package reports

import (
	"math"
	"time"
)

const (
	// WindowDays is the full report window: 7 current days plus the 7
	// previous days used for period-over-period comparison.
	WindowDays = 14
	halfDays   = 7

	dayLayout = "2006-01-02"
)

// Visit types the aggregation recognizes. Sources feed event rows carrying
// these values; anything else is ignored.
const (
	VisitTypeSessionStart = "session_start"
	VisitTypePageview     = "pageview"
)

// VisitRecord is the slice of an event row the aggregation needs.
type VisitRecord struct {
	Type      string
	VisitorID string
	SessionID string
	CreatedAt time.Time
}

// RegistrationRecord marks one account registration.
type RegistrationRecord struct {
	CreatedAt time.Time
}

// ChartPoint is one calendar day in the dashboard series.
type ChartPoint struct {
	Day           string `json:"day"`
	Visitors      int    `json:"visitors"`
	Registrations int    `json:"registrations"`
}

// Report is the full dashboard payload: current-window totals, their
// period-over-period changes, and the daily series.
type Report struct {
	Visitors       int     `json:"visitors"`
	Sessions       int     `json:"sessions"`
	Pageviews      int     `json:"pageviews"`
	Registrations  int     `json:"registrations"`
	ConversionRate float64 `json:"conversionRate"`

	VisitorsChange       int `json:"visitorsChange"`
	SessionsChange       int `json:"sessionsChange"`
	PageviewsChange      int `json:"pageviewsChange"`
	RegistrationsChange  int `json:"registrationsChange"`
	ConversionRateChange int `json:"conversionRateChange"`

	Chart []ChartPoint `json:"chart"`
	MaxY  int          `json:"maxY"`

	GeneratedAt time.Time `json:"generatedAt"`
}

type dayBucket struct {
	visitors      map[string]struct{}
	sessions      map[string]struct{}
	pageviews     int
	registrations int
}

// ComputeReport aggregates visits and registrations over the 14 local
// calendar days ending on today's date, in today's location. Records with a
// zero timestamp or outside the window are skipped. Deterministic: same
// inputs, same report.
func ComputeReport(visits []VisitRecord, registrations []RegistrationRecord, today time.Time) *Report {
	loc := today.Location()
	local := today.In(loc)
	windowEnd := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	days := make([]string, WindowDays)
	index := make(map[string]int, WindowDays)
	buckets := make([]dayBucket, WindowDays)
	for i := range days {
		key := windowEnd.AddDate(0, 0, i-(WindowDays-1)).Format(dayLayout)
		days[i] = key
		index[key] = i
		buckets[i] = dayBucket{
			visitors: make(map[string]struct{}),
			sessions: make(map[string]struct{}),
		}
	}

	for _, v := range visits {
		if v.CreatedAt.IsZero() {
			continue
		}
		i, ok := index[v.CreatedAt.In(loc).Format(dayLayout)]
		if !ok {
			continue
		}
		switch v.Type {
		case VisitTypePageview:
			buckets[i].pageviews++
			if v.VisitorID != "" {
				buckets[i].visitors[v.VisitorID] = struct{}{}
			}
		case VisitTypeSessionStart:
			if v.SessionID != "" {
				buckets[i].sessions[v.SessionID] = struct{}{}
			}
			if v.VisitorID != "" {
				buckets[i].visitors[v.VisitorID] = struct{}{}
			}
		}
	}

	for _, r := range registrations {
		if r.CreatedAt.IsZero() {
			continue
		}
		if i, ok := index[r.CreatedAt.In(loc).Format(dayLayout)]; ok {
			buckets[i].registrations++
		}
	}

	var cur, prev struct {
		visitors, sessions, pageviews, registrations int
	}
	for i, b := range buckets {
		half := &prev
		if i >= halfDays {
			half = &cur
		}
		half.visitors += len(b.visitors)
		half.sessions += len(b.sessions)
		half.pageviews += b.pageviews
		half.registrations += b.registrations
	}

	chart := make([]ChartPoint, WindowDays)
	maxY := 1
	for i, b := range buckets {
		chart[i] = ChartPoint{
			Day:           days[i],
			Visitors:      len(b.visitors),
			Registrations: b.registrations,
		}
		if chart[i].Visitors > maxY {
			maxY = chart[i].Visitors
		}
		if chart[i].Registrations > maxY {
			maxY = chart[i].Registrations
		}
	}

	curConv := ConversionRate(cur.registrations, cur.visitors)
	prevConv := ConversionRate(prev.registrations, prev.visitors)

	return &Report{
		Visitors:       cur.visitors,
		Sessions:       cur.sessions,
		Pageviews:      cur.pageviews,
		Registrations:  cur.registrations,
		ConversionRate: curConv,

		VisitorsChange:       PercentChange(float64(cur.visitors), float64(prev.visitors)),
		SessionsChange:       PercentChange(float64(cur.sessions), float64(prev.sessions)),
		PageviewsChange:      PercentChange(float64(cur.pageviews), float64(prev.pageviews)),
		RegistrationsChange:  PercentChange(float64(cur.registrations), float64(prev.registrations)),
		ConversionRateChange: PercentChange(curConv, prevConv),

		Chart:       chart,
		MaxY:        maxY,
		GeneratedAt: time.Now().UTC(),
	}
}

// PercentChange returns the period-over-period change rounded to whole
// percent. A previous value of zero reads as +100% growth when the current
// value is nonzero, and 0% when both are zero.
func PercentChange(current, previous float64) int {
	if current == 0 && previous == 0 {
		return 0
	}
	if previous == 0 {
		return 100
	}
	return int(math.Round((current - previous) / previous * 100))
}

// ConversionRate returns registrations per visitor as a percentage with one
// decimal place. Zero visitors always yields 0, even with registrations
// present, rather than a division blowup.
func ConversionRate(registrations, visitors int) float64 {
	if visitors == 0 {
		return 0
	}
	return math.Round(float64(registrations)/float64(visitors)*1000) / 10
}
