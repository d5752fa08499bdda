package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentChange(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		previous float64
		want     int
	}{
		{"both zero", 0, 0, 0},
		{"growth from zero", 5, 0, 100},
		{"drop to zero", 0, 5, -100},
		{"fifty percent up", 150, 100, 50},
		{"rounds to nearest", 101, 3, 3267},
		{"fractional inputs", 2.5, 5, -50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PercentChange(tt.current, tt.previous))
		})
	}
}

func TestConversionRate(t *testing.T) {
	tests := []struct {
		name          string
		registrations int
		visitors      int
		want          float64
	}{
		{"no visitors no registrations", 0, 0, 0},
		{"no visitors with registrations", 3, 0, 0},
		{"one in ten", 1, 10, 10.0},
		{"one decimal place", 1, 3, 33.3},
		{"above one hundred possible", 5, 4, 125.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConversionRate(tt.registrations, tt.visitors))
		})
	}
}

func TestComputeReportDayBucketing(t *testing.T) {
	loc := time.UTC
	today := time.Date(2026, 3, 14, 15, 0, 0, 0, loc)

	t.Run("events land in local calendar days", func(t *testing.T) {
		// One second before midnight belongs to the earlier day.
		visits := []VisitRecord{
			{Type: VisitTypePageview, VisitorID: "a", SessionID: "s1",
				CreatedAt: time.Date(2026, 3, 13, 23, 59, 59, 0, loc)},
			{Type: VisitTypePageview, VisitorID: "b", SessionID: "s2",
				CreatedAt: time.Date(2026, 3, 14, 0, 0, 0, 0, loc)},
		}

		report := ComputeReport(visits, nil, today)

		require.Len(t, report.Chart, WindowDays)
		byDay := chartByDay(report)
		assert.Equal(t, 1, byDay["2026-03-13"].Visitors)
		assert.Equal(t, 1, byDay["2026-03-14"].Visitors)
	})

	t.Run("zero timestamps and out-of-window events are skipped", func(t *testing.T) {
		visits := []VisitRecord{
			{Type: VisitTypePageview, VisitorID: "a", SessionID: "s1"},
			{Type: VisitTypePageview, VisitorID: "b", SessionID: "s2",
				CreatedAt: today.AddDate(0, 0, -20)},
			{Type: VisitTypePageview, VisitorID: "c", SessionID: "s3",
				CreatedAt: today.AddDate(0, 0, 2)},
		}
		registrations := []RegistrationRecord{
			{},
			{CreatedAt: today.AddDate(0, 0, -30)},
		}

		report := ComputeReport(visits, registrations, today)

		assert.Equal(t, 0, report.Visitors)
		assert.Equal(t, 0, report.Pageviews)
		assert.Equal(t, 0, report.Registrations)
	})

	t.Run("visitors are deduplicated per day", func(t *testing.T) {
		day := time.Date(2026, 3, 14, 10, 0, 0, 0, loc)
		visits := []VisitRecord{
			{Type: VisitTypePageview, VisitorID: "a", SessionID: "s1", CreatedAt: day},
			{Type: VisitTypePageview, VisitorID: "a", SessionID: "s1", CreatedAt: day.Add(time.Minute)},
			{Type: VisitTypePageview, VisitorID: "a", SessionID: "s2", CreatedAt: day.Add(2 * time.Hour)},
		}

		report := ComputeReport(visits, nil, today)

		assert.Equal(t, 1, report.Visitors)
		assert.Equal(t, 3, report.Pageviews)
	})

	t.Run("sessions count once per day started", func(t *testing.T) {
		day := time.Date(2026, 3, 14, 10, 0, 0, 0, loc)
		visits := []VisitRecord{
			{Type: VisitTypeSessionStart, VisitorID: "a", SessionID: "s1", CreatedAt: day},
			{Type: VisitTypeSessionStart, VisitorID: "a", SessionID: "s1", CreatedAt: day.Add(time.Minute)},
			{Type: VisitTypeSessionStart, VisitorID: "a", SessionID: "s2", CreatedAt: day.Add(time.Hour)},
		}

		report := ComputeReport(visits, nil, today)

		assert.Equal(t, 2, report.Sessions)
	})
}

func TestComputeReportSingleDayScenario(t *testing.T) {
	loc := time.UTC
	today := time.Date(2026, 3, 14, 18, 0, 0, 0, loc)
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, loc)

	// One visitor, one session, three pageviews, one registration.
	visits := []VisitRecord{
		{Type: VisitTypeSessionStart, VisitorID: "v1", SessionID: "s1", CreatedAt: at},
		{Type: VisitTypePageview, VisitorID: "v1", SessionID: "s1", CreatedAt: at},
		{Type: VisitTypePageview, VisitorID: "v1", SessionID: "s1", CreatedAt: at.Add(time.Minute)},
		{Type: VisitTypePageview, VisitorID: "v1", SessionID: "s1", CreatedAt: at.Add(2 * time.Minute)},
	}
	registrations := []RegistrationRecord{{CreatedAt: at.Add(5 * time.Minute)}}

	report := ComputeReport(visits, registrations, today)

	assert.Equal(t, 1, report.Visitors)
	assert.Equal(t, 1, report.Sessions)
	assert.Equal(t, 3, report.Pageviews)
	assert.Equal(t, 1, report.Registrations)
	assert.Equal(t, 100.0, report.ConversionRate)

	byDay := chartByDay(report)
	assert.Equal(t, 1, byDay["2026-03-14"].Visitors)
	assert.Equal(t, 1, byDay["2026-03-14"].Registrations)
}

func TestComputeReportPeriodComparison(t *testing.T) {
	loc := time.UTC
	today := time.Date(2026, 3, 14, 12, 0, 0, 0, loc)

	// Two visitors in the current 7 days, one in the previous 7 days.
	visits := []VisitRecord{
		{Type: VisitTypePageview, VisitorID: "cur1", SessionID: "s1",
			CreatedAt: today.AddDate(0, 0, -1)},
		{Type: VisitTypePageview, VisitorID: "cur2", SessionID: "s2",
			CreatedAt: today.AddDate(0, 0, -3)},
		{Type: VisitTypePageview, VisitorID: "prev1", SessionID: "s3",
			CreatedAt: today.AddDate(0, 0, -10)},
	}

	report := ComputeReport(visits, nil, today)

	assert.Equal(t, 2, report.Visitors)
	assert.Equal(t, 100, report.VisitorsChange)
	assert.Equal(t, 2, report.Pageviews)
	assert.Equal(t, 100, report.PageviewsChange)
}

func TestComputeReportConversionWithoutVisitors(t *testing.T) {
	loc := time.UTC
	today := time.Date(2026, 3, 14, 12, 0, 0, 0, loc)

	// Registrations without any tracked visit: rate stays 0.
	registrations := []RegistrationRecord{
		{CreatedAt: today.AddDate(0, 0, -1)},
		{CreatedAt: today.AddDate(0, 0, -2)},
		{CreatedAt: today.AddDate(0, 0, -3)},
	}

	report := ComputeReport(nil, registrations, today)

	assert.Equal(t, 3, report.Registrations)
	assert.Equal(t, 0, report.Visitors)
	assert.Equal(t, 0.0, report.ConversionRate)
}

func TestComputeReportChartAndMaxY(t *testing.T) {
	loc := time.UTC
	today := time.Date(2026, 3, 14, 12, 0, 0, 0, loc)

	t.Run("empty inputs still produce a full series with MaxY 1", func(t *testing.T) {
		report := ComputeReport(nil, nil, today)

		require.Len(t, report.Chart, WindowDays)
		assert.Equal(t, "2026-03-01", report.Chart[0].Day)
		assert.Equal(t, "2026-03-14", report.Chart[WindowDays-1].Day)
		assert.Equal(t, 1, report.MaxY)
	})

	t.Run("MaxY tracks the largest series value", func(t *testing.T) {
		visits := []VisitRecord{}
		for i := 0; i < 5; i++ {
			visits = append(visits, VisitRecord{
				Type:      VisitTypePageview,
				VisitorID: string(rune('a' + i)),
				SessionID: "s",
				CreatedAt: today.AddDate(0, 0, -1),
			})
		}

		report := ComputeReport(visits, nil, today)

		assert.Equal(t, 5, report.MaxY)
	})
}

func TestComputeReportIsDeterministic(t *testing.T) {
	loc := time.UTC
	today := time.Date(2026, 3, 14, 12, 0, 0, 0, loc)
	visits := []VisitRecord{
		{Type: VisitTypeSessionStart, VisitorID: "v1", SessionID: "s1", CreatedAt: today.AddDate(0, 0, -2)},
		{Type: VisitTypePageview, VisitorID: "v1", SessionID: "s1", CreatedAt: today.AddDate(0, 0, -2)},
		{Type: VisitTypePageview, VisitorID: "v2", SessionID: "s2", CreatedAt: today.AddDate(0, 0, -9)},
	}
	registrations := []RegistrationRecord{{CreatedAt: today.AddDate(0, 0, -2)}}

	first := ComputeReport(visits, registrations, today)
	second := ComputeReport(visits, registrations, today)

	assert.Equal(t, first.Visitors, second.Visitors)
	assert.Equal(t, first.Sessions, second.Sessions)
	assert.Equal(t, first.Pageviews, second.Pageviews)
	assert.Equal(t, first.Registrations, second.Registrations)
	assert.Equal(t, first.Chart, second.Chart)
}

func TestComputeReportTimezoneBoundaries(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	today := time.Date(2026, 3, 14, 8, 0, 0, 0, loc)

	// 23:00 UTC on the 13th is already the 14th at UTC+10.
	visits := []VisitRecord{
		{Type: VisitTypePageview, VisitorID: "a", SessionID: "s1",
			CreatedAt: time.Date(2026, 3, 13, 23, 0, 0, 0, time.UTC)},
	}

	report := ComputeReport(visits, nil, today)

	byDay := chartByDay(report)
	assert.Equal(t, 1, byDay["2026-03-14"].Visitors)
	assert.Equal(t, 0, byDay["2026-03-13"].Visitors)
}

func chartByDay(report *Report) map[string]ChartPoint {
	byDay := make(map[string]ChartPoint, len(report.Chart))
	for _, p := range report.Chart {
		byDay[p.Day] = p
	}
	return byDay
}
