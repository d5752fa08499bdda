package http_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jpsystems/internal/events"
	"jpsystems/internal/testsupport"
	"jpsystems/internal/users"
)

func TestDashboardDataAction(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	testsupport.CleanAllTables(db)

	testsupport.CreateTestUserForAuth(t, db, "admin@example.com", "secret-password", users.RoleAdmin)

	now := time.Now().UTC()
	visitor := testsupport.NewVisitorID()
	testsupport.CreateVisitEvent(t, db, events.TypeSessionStart, visitor, "s-1", now.Add(-2*time.Hour))
	testsupport.CreateVisitEvent(t, db, events.TypePageview, visitor, "s-1", now.Add(-2*time.Hour))
	testsupport.CreateVisitEvent(t, db, events.TypePageview, visitor, "s-1", now.Add(-1*time.Hour))
	testsupport.CreateRegisteredUserAt(t, db, "reg@example.com", now.Add(-3*time.Hour))

	app := testsupport.CreateMinimalTestApp(t, db)
	session, _, _ := testsupport.LoginTestUser(t, app, "admin@example.com", "secret-password")
	cookies := fmt.Sprintf("%s=%s; _tz=UTC", testsupport.SessionCookieName, session)

	req := httptest.NewRequest("GET", "/admin/api/dashboard", nil)
	req.Header.Set("Cookie", cookies)

	resp, err := app.Test(req, 30000)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var report struct {
		Visitors       int `json:"visitors"`
		Sessions       int `json:"sessions"`
		Pageviews      int `json:"pageviews"`
		Registrations  int `json:"registrations"`
		ConversionRate float64 `json:"conversionRate"`
		Chart          []struct {
			Day           string `json:"day"`
			Visitors      int    `json:"visitors"`
			Registrations int    `json:"registrations"`
		} `json:"chart"`
		MaxY int `json:"maxY"`
	}
	require.NoError(t, json.Unmarshal(body, &report))

	assert.Equal(t, 1, report.Visitors)
	assert.Equal(t, 1, report.Sessions)
	assert.Equal(t, 2, report.Pageviews)
	// The registered admin user also counts as a registration inside the
	// window, alongside the seeded one.
	assert.GreaterOrEqual(t, report.Registrations, 1)
	require.Len(t, report.Chart, 14)
	assert.GreaterOrEqual(t, report.MaxY, 1)

	today := time.Now().UTC().Format("2006-01-02")
	assert.Equal(t, today, report.Chart[13].Day)
}

func TestDashboardRequiresTimezoneCookie(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	testsupport.CleanAllTables(db)

	testsupport.CreateTestUserForAuth(t, db, "admin@example.com", "secret-password", users.RoleAdmin)

	app := testsupport.CreateMinimalTestApp(t, db)
	session, _, _ := testsupport.LoginTestUser(t, app, "admin@example.com", "secret-password")

	req := httptest.NewRequest("GET", "/admin/api/dashboard", nil)
	req.Header.Set("Cookie", fmt.Sprintf("%s=%s", testsupport.SessionCookieName, session))

	resp, err := app.Test(req, 30000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
