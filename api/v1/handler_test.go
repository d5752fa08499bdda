// Package v1_test contains tests for the API v1 handlers
package v1_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jpsystems/internal/events"
	"jpsystems/internal/testsupport"
)

func identityCookies(t *testing.T, resp *http.Response) (visitor, session string) {
	t.Helper()
	for _, cookie := range resp.Cookies() {
		switch cookie.Name {
		case "jp_visitor_id":
			visitor = cookie.Value
		case "jp_session_id":
			session = cookie.Value
		}
	}
	return visitor, session
}

func postPageview(t *testing.T, app *fiber.App, payload map[string]interface{}, cookies string) *http.Response {
	t.Helper()

	jsonPayload, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/x/api/v1/pageviews", bytes.NewReader(jsonPayload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Test Agent)")
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	if cookies != "" {
		req.Header.Set("Cookie", cookies)
	}

	resp, err := app.Test(req, 30000)
	require.NoError(t, err)
	return resp
}

func TestCollectPageviewPublicAPIHandler(t *testing.T) {
	t.Run("first pageview tags identity and stores session start plus pageview", func(t *testing.T) {
		dbManager, _ := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		testsupport.CleanAllTables(db)

		app := testsupport.CreateMinimalTestApp(t, db)

		resp := postPageview(t, app, map[string]interface{}{
			"path":     "/products",
			"referrer": "https://www.google.com/",
		}, "")
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)

		visitorID, sessionID := identityCookies(t, resp)
		require.NotEmpty(t, visitorID)
		require.NotEmpty(t, sessionID)

		var rows []events.Event
		require.NoError(t, db.Order("id ASC").Find(&rows).Error)
		require.Len(t, rows, 2)
		assert.Equal(t, events.TypeSessionStart, rows[0].Type)
		assert.Equal(t, events.TypePageview, rows[1].Type)
		for _, row := range rows {
			assert.Equal(t, visitorID, row.VisitorID)
			assert.Equal(t, sessionID, row.SessionID)
			assert.Equal(t, "/products", row.Path)
		}
	})

	t.Run("continuing session keeps ids and skips session start", func(t *testing.T) {
		dbManager, _ := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		testsupport.CleanAllTables(db)

		app := testsupport.CreateMinimalTestApp(t, db)

		first := postPageview(t, app, map[string]interface{}{"path": "/"}, "")
		visitorID, sessionID := identityCookies(t, first)

		var lastSeen string
		for _, cookie := range first.Cookies() {
			if cookie.Name == "jp_session_last_seen" {
				lastSeen = cookie.Value
			}
		}
		require.NotEmpty(t, lastSeen)

		cookies := fmt.Sprintf("jp_visitor_id=%s; jp_session_id=%s; jp_session_last_seen=%s",
			visitorID, sessionID, lastSeen)
		second := postPageview(t, app, map[string]interface{}{"path": "/contact"}, cookies)
		assert.Equal(t, http.StatusAccepted, second.StatusCode)

		var rows []events.Event
		require.NoError(t, db.Order("id ASC").Find(&rows).Error)
		require.Len(t, rows, 3)

		assert.Equal(t, events.TypePageview, rows[2].Type)
		assert.Equal(t, visitorID, rows[2].VisitorID)
		assert.Equal(t, sessionID, rows[2].SessionID)
	})

	t.Run("unreadable body is still accepted", func(t *testing.T) {
		dbManager, _ := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		testsupport.CleanAllTables(db)

		app := testsupport.CreateMinimalTestApp(t, db)

		req := httptest.NewRequest("POST", "/x/api/v1/pageviews", strings.NewReader("not-json"))
		req.Header.Set("Content-Type", "text/plain")
		req.Header.Set("User-Agent", "Mozilla/5.0 (Test Agent)")
		req.Header.Set("Sec-Fetch-Site", "cross-site")

		resp, err := app.Test(req, 30000)
		require.NoError(t, err)
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)

		// The pageview still lands, with the default root path.
		var row events.Event
		require.NoError(t, db.Where("type = ?", events.TypePageview).First(&row).Error)
		assert.Equal(t, "/", row.Path)
	})
}

func TestPageviewCORSAllowsCredentialedOrigins(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	testsupport.CleanAllTables(db)

	app := testsupport.CreateMinimalTestApp(t, db)
	origin := "https://www.jpsystems.example"

	t.Run("preflight echoes the origin", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/x/api/v1/pageviews", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", "POST")

		resp, err := app.Test(req, 30000)
		require.NoError(t, err)

		// The tracker sends cookies, so a wildcard allow-origin would make
		// browsers drop the request.
		assert.Equal(t, origin, resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
	})

	t.Run("beacon response carries the credentialed headers", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/x/api/v1/pageviews", strings.NewReader(`{"path":"/products"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "Mozilla/5.0 (Test Agent)")
		req.Header.Set("Origin", origin)

		resp, err := app.Test(req, 30000)
		require.NoError(t, err)

		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
		assert.Equal(t, origin, resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
	})
}

func TestGetVisitorInfoHandler(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	testsupport.CleanAllTables(db)

	app := testsupport.CreateMinimalTestApp(t, db)

	req := httptest.NewRequest("GET", "/x/api/v1/me", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Test Agent)")

	resp, err := app.Test(req, 30000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.NotEmpty(t, payload["visitorId"])
	assert.NotEmpty(t, payload["country"])
	assert.NotEmpty(t, payload["generatedAt"])

	visitorID, _ := identityCookies(t, resp)
	assert.Equal(t, visitorID, payload["visitorId"])
}

func TestGetTrackerAction(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	app := testsupport.CreateMinimalTestApp(t, db)

	req := httptest.NewRequest("GET", "/y/api/v1/track.js", nil)
	resp, err := app.Test(req, 30000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)
	assert.Equal(t, "application/javascript", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "/x/api/v1/pageviews")

	req = httptest.NewRequest("GET", "/y/api/v1/track.js", nil)
	req.Header.Set("If-None-Match", etag)
	resp, err = app.Test(req, 30000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)
}

func TestListGalleryPublicAPIHandler(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	testsupport.CleanAllTables(db)

	require.NoError(t, db.Exec(
		"INSERT INTO images (title, category, description, storage_path, created_at) VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)",
		"Oak entry door", "entry", "Solid oak", "abc-oak.jpg").Error)

	app := testsupport.CreateMinimalTestApp(t, db)

	req := httptest.NewRequest("GET", "/x/api/v1/gallery", nil)
	resp, err := app.Test(req, 30000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload struct {
		Images []struct {
			Title string `json:"title"`
			URL   string `json:"url"`
		} `json:"images"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.Len(t, payload.Images, 1)
	assert.Equal(t, "Oak entry door", payload.Images[0].Title)
	assert.True(t, strings.HasSuffix(payload.Images[0].URL, "abc-oak.jpg"))
}
