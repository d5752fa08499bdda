package internal

import (
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge/testsupport"
	"github.com/stretchr/testify/require"
)

func TestPageviewRouteRateLimited(t *testing.T) {
	srv := testsupport.NewTestServer(t, testsupport.TestServerOptions{
		RouteMountFunc: MountAppRoutes,
	})
	routes := srv.App.GetRoutes(true)

	var pageviewRoute *fiber.Route
	for idx := range routes {
		route := routes[idx]
		if route.Method == fiber.MethodPost && route.Path == "/x/api/v1/pageviews" {
			pageviewRoute = &routes[idx]
			break
		}
	}

	require.NotNil(t, pageviewRoute, "expected pageviews route to be registered")

	// The rate limiter is wrapped in a conditional that only applies in
	// production; in tests the wrapper is still present on the route.
	hasRateLimiter := false
	var handlerNames []string
	for _, handler := range pageviewRoute.Handlers {
		name := runtime.FuncForPC(reflect.ValueOf(handler).Pointer()).Name()
		handlerNames = append(handlerNames, name)
		if strings.Contains(name, "middleware/limiter") || strings.Contains(name, "MountAppRoutes.func") {
			hasRateLimiter = true
			break
		}
	}

	require.Truef(t, hasRateLimiter, "expected rate limiter middleware for pageview ingestion, handlers: %v", handlerNames)
}

func TestCoreRoutesRegistered(t *testing.T) {
	srv := testsupport.NewTestServer(t, testsupport.TestServerOptions{
		RouteMountFunc: MountAppRoutes,
	})
	routes := srv.App.GetRoutes(true)

	type key struct {
		method string
		path   string
	}
	registered := make(map[key]bool, len(routes))
	for _, route := range routes {
		registered[key{route.Method, route.Path}] = true
	}

	expected := []key{
		{fiber.MethodGet, "/"},
		{fiber.MethodGet, "/_health"},
		{fiber.MethodPost, "/x/api/v1/pageviews"},
		{fiber.MethodGet, "/x/api/v1/me"},
		{fiber.MethodGet, "/x/api/v1/gallery"},
		{fiber.MethodGet, "/y/api/v1/track.js"},
		{fiber.MethodPost, "/register"},
		{fiber.MethodGet, "/login"},
		{fiber.MethodPost, "/login"},
		{fiber.MethodPost, "/logout"},
		{fiber.MethodGet, "/admin/dashboard"},
		{fiber.MethodGet, "/admin/api/dashboard"},
		{fiber.MethodGet, "/admin/users"},
		{fiber.MethodPost, "/admin/users/:id/role"},
		{fiber.MethodGet, "/admin/gallery"},
		{fiber.MethodPost, "/admin/gallery"},
		{fiber.MethodPost, "/admin/gallery/:id/delete"},
		{fiber.MethodPost, "/admin/account/change-password"},
		{fiber.MethodGet, "/admin/settings/ingestion"},
		{fiber.MethodPost, "/admin/settings/ingestion"},
	}

	for _, want := range expected {
		require.Truef(t, registered[want], "expected route %s %s to be registered", want.method, want.path)
	}
}
