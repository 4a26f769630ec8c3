// Package router wires handlers to paths.  Every route is one row of a
// permission table; the access level of the row decides which guards run in
// front of the handler.
package router

import (
	"github.com/hashicorp/go-hclog"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-review-api/internal/handler"
	"github.com/iliyamo/movie-review-api/internal/middleware"
	"github.com/iliyamo/movie-review-api/internal/model"
)

// Access is the permission level of a route.
type Access int

const (
	Public Access = iota // anyone
	Auth                 // any authenticated user
	Admin                // authenticated user with the admin role
)

func (a Access) String() string {
	switch a {
	case Public:
		return "public"
	case Auth:
		return "auth"
	case Admin:
		return "admin"
	}
	return "unknown"
}

// Route is one row of the permission table.
type Route struct {
	Method  string
	Path    string
	Access  Access
	Handler echo.HandlerFunc
}

// Handlers bundles everything the table points at.
type Handlers struct {
	Health    echo.HandlerFunc
	Auth      *handler.AuthHandler
	Movies    *handler.MovieHandler
	Reviews   *handler.ReviewHandler
	Cast      *handler.CastHandler
	Directors *handler.ReferenceHandler
	Actors    *handler.ReferenceHandler
	Genres    *handler.ReferenceHandler
}

// Guards carries what the access levels need.  RateLimit may be nil.
type Guards struct {
	JWTSecret string
	Tokens    middleware.TokenChecker
	RateLimit echo.MiddlewareFunc
	Log       hclog.Logger
}

// Table lists every route of the API.
func Table(h Handlers) []Route {
	routes := []Route{
		{"GET", "/healthz", Public, h.Health},

		{"POST", "/register", Public, h.Auth.Register},
		{"POST", "/login", Public, h.Auth.Login},
		{"POST", "/logout", Auth, h.Auth.Logout},
		{"GET", "/user", Auth, h.Auth.User},
		{"PUT", "/profile", Auth, h.Auth.UpdateProfile},
		{"PUT", "/change-password", Auth, h.Auth.ChangePassword},

		{"GET", "/movies", Public, h.Movies.Index},
		{"GET", "/movies/search", Public, h.Movies.Search},
		{"GET", "/movies/popular", Public, h.Movies.Popular},
		{"GET", "/movies/:id", Public, h.Movies.Show},
		{"GET", "/movies/:id/statistics", Public, h.Movies.Statistics},
		{"GET", "/movies/:id/reviews", Public, h.Reviews.ByMovie},
		{"POST", "/movies", Admin, h.Movies.Store},
		{"PUT", "/movies/:id", Admin, h.Movies.Update},
		{"DELETE", "/movies/:id", Admin, h.Movies.Destroy},

		{"GET", "/movie-casts", Admin, h.Cast.Index},
		{"GET", "/movie-casts/:id", Admin, h.Cast.Show},
		{"POST", "/movie-casts", Admin, h.Cast.Store},
		{"PUT", "/movie-casts/:id", Admin, h.Cast.Update},
		{"DELETE", "/movie-casts/:id", Admin, h.Cast.Destroy},

		{"GET", "/reviews", Auth, h.Reviews.Index},
		{"GET", "/reviews/my-reviews", Auth, h.Reviews.MyReviews},
		{"GET", "/reviews/:id", Auth, h.Reviews.Show},
		{"POST", "/reviews", Auth, h.Reviews.Store},
		{"PUT", "/reviews/:id", Auth, h.Reviews.Update},
		{"DELETE", "/reviews/:id", Auth, h.Reviews.Destroy},
	}
	routes = append(routes, referenceRoutes("/directors", h.Directors)...)
	routes = append(routes, referenceRoutes("/actors", h.Actors)...)
	routes = append(routes, referenceRoutes("/genres", h.Genres)...)
	return routes
}

// referenceRoutes are the public reads and admin writes of a lookup table.
func referenceRoutes(prefix string, h *handler.ReferenceHandler) []Route {
	return []Route{
		{"GET", prefix, Public, h.Index},
		{"GET", prefix + "/:id", Public, h.Show},
		{"POST", prefix, Admin, h.Store},
		{"PUT", prefix + "/:id", Admin, h.Update},
		{"DELETE", prefix + "/:id", Admin, h.Destroy},
	}
}

// Register mounts the routes on e.  The chain is JWTAuth, then the role
// gate, then the rate limiter, so the limiter can key on the caller.
func Register(e *echo.Echo, routes []Route, g Guards) {
	auth := middleware.JWTAuth(g.JWTSecret, g.Tokens, g.Log)
	admin := middleware.RequireRole(model.RoleAdmin)

	for _, r := range routes {
		var chain []echo.MiddlewareFunc
		switch r.Access {
		case Auth:
			chain = append(chain, auth)
		case Admin:
			chain = append(chain, auth, admin)
		}
		if g.RateLimit != nil && r.Path != "/healthz" {
			chain = append(chain, g.RateLimit)
		}
		e.Add(r.Method, r.Path, r.Handler, chain...)
		g.Log.Debug("route", "method", r.Method, "path", r.Path, "access", r.Access)
	}
}
