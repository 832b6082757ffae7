package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/artist-map-tracker/internal/handler"
	"github.com/iliyamo/artist-map-tracker/internal/middleware"
	"github.com/iliyamo/artist-map-tracker/internal/model"
)

// Prefix is the mount point of the versioned API.
const Prefix = "/api/v1"

// RegisterRoutes registers the unauthenticated operational endpoints: the
// health probe and, when provided, the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, metrics http.Handler) {
	e.GET("/healthz", handler.Health)
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}
}

// RegisterAuth registers account routes.  Register, login, refresh and
// logout are public; the profile routes need a valid access token of any
// role.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group(Prefix + "/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	authed := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleArtist, model.RoleFan),
	}
	g.GET("/profile", a.Profile, authed...)
	g.PUT("/profile", a.UpdateProfile, authed...)
}

// RegisterArtist registers the artist profile routes.  Only accounts with
// the artist role may use them.
func RegisterArtist(e *echo.Echo, h *handler.ArtistHandler, jwtSecret string) {
	g := e.Group(Prefix+"/artists",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleArtist),
	)
	g.POST("/profile", h.CreateProfile)
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
}

// RegisterEvents registers the event routes.  public wraps the anonymous
// listing only (response cache, rate limiter).  Authentication always runs
// before the role check so a missing token is a 401, never a 403.
func RegisterEvents(e *echo.Echo, h *handler.EventHandler, jwtSecret string, public ...echo.MiddlewareFunc) {
	auth := middleware.JWTAuth(jwtSecret)
	artist := middleware.RequireRole(model.RoleArtist)
	fan := middleware.RequireRole(model.RoleFan)

	g := e.Group(Prefix + "/events")
	g.GET("", h.List, public...)
	g.POST("", h.Create, auth, artist)
	g.GET("/my-events", h.MyEvents, auth, artist)
	g.GET("/booked", h.Booked, auth, fan)
	g.POST("/:id/book", h.Book, auth, fan)
	g.DELETE("/:id/book", h.CancelBooking, auth, fan)
	g.DELETE("/:id", h.Delete, auth, artist)
}
