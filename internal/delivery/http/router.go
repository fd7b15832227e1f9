package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"afisha/internal/delivery/http/controllers"
	"afisha/internal/delivery/http/middleware"
	"afisha/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(
	logger *slog.Logger,
	verifier domain.TokenVerifier,
	authController *controllers.AuthController,
	eventController *controllers.EventController,
	adminEventController *controllers.AdminEventController,
	publicEventController *controllers.PublicEventController,
	requestController *controllers.RequestController,
) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)
	admin := func(next http.HandlerFunc) http.HandlerFunc {
		return auth(middleware.RequireAdmin(next))
	}

	// Auth
	mux.HandleFunc("POST /auth/login", authController.Login)

	// Private: events
	mux.HandleFunc("POST /users/{userID}/events", auth(eventController.CreateEvent))
	mux.HandleFunc("GET /users/{userID}/events", auth(eventController.ListMyEvents))
	mux.HandleFunc("GET /users/{userID}/events/{eventID}", auth(eventController.GetMyEvent))
	mux.HandleFunc("PATCH /users/{userID}/events/{eventID}", auth(eventController.UpdateMyEvent))

	// Private: participation requests
	mux.HandleFunc("POST /users/{userID}/requests", auth(requestController.AddRequest))
	mux.HandleFunc("GET /users/{userID}/requests", auth(requestController.ListMyRequests))
	mux.HandleFunc("PATCH /users/{userID}/requests/{requestID}/cancel", auth(requestController.CancelRequest))
	mux.HandleFunc("GET /users/{userID}/events/{eventID}/requests", auth(requestController.ListEventRequests))
	mux.HandleFunc("PATCH /users/{userID}/events/{eventID}/requests", auth(requestController.ChangeRequestStatus))

	// Admin
	mux.HandleFunc("GET /admin/events", admin(adminEventController.SearchEvents))
	mux.HandleFunc("PATCH /admin/events/{eventID}", admin(adminEventController.UpdateEvent))

	// Public
	mux.HandleFunc("GET /events", publicEventController.SearchEvents)
	mux.HandleFunc("GET /events/{eventID}", publicEventController.GetEvent)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
