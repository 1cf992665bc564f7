package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventticketing/internal/delivery/http/controllers"
	"eventticketing/internal/delivery/http/middleware"
	"eventticketing/internal/domain"
)

// Controllers groups every controller the router serves.
type Controllers struct {
	Auth         *controllers.AuthController
	Event        *controllers.EventController
	Resource     *controllers.ResourceController
	Allocation   *controllers.AllocationController
	Registration *controllers.RegistrationController
	Order        *controllers.OrderController
	CheckIn      *controllers.CheckInController
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(c Controllers, verifier domain.TokenVerifier, scanLimiter *middleware.RateLimiter, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	auth := middleware.RequireAuth(verifier, logger)
	organizer := func(h http.HandlerFunc) http.HandlerFunc {
		return auth(middleware.RequireRole(domain.RoleOrganizer)(h))
	}

	// Auth
	mux.HandleFunc("POST /auth/signup", c.Auth.SignUp)
	mux.HandleFunc("POST /auth/login", c.Auth.Login)
	mux.HandleFunc("GET /users/me", auth(c.Auth.Me))

	// Events
	mux.HandleFunc("POST /events", organizer(c.Event.CreateEvent))
	mux.HandleFunc("GET /events/mine", organizer(c.Event.ListMyEvents))
	mux.HandleFunc("GET /events/{eventID}", auth(c.Event.GetEvent))
	mux.HandleFunc("PATCH /events/{eventID}", organizer(c.Event.UpdateEvent))
	mux.HandleFunc("DELETE /events/{eventID}", organizer(c.Event.DeleteEvent))
	mux.HandleFunc("POST /events/{eventID}/ticket-types", organizer(c.Event.CreateTicketType))
	mux.HandleFunc("GET /events/{eventID}/ticket-types", auth(c.Event.ListTicketTypes))

	// Resources and allocations
	mux.HandleFunc("POST /resources", organizer(c.Resource.CreateResource))
	mux.HandleFunc("GET /resources", organizer(c.Resource.ListResources))
	mux.HandleFunc("GET /resources/{resourceID}", organizer(c.Resource.GetResource))
	mux.HandleFunc("PATCH /resources/{resourceID}", organizer(c.Resource.UpdateResource))
	mux.HandleFunc("DELETE /resources/{resourceID}", organizer(c.Resource.DeleteResource))
	mux.HandleFunc("POST /events/{eventID}/allocations", organizer(c.Allocation.Allocate))
	mux.HandleFunc("GET /events/{eventID}/allocations", organizer(c.Allocation.ListAllocations))
	mux.HandleFunc("DELETE /events/{eventID}/allocations", organizer(c.Allocation.ReleaseAll))
	mux.HandleFunc("DELETE /allocations/{allocationID}", organizer(c.Allocation.ReleaseAllocation))

	// Registrations
	mux.HandleFunc("POST /events/{eventID}/registrations", auth(c.Registration.Register))
	mux.HandleFunc("GET /events/{eventID}/registrations", organizer(c.Registration.ListRegistrations))
	mux.HandleFunc("GET /events/{eventID}/waitlist", organizer(c.Registration.ListWaitlist))
	mux.HandleFunc("POST /events/{eventID}/waitlist/promote", organizer(c.Registration.PromoteNext))
	mux.HandleFunc("GET /events/{eventID}/stats", organizer(c.Registration.Stats))
	mux.HandleFunc("POST /registrations/{registrationID}/cancel", auth(c.Registration.Cancel))
	mux.HandleFunc("GET /registrations/{registrationID}/ticket", auth(c.Registration.Ticket))
	mux.HandleFunc("GET /me/registrations", auth(c.Registration.ListMine))

	// Orders
	mux.HandleFunc("POST /orders", auth(c.Order.BeginOrder))
	mux.HandleFunc("POST /orders/{orderID}/confirm", auth(c.Order.ConfirmPayment))
	mux.HandleFunc("GET /me/orders", auth(c.Order.ListMine))

	// Check-in
	mux.HandleFunc("POST /events/{eventID}/checkins", organizer(scanLimiter.Limit(c.CheckIn.Scan)))
	mux.HandleFunc("GET /events/{eventID}/checkins", organizer(c.CheckIn.ListCheckIns))

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
