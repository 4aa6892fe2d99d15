package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"session-booking/availability"
	"session-booking/booking"
	"session-booking/calendar"
	"session-booking/metrics"
	"session-booking/session"
	"session-booking/user"
)

type Dependencies struct {
	Users        user.Store
	Sessions     session.Store
	Availability *availability.Service
	Bookings     *booking.Manager
	Calendar     *calendar.Bridge
	Metrics      *metrics.Metrics
	JWTSecret    []byte
	Logger       *slog.Logger
}

type API struct {
	root   *mux.Router
	router *mux.Router

	users        user.Store
	sessions     session.Store
	availability *availability.Service
	bookings     *booking.Manager
	calendar     *calendar.Bridge
	metrics      *metrics.Metrics
	secret       []byte
	logger       *slog.Logger
	now          func() time.Time
}

func NewAPI(deps Dependencies) *API {
	root := mux.NewRouter()
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		root:         root,
		router:       root.PathPrefix("/api").Subrouter(),
		users:        deps.Users,
		sessions:     deps.Sessions,
		availability: deps.Availability,
		bookings:     deps.Bookings,
		calendar:     deps.Calendar,
		metrics:      deps.Metrics,
		secret:       deps.JWTSecret,
		logger:       logger,
		now:          time.Now,
	}
}

func (a *API) WithClock(now func() time.Time) *API {
	a.now = now
	return a
}

// Router exposes the bare router, without access logging.
func (a *API) Router() *mux.Router {
	return a.root
}

func (a *API) Handler() http.Handler {
	// Use Gorilla's built-in logging handler
	return handlers.LoggingHandler(os.Stdout, a.root)
}

type Response struct {
	Status   int `json:"status"`
	Response any `json:"response"`
}

func (a *API) Response(w http.ResponseWriter, status int, data any) {
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(Response{
		Status:   status,
		Response: data,
	})
	if err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

func (a *API) RegisterRoutes() {
	a.root.Handle("/metrics", a.metrics.Handler()).Methods(http.MethodGet)

	// Public endpoints
	a.router.HandleFunc("/health", a.health).Methods(http.MethodGet)
	a.router.HandleFunc("/users", a.createUser).Methods(http.MethodPost)
	a.router.HandleFunc("/calendar/oauth/callback", a.calendarCallback).Methods(http.MethodGet)

	// Everything else needs a bearer token
	protected := a.router.NewRoute().Subrouter()
	protected.Use(a.authenticate)

	protected.HandleFunc("/users/{id}", a.getUser).Methods(http.MethodGet)
	protected.HandleFunc("/me/bookings", a.listMyBookings).Methods(http.MethodGet)

	protected.HandleFunc("/sessions", a.createSession).Methods(http.MethodPost)
	protected.HandleFunc("/sessions/{id}", a.getSession).Methods(http.MethodGet)
	protected.HandleFunc("/communities/{id}/sessions", a.getCommunitySessions).Methods(http.MethodGet)

	protected.HandleFunc("/sessions/{id}/availability", a.getAvailableHours).Methods(http.MethodGet)
	protected.HandleFunc("/sessions/{id}/availability", a.setAvailableHours).Methods(http.MethodPut)
	protected.HandleFunc("/sessions/{id}/slots", a.getAvailableSlots).Methods(http.MethodGet)
	protected.HandleFunc("/sessions/{id}/slots/generate", a.generateSlots).Methods(http.MethodPost)

	protected.HandleFunc("/sessions/{id}/bookings", a.createBooking).Methods(http.MethodPost)
	protected.HandleFunc("/sessions/{id}/bookings", a.listSessionBookings).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{id}", a.getBooking).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{id}/confirm", a.confirmBooking).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{id}/cancel", a.cancelBooking).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{id}/complete", a.completeBooking).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{id}/meeting-link", a.createMeetingLink).Methods(http.MethodPost)

	protected.HandleFunc("/calendar/status", a.calendarStatus).Methods(http.MethodGet)
	protected.HandleFunc("/calendar/auth-url", a.calendarAuthURL).Methods(http.MethodGet)
	protected.HandleFunc("/calendar/connect/{state}", a.calendarConnect).Methods(http.MethodGet)
	protected.HandleFunc("/calendar", a.disconnectCalendar).Methods(http.MethodDelete)
}
