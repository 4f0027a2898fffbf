package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"glowlink/pkg/booking"
	"glowlink/pkg/catalog"
	"glowlink/pkg/metrics"
	"glowlink/pkg/order"
	"glowlink/pkg/settings"
)

// Deps are the services the API is wired to.
type Deps struct {
	Bookings *booking.Manager
	Orders   *order.Service
	Catalog  *catalog.Service
	Contact  settings.Source
	// Health pings the database; nil skips the check.
	Health func(ctx context.Context) error
}

// Server wires HTTP endpoints to the asynchronous booking, order and catalog services.
type Server struct {
	bookings *booking.Manager
	orders   *order.Service
	catalog  *catalog.Service
	contact  settings.Source
	health   func(ctx context.Context) error
	logger   *zap.Logger
}

func New(deps Deps, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		bookings: deps.Bookings,
		orders:   deps.Orders,
		catalog:  deps.Catalog,
		contact:  deps.Contact,
		health:   deps.Health,
		logger:   logger.Named("http"),
	}
}

// Handler exposes the JSON API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(observe)

	r.Get("/healthz", s.healthz)

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog/{kind}", s.publicCatalog)
		r.Get("/settings/contact", s.contactMethods)

		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", s.createBooking)
			r.Get("/{id}", s.getBooking)
			r.Post("/{id}/actions", s.applyActions)
			r.Post("/{id}/submit", s.submitBooking)
			r.Post("/{id}/reset", s.resetBooking)
			r.Get("/{id}/whatsapp", s.whatsAppLink)
		})

		r.Post("/orders", s.createOrder)
		r.Get("/orders", s.listOrders)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/catalog", s.listCatalog)
			r.Post("/catalog", s.createCatalogItem)
			r.Put("/catalog", s.updateCatalogItem)
			r.Delete("/catalog", s.deleteCatalogItem)
			r.Get("/orders.xlsx", s.exportOrders)
		})
	})
	return r
}

// observe records request latency per route pattern.
func observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.ObserveHTTP(route, strconv.Itoa(status), time.Since(start))
	})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.health(ctx); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			s.respondError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) contactMethods(w http.ResponseWriter, r *http.Request) {
	methods := settings.ContactMethods{}
	if s.contact != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		var err error
		methods, err = s.contact.ContactMethods(ctx)
		if err != nil {
			s.logger.Warn("contact methods unavailable", zap.Error(err))
			methods = settings.ContactMethods{}
		}
	}
	respondJSON(w, http.StatusOK, methods)
}

// respondError keeps JSON formatting consistent across endpoints.
func (s *Server) respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case booking.IsValidation(err), order.IsValidation(err), errors.Is(err, booking.ErrUnknownMode):
		return http.StatusBadRequest
	case errors.Is(err, booking.ErrSessionNotFound), errors.Is(err, catalog.ErrNotFound), errors.Is(err, booking.ErrNoWhatsApp):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrSubmissionInFlight), errors.Is(err, booking.ErrAlreadySubmitted), errors.Is(err, catalog.ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
