package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"glowlink/pkg/booking"
	"glowlink/pkg/export"
)

// orderPayload is a complete booking posted in one request.
type orderPayload struct {
	Mode string `json:"mode"`
	booking.Draft
}

// createOrder validates and stores a booking in one step, without a form session.
func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var payload orderPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		s.logger.Info("order creation failed: unable to decode payload", zap.Error(err))
		s.respondError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if payload.Mode == "" {
		payload.Mode = string(booking.ModeProduct)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	view, err := s.bookings.Place(ctx, booking.Mode(payload.Mode), payload.Draft)
	if err != nil {
		if booking.IsValidation(err) {
			s.logger.Info("order creation failed validation", zap.String("name", payload.Contact.Name), zap.Error(err))
		} else {
			s.logger.Warn("order creation failed", zap.String("name", payload.Contact.Name), zap.Error(err))
		}
		s.respondError(w, err.Error(), statusFor(err))
		return
	}

	s.logger.Info("order placed", zap.String("item", payload.ItemID), zap.Int64("total_cents", view.TotalCents))
	respondJSON(w, http.StatusCreated, view)
}

// listOrders returns all collected orders for administrative oversight.
func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orders, err := s.orders.List(ctx)
	if err != nil {
		s.logger.Warn("order listing failed", zap.Error(err))
		s.respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.logger.Info("order listing served", zap.Int("records", len(orders)))
	respondJSON(w, http.StatusOK, orders)
}

func (s *Server) exportOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orders, err := s.orders.List(ctx)
	if err != nil {
		s.logger.Warn("order export failed", zap.Error(err))
		s.respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=orders-%s.xlsx", time.Now().UTC().Format("20060102")))
	if err := export.Orders(w, orders); err != nil {
		s.logger.Error("order export write failed", zap.Error(err))
		return
	}
	s.logger.Info("order export served", zap.Int("records", len(orders)))
}
