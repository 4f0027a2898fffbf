package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"glowlink/pkg/booking"
)

// actionPayload is the wire form of one booking.Action, discriminated by Type.
type actionPayload struct {
	Type   string          `json:"type"`
	ItemID string          `json:"item_id,omitempty"`
	Method string          `json:"method,omitempty"`
	Field  string          `json:"field,omitempty"`
	Value  string          `json:"value,omitempty"`
	Date   string          `json:"date,omitempty"`
	Slot   string          `json:"slot,omitempty"`
	Batch  []actionPayload `json:"actions,omitempty"`
}

// Actions converts the payload, which is either a single action or a batch.
func (p actionPayload) Actions() ([]booking.Action, error) {
	if len(p.Batch) > 0 {
		if p.Type != "" {
			return nil, errors.New("send either type or actions, not both")
		}
		out := make([]booking.Action, 0, len(p.Batch))
		for i, item := range p.Batch {
			if len(item.Batch) > 0 {
				return nil, fmt.Errorf("action %d: nested batches are not allowed", i+1)
			}
			a, err := item.action()
			if err != nil {
				return nil, fmt.Errorf("action %d: %w", i+1, err)
			}
			out = append(out, a)
		}
		return out, nil
	}
	a, err := p.action()
	if err != nil {
		return nil, err
	}
	return []booking.Action{a}, nil
}

func (p actionPayload) action() (booking.Action, error) {
	switch p.Type {
	case "select_item":
		if p.ItemID == "" {
			return nil, errors.New("item_id is required")
		}
		return booking.SelectItem{ItemID: p.ItemID}, nil
	case "increment":
		return booking.Increment{}, nil
	case "decrement":
		return booking.Decrement{}, nil
	case "choose_delivery":
		method := booking.DeliveryMethod(p.Method)
		if !method.Valid() {
			return nil, fmt.Errorf("method must be %q or %q", booking.DeliveryMethodDelivery, booking.DeliveryMethodPickup)
		}
		return booking.ChooseDelivery{Method: method}, nil
	case "set_contact":
		field := booking.Field(p.Field)
		if !field.Valid() {
			return nil, fmt.Errorf("unknown field %q", p.Field)
		}
		return booking.SetContact{Field: field, Value: p.Value}, nil
	case "choose_date":
		return booking.ChooseDate{Date: p.Date}, nil
	case "choose_slot":
		return booking.ChooseSlot{Slot: p.Slot}, nil
	case "reset":
		return booking.Reset{}, nil
	case "":
		return nil, errors.New("type is required")
	default:
		return nil, fmt.Errorf("unknown action type %q", p.Type)
	}
}

type createBookingPayload struct {
	Mode string `json:"mode"`
}

func (s *Server) createBooking(w http.ResponseWriter, r *http.Request) {
	var payload createBookingPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		s.logger.Info("booking creation failed: unable to decode payload", zap.Error(err))
		s.respondError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	view, err := s.bookings.Create(ctx, booking.Mode(payload.Mode))
	if err != nil {
		s.logger.Warn("booking creation failed", zap.String("mode", payload.Mode), zap.Error(err))
		s.respondError(w, err.Error(), statusFor(err))
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

func (s *Server) getBooking(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	view, err := s.bookings.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, err.Error(), statusFor(err))
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) applyActions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var payload actionPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		s.logger.Info("booking action failed: unable to decode payload", zap.String("session", id), zap.Error(err))
		s.respondError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	actions, err := payload.Actions()
	if err != nil {
		s.logger.Info("booking action rejected", zap.String("session", id), zap.Error(err))
		s.respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	view, err := s.bookings.Dispatch(ctx, id, actions...)
	if err != nil {
		s.respondError(w, err.Error(), statusFor(err))
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// rejection is returned on a failed submit so clients can re-render the form.
type rejection struct {
	Error   string       `json:"error"`
	Booking booking.View `json:"booking"`
}

func (s *Server) submitBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	view, err := s.bookings.Submit(ctx, id)
	if err != nil {
		status := statusFor(err)
		if booking.IsValidation(err) {
			s.logger.Info("booking submission failed validation", zap.String("session", id), zap.Error(err))
		} else {
			s.logger.Warn("booking submission failed", zap.String("session", id), zap.Error(err))
		}
		if view.ID == "" {
			s.respondError(w, err.Error(), status)
			return
		}
		if status == http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		respondJSON(w, status, rejection{Error: err.Error(), Booking: view})
		return
	}

	status := http.StatusOK
	if view.Phase == booking.PhaseSubmitting {
		status = http.StatusAccepted
	}
	s.logger.Info("booking submission accepted", zap.String("session", id), zap.String("phase", string(view.Phase)))
	respondJSON(w, status, view)
}

func (s *Server) resetBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	view, err := s.bookings.Reset(ctx, id)
	if err != nil {
		s.logger.Info("booking reset refused", zap.String("session", id), zap.Error(err))
		s.respondError(w, err.Error(), statusFor(err))
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) whatsAppLink(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	link, err := s.bookings.WhatsAppLink(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, err.Error(), statusFor(err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"url": link})
}
