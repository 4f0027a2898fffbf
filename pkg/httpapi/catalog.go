package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"glowlink/pkg/catalog"
)

// catalogItemResponse adds the display price to an item.
type catalogItemResponse struct {
	catalog.Item
	Price string `json:"price"`
}

func toResponse(items []catalog.Item) []catalogItemResponse {
	out := make([]catalogItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, catalogItemResponse{Item: item, Price: catalog.FormatPrice(item.PriceCents)})
	}
	return out
}

func (s *Server) publicCatalog(w http.ResponseWriter, r *http.Request) {
	kind := catalog.Kind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		s.respondError(w, "kind must be product or service", http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	items, err := s.catalog.List(ctx, kind)
	if err != nil {
		s.logger.Warn("catalog listing failed", zap.String("kind", string(kind)), zap.Error(err))
		s.respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, toResponse(items))
}

// listCatalog sends every item for the admin table, optionally filtered by ?kind=.
func (s *Server) listCatalog(w http.ResponseWriter, r *http.Request) {
	kind := catalog.Kind(r.URL.Query().Get("kind"))
	if kind != "" && !kind.Valid() {
		s.respondError(w, "kind must be product or service", http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	items, err := s.catalog.List(ctx, kind)
	if err != nil {
		s.logger.Warn("catalog listing failed", zap.Error(err))
		s.respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.logger.Info("catalog listing served", zap.Int("records", len(items)))
	respondJSON(w, http.StatusOK, toResponse(items))
}

// catalogPayload keeps transport level parsing separate from core types.
type catalogPayload struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Name        string `json:"name"`
	PriceRaw    string `json:"price"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Duration    string `json:"duration"`
	Position    int    `json:"position"`

	priceCents int64
}

// Validate parses the price and reports friendly errors.
func (p *catalogPayload) Validate() error {
	if !catalog.Kind(p.Kind).Valid() {
		return errors.New("kind must be product or service")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("name is required")
	}
	cents, err := catalog.ParsePrice(p.PriceRaw)
	if err != nil {
		return err
	}
	p.priceCents = cents
	return nil
}

func (p *catalogPayload) item() catalog.Item {
	return catalog.Item{
		ID:          p.ID,
		Kind:        catalog.Kind(p.Kind),
		Name:        strings.TrimSpace(p.Name),
		PriceCents:  p.priceCents,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		Duration:    p.Duration,
		Position:    p.Position,
	}
}

func (s *Server) createCatalogItem(w http.ResponseWriter, r *http.Request) {
	var payload catalogPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		s.logger.Info("catalog creation failed: unable to decode payload", zap.Error(err))
		s.respondError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := payload.Validate(); err != nil {
		s.logger.Info("catalog creation rejected", zap.Error(err))
		s.respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	stored, err := s.catalog.Add(ctx, payload.item())
	if err != nil {
		s.respondError(w, err.Error(), statusFor(err))
		return
	}
	respondJSON(w, http.StatusCreated, catalogItemResponse{Item: stored, Price: catalog.FormatPrice(stored.PriceCents)})
}

// updateCatalogItem edits an existing item identified by the id in the body.
func (s *Server) updateCatalogItem(w http.ResponseWriter, r *http.Request) {
	var payload catalogPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		s.logger.Info("catalog update failed: unable to decode payload", zap.Error(err))
		s.respondError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if payload.ID == "" {
		s.logger.Info("catalog update rejected: missing id")
		s.respondError(w, "id is required", http.StatusBadRequest)
		return
	}
	if err := payload.Validate(); err != nil {
		s.logger.Info("catalog update rejected", zap.String("id", payload.ID), zap.Error(err))
		s.respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := s.catalog.Update(ctx, payload.item()); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			s.logger.Info("catalog update failed: item not found", zap.String("id", payload.ID))
		}
		s.respondError(w, err.Error(), statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deleteCatalogItem removes an item using the query id.
func (s *Server) deleteCatalogItem(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		s.logger.Info("catalog delete rejected: missing id")
		s.respondError(w, "id is required", http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := s.catalog.Delete(ctx, id); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			s.logger.Info("catalog delete failed: item not found", zap.String("id", id))
		}
		s.respondError(w, err.Error(), statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
