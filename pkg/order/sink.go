package order

import (
	"context"

	"glowlink/pkg/booking"
)

// Sink stores accepted booking forms as orders.
type Sink struct {
	svc *Service
}

// NewSink adapts the service to booking.Sink.
func NewSink(svc *Service) *Sink {
	return &Sink{svc: svc}
}

func (s *Sink) Deliver(ctx context.Context, p booking.Payload) (booking.Receipt, error) {
	stored, err := s.svc.Submit(ctx, FromPayload(p))
	if err != nil {
		return booking.Receipt{}, err
	}
	return booking.Receipt{Reference: stored.Reference, OrderID: stored.ID, AcceptedAt: stored.CreatedAt}, nil
}
