package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sink receives accepted payloads. Delivery may fail; the form then returns to Idle.
type Sink interface {
	Deliver(ctx context.Context, p Payload) (Receipt, error)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, p Payload) (Receipt, error)

func (f SinkFunc) Deliver(ctx context.Context, p Payload) (Receipt, error) { return f(ctx, p) }

// LogSink writes the payload to the log and nowhere else.
type LogSink struct {
	Logger *zap.Logger
}

func (s LogSink) Deliver(_ context.Context, p Payload) (Receipt, error) {
	receipt := Receipt{Reference: uuid.NewString(), AcceptedAt: time.Now().UTC()}
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	fields := []zap.Field{
		zap.String("reference", receipt.Reference),
		zap.String("mode", string(p.Mode)),
		zap.String("item_id", p.Item.ID),
		zap.String("item", p.Item.Name),
		zap.Int("quantity", p.Quantity),
		zap.String("delivery_method", string(p.DeliveryMethod)),
		zap.Int64("total_cents", p.TotalCents),
		zap.String("name", p.Contact.Name),
		zap.String("phone", p.Contact.Phone),
		zap.String("email", p.Contact.Email),
	}
	if p.Appointment != nil {
		fields = append(fields, zap.String("date", p.Appointment.Date), zap.String("slot", p.Appointment.Slot))
	}
	logger.Info("booking submitted", fields...)
	return receipt, nil
}
