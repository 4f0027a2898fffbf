package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"glowlink/pkg/booking"
	"glowlink/pkg/catalog"
	"glowlink/pkg/metrics"
)

// validationError communicates rule violations back to HTTP handlers.
type validationError struct {
	message string
}

func (e validationError) Error() string { return e.message }

// newValidationError keeps the constructor private to the package.
func newValidationError(msg string) error {
	return validationError{message: msg}
}

// IsValidation helps callers distinguish between business and infrastructure failures.
func IsValidation(err error) bool {
	var v validationError
	return errors.As(err, &v)
}

// command envelopes the work the service goroutine must perform.
type command struct {
	order Order
	reply chan commandResult
}

// query allows different consumers to request the current order list.
type query struct {
	reply chan queryResult
}

type commandResult struct {
	order Order
	err   error
}

type queryResult struct {
	orders []Order
	err    error
}

// Service serializes order writes through one goroutine.
type Service struct {
	repo          *Repository
	logger        *zap.Logger
	now           func() time.Time
	commands      chan command
	queries       chan query
	cancellations chan struct{}
	done          chan struct{}
}

// NewService launches the coordinating goroutine immediately so requests never block the caller for scheduling.
func NewService(repo *Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &Service{
		repo:          repo,
		logger:        logger.Named("order"),
		now:           time.Now,
		commands:      make(chan command),
		queries:       make(chan query),
		cancellations: make(chan struct{}),
		done:          make(chan struct{}),
	}
	go svc.loop()
	return svc
}

func (s *Service) loop() {
	defer close(s.done)
	for {
		select {
		case cmd := <-s.commands:
			cmd.reply <- s.store(cmd.order)
		case q := <-s.queries:
			orders, err := s.repo.List(context.Background())
			q.reply <- queryResult{orders: orders, err: err}
		case <-s.cancellations:
			return
		}
	}
}

func (s *Service) store(order Order) commandResult {
	if err := validateOrder(order); err != nil {
		return commandResult{err: err}
	}
	if order.Reference == "" {
		order.Reference = uuid.NewString()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = s.now().UTC()
	}
	stored, err := s.repo.Save(context.Background(), order)
	if err != nil {
		return commandResult{err: err}
	}
	metrics.IncOrderStored(stored.Kind)
	return commandResult{order: stored}
}

// Submit registers a new order and waits for the background goroutine to persist it.
func (s *Service) Submit(ctx context.Context, order Order) (Order, error) {
	reply := make(chan commandResult, 1)
	cmd := command{order: order, reply: reply}

	select {
	case s.commands <- cmd:
	case <-ctx.Done():
		return Order{}, ctx.Err()
	case <-time.After(2 * time.Second):
		return Order{}, errors.New("queue is busy processing other orders")
	}

	select {
	case res := <-reply:
		if res.err != nil {
			s.logger.Warn("order not stored", zap.Error(res.err))
			return Order{}, res.err
		}
		s.logger.Info("order stored", zap.Int64("id", res.order.ID), zap.String("reference", res.order.Reference))
		return res.order, nil
	case <-ctx.Done():
		return Order{}, ctx.Err()
	case <-time.After(2 * time.Second):
		return Order{}, errors.New("order processing took too long")
	}
}

// List returns the stored orders; useful for dashboards, exports or tests.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	reply := make(chan queryResult, 1)
	req := query{reply: reply}

	select {
	case s.queries <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(2 * time.Second):
		return nil, errors.New("queue is busy processing other orders")
	}

	select {
	case res := <-reply:
		return res.orders, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(2 * time.Second):
		return nil, errors.New("listing orders took too long")
	}
}

// Close stops the goroutine to allow graceful shutdown.
func (s *Service) Close() {
	close(s.cancellations)
	<-s.done
}

// validateOrder re-checks what the form guarantees, since orders can also arrive from other callers.
func validateOrder(order Order) error {
	if !catalog.Kind(order.Kind).Valid() {
		return newValidationError("unknown order kind")
	}
	if strings.TrimSpace(order.ItemID) == "" {
		return newValidationError("item is required")
	}
	if strings.TrimSpace(order.Name) == "" || strings.TrimSpace(order.Phone) == "" || strings.TrimSpace(order.Email) == "" {
		return newValidationError("name, phone and email are required")
	}
	if order.Quantity < booking.MinQuantity || order.Quantity > booking.MaxQuantity {
		return newValidationError(fmt.Sprintf("quantity must be between %d and %d", booking.MinQuantity, booking.MaxQuantity))
	}
	if order.UnitPriceCents*int64(order.Quantity)+order.DeliveryFeeCents != order.TotalCents {
		return newValidationError("total does not match price, quantity and delivery fee")
	}
	return nil
}
