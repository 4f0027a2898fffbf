package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type action int

const (
	actionAdd action = iota
	actionUpdate
	actionDelete
	actionSeed
)

// command defines a mutation so the goroutine can serialize writes through a channel.
type command struct {
	action action
	item   Item
	items  []Item
	id     string
	reply  chan commandResult
}

type listQuery struct {
	kind  Kind
	reply chan queryResult
}

type commandResult struct {
	item  Item
	count int
	err   error
}

type queryResult struct {
	items []Item
	err   error
}

// Service owns a goroutine that serializes catalog writes; reads go through the same loop
// so a form never sees a half-applied change.
type Service struct {
	repo      *Repository
	logger    *zap.Logger
	commands  chan command
	listCalls chan listQuery
	quit      chan struct{}
	done      chan struct{}
}

// NewService starts the background goroutine immediately so HTTP handlers only see non-blocking calls.
func NewService(repo *Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &Service{
		repo:      repo,
		logger:    logger.Named("catalog"),
		commands:  make(chan command),
		listCalls: make(chan listQuery),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go svc.loop()
	return svc
}

func (s *Service) loop() {
	defer close(s.done)
	for {
		select {
		case cmd := <-s.commands:
			cmd.reply <- s.handle(cmd)
		case q := <-s.listCalls:
			items, err := s.repo.List(context.Background(), q.kind)
			q.reply <- queryResult{items: items, err: err}
		case <-s.quit:
			return
		}
	}
}

func (s *Service) handle(cmd command) commandResult {
	ctx := context.Background()
	switch cmd.action {
	case actionAdd:
		item := cmd.item
		existing, err := s.repo.List(ctx, "")
		if err != nil {
			return commandResult{err: err}
		}
		if item.ID == "" {
			item.ID = uuid.NewString()
		} else if containsID(existing, item.ID) {
			return commandResult{err: ErrDuplicateID}
		}
		if item.Position == 0 {
			item.Position = nextPosition(ofKind(existing, item.Kind))
		}
		stored, err := s.repo.Save(ctx, item)
		return commandResult{item: stored, err: err}
	case actionUpdate:
		return commandResult{err: s.repo.Update(ctx, cmd.item)}
	case actionDelete:
		return commandResult{err: s.repo.Delete(ctx, cmd.id)}
	case actionSeed:
		existing, err := s.repo.List(ctx, "")
		if err != nil {
			return commandResult{err: err}
		}
		if len(existing) > 0 {
			return commandResult{}
		}
		for _, item := range cmd.items {
			if item.ID == "" {
				item.ID = uuid.NewString()
			}
			if _, err := s.repo.Save(ctx, item); err != nil {
				return commandResult{err: fmt.Errorf("seed %s: %w", item.Name, err)}
			}
		}
		return commandResult{count: len(cmd.items)}
	default:
		return commandResult{err: errors.New("unknown catalog action")}
	}
}

func (s *Service) send(ctx context.Context, cmd command) commandResult {
	cmd.reply = make(chan commandResult, 1)
	select {
	case s.commands <- cmd:
	case <-ctx.Done():
		return commandResult{err: ctx.Err()}
	case <-time.After(2 * time.Second):
		return commandResult{err: errors.New("catalog queue is busy")}
	}

	select {
	case res := <-cmd.reply:
		return res
	case <-ctx.Done():
		return commandResult{err: ctx.Err()}
	case <-time.After(2 * time.Second):
		return commandResult{err: errors.New("catalog operation timed out")}
	}
}

// Add registers a new item, generating an id and appending it to the end of its kind when unset.
func (s *Service) Add(ctx context.Context, item Item) (Item, error) {
	item.Name = strings.TrimSpace(item.Name)
	if err := validateItem(item); err != nil {
		return Item{}, err
	}
	res := s.send(ctx, command{action: actionAdd, item: item})
	if res.err != nil {
		s.logger.Warn("catalog add failed", zap.String("name", item.Name), zap.Error(res.err))
		return Item{}, res.err
	}
	s.logger.Info("catalog item added", zap.String("id", res.item.ID), zap.String("kind", string(res.item.Kind)))
	return res.item, nil
}

// Update edits name, price, description, image and duration of an existing item.
func (s *Service) Update(ctx context.Context, item Item) error {
	if item.ID == "" {
		return errors.New("id is required")
	}
	if strings.TrimSpace(item.Name) == "" {
		return errors.New("name is required")
	}
	if item.PriceCents < 0 {
		return errors.New("price must not be negative")
	}
	res := s.send(ctx, command{action: actionUpdate, item: item})
	if res.err == nil {
		s.logger.Info("catalog item updated", zap.String("id", item.ID))
	}
	return res.err
}

// Delete removes an item by id.
func (s *Service) Delete(ctx context.Context, id string) error {
	res := s.send(ctx, command{action: actionDelete, id: id})
	if res.err == nil {
		s.logger.Info("catalog item deleted", zap.String("id", id))
	}
	return res.err
}

// Seed stores items only when the catalog is empty and reports how many were written.
func (s *Service) Seed(ctx context.Context, items []Item) (int, error) {
	res := s.send(ctx, command{action: actionSeed, items: items})
	return res.count, res.err
}

// List returns the items of one kind in display order; an empty kind lists everything.
func (s *Service) List(ctx context.Context, kind Kind) ([]Item, error) {
	q := listQuery{kind: kind, reply: make(chan queryResult, 1)}

	select {
	case s.listCalls <- q:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(2 * time.Second):
		return nil, errors.New("catalog queue is busy")
	}

	select {
	case res := <-q.reply:
		return res.items, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(2 * time.Second):
		return nil, errors.New("catalog list timed out")
	}
}

// Items is the read-only catalog fetch the booking forms depend on.
func (s *Service) Items(ctx context.Context, kind Kind) ([]Item, error) {
	return s.List(ctx, kind)
}

// Close stops the background goroutine when the application shuts down.
func (s *Service) Close() {
	close(s.quit)
	<-s.done
}

func nextPosition(items []Item) int {
	highest := 0
	for _, item := range items {
		if item.Position > highest {
			highest = item.Position
		}
	}
	return highest + 1
}

func containsID(items []Item, id string) bool {
	for _, item := range items {
		if item.ID == id {
			return true
		}
	}
	return false
}

func ofKind(items []Item, kind Kind) []Item {
	var out []Item
	for _, item := range items {
		if item.Kind == kind {
			out = append(out, item)
		}
	}
	return out
}
