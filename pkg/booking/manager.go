package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"glowlink/pkg/catalog"
	"glowlink/pkg/metrics"
	"glowlink/pkg/settings"
)

// Variant chooses how an accepted form reaches the sink.
type Variant string

const (
	// VariantImmediate hands the payload over during the submit call, which
	// returns once the sink has answered.
	VariantImmediate Variant = "immediate"
	// VariantDelayed parks the form in Submitting and delivers after SubmitDelay.
	VariantDelayed Variant = "delayed"
)

// Valid reports whether v is a known variant.
func (v Variant) Valid() bool {
	return v == VariantImmediate || v == VariantDelayed
}

// Manager defaults.
const (
	DefaultSubmitDelay = 1500 * time.Millisecond
	DefaultSessionTTL  = 30 * time.Minute
	sinkTimeout        = 5 * time.Second
	// FreeDelivery as Options.DeliveryFeeCents turns the delivery fee off.
	FreeDelivery int64 = -1
)

// CatalogSource is the read-only catalog a form is built from.
type CatalogSource interface {
	Items(ctx context.Context, kind catalog.Kind) ([]catalog.Item, error)
}

// Options tune a Manager. Zero values fall back to the defaults; use
// FreeDelivery for a zero delivery fee.
type Options struct {
	Variant          Variant
	SubmitDelay      time.Duration
	DeliveryFeeCents int64
	TimeSlots        []string
	SessionTTL       time.Duration
	// Now is the clock used for validation and expiry.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if !o.Variant.Valid() {
		o.Variant = VariantDelayed
	}
	switch {
	case o.DeliveryFeeCents == 0:
		o.DeliveryFeeCents = DefaultDeliveryFeeCents
	case o.DeliveryFeeCents < 0:
		o.DeliveryFeeCents = 0
	}
	if o.SubmitDelay <= 0 {
		o.SubmitDelay = DefaultSubmitDelay
	}
	if o.SessionTTL <= 0 {
		o.SessionTTL = DefaultSessionTTL
	}
	if len(o.TimeSlots) == 0 {
		o.TimeSlots = DefaultTimeSlots
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type op int

const (
	opCreate op = iota
	opGet
	opDispatch
	opSubmit
	opReset
	opLink
	opDelivered
)

// request travels into the manager goroutine, which owns every session.
type request struct {
	op         op
	id         string
	session    *session
	actions    []Action
	receipt    Receipt
	err        error
	generation int
	reply      chan response
}

type response struct {
	view View
	link string
	err  error
	// deferred holds the reply back until the sink has answered.
	deferred bool
}

type session struct {
	id         string
	form       Form
	state      State
	contact    settings.ContactMethods
	receipt    *Receipt
	timer      *time.Timer
	waiter     chan response
	generation int
	touched    time.Time
}

func (s *session) view() View {
	v := s.form.View(s.state)
	v.ID = s.id
	v.Receipt = s.receipt
	return v
}

// Manager owns the open booking forms. A single goroutine applies every
// transition, so the forms need no locking.
type Manager struct {
	catalog  CatalogSource
	settings settings.Source
	sink     Sink
	opts     Options
	logger   *zap.Logger

	requests chan request
	quit     chan struct{}
	done     chan struct{}
	// pending counts deliveries that have been scheduled but not finished.
	pending sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	sessions map[string]*session
}

// NewManager starts the session goroutine. settingsSrc may be nil.
func NewManager(src CatalogSource, settingsSrc settings.Source, sink Sink, opts Options, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sink == nil {
		sink = LogSink{Logger: logger}
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		catalog:  src,
		settings: settingsSrc,
		sink:     sink,
		opts:     opts.withDefaults(),
		logger:   logger.Named("booking"),
		requests: make(chan request),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*session),
	}
	go m.loop()
	return m
}

func (m *Manager) loop() {
	defer close(m.done)
	sweep := time.NewTicker(sweepInterval(m.opts.SessionTTL))
	defer sweep.Stop()
	for {
		select {
		case req := <-m.requests:
			res := m.handle(req)
			if req.reply != nil && !res.deferred {
				req.reply <- res
			}
		case <-sweep.C:
			m.expire()
		case <-m.quit:
			for _, s := range m.sessions {
				m.stopTimer(s)
			}
			metrics.SetSessionsActive(0)
			return
		}
	}
}

func sweepInterval(ttl time.Duration) time.Duration {
	interval := ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	if interval > time.Minute {
		interval = time.Minute
	}
	return interval
}

func (m *Manager) handle(req request) response {
	if req.op == opCreate {
		s := req.session
		s.touched = m.opts.Now()
		m.sessions[s.id] = s
		metrics.SetSessionsActive(len(m.sessions))
		return response{view: s.view()}
	}

	s, ok := m.sessions[req.id]
	if !ok {
		return response{err: ErrSessionNotFound}
	}
	s.touched = m.opts.Now()

	switch req.op {
	case opGet:
	case opDispatch:
		for _, a := range req.actions {
			if _, ok := a.(Reset); ok {
				// ignored while in flight, like every other edit
				_ = m.reset(s)
				continue
			}
			s.state = s.form.Reduce(s.state, a)
		}
	case opSubmit:
		return m.submit(s, req.reply)
	case opReset:
		if err := m.reset(s); err != nil {
			return response{view: s.view(), err: err}
		}
	case opLink:
		link := settings.WhatsAppLink(s.contact.WhatsApp, Message(s.view()))
		if link == "" {
			return response{err: ErrNoWhatsApp}
		}
		return response{view: s.view(), link: link}
	case opDelivered:
		if req.generation != s.generation || s.state.Phase != PhaseSubmitting {
			return response{}
		}
		s.timer = nil
		m.finish(s, req.receipt, req.err)
		if s.waiter != nil {
			res := response{view: s.view()}
			if req.err != nil {
				res.err = fmt.Errorf("submission failed: %w", req.err)
			}
			s.waiter <- res
			s.waiter = nil
		}
	default:
		return response{err: errors.New("unknown booking operation")}
	}
	return response{view: s.view()}
}

// reset drops the receipt and any scheduled delivery along with the inputs.
func (m *Manager) reset(s *session) error {
	next, err := s.form.ResetToIdle(s.state)
	if err != nil {
		return err
	}
	m.stopTimer(s)
	s.state = next
	s.receipt = nil
	s.generation++
	return nil
}

// submit validates the form and starts delivery off the loop. In the delayed
// variant the caller gets the Submitting view at once; in the immediate
// variant reply is answered when the outcome is posted back.
func (m *Manager) submit(s *session, reply chan response) response {
	next, payload, err := s.form.Submit(s.state, m.opts.Now())
	s.state = next
	if err != nil {
		if IsValidation(err) {
			metrics.IncSubmission(string(s.form.Mode), metrics.OutcomeRejected)
			m.logger.Info("booking rejected", zap.String("session", s.id), zap.String("reason", err.Error()))
		}
		return response{view: s.view(), err: err}
	}
	metrics.IncSubmission(string(s.form.Mode), metrics.OutcomeAccepted)
	s.generation++

	if m.opts.Variant == VariantDelayed {
		s.state = s.form.Begin(s.state)
		id, gen, p := s.id, s.generation, *payload
		m.pending.Add(1)
		s.timer = time.AfterFunc(m.opts.SubmitDelay, func() {
			defer m.pending.Done()
			m.deliverLater(id, gen, p)
		})
		m.logger.Info("booking submitting", zap.String("session", s.id), zap.Duration("delay", m.opts.SubmitDelay))
		return response{view: s.view()}
	}

	s.state = s.form.Begin(s.state)
	s.waiter = reply
	id, gen, p := s.id, s.generation, *payload
	m.pending.Add(1)
	go func() {
		defer m.pending.Done()
		m.deliverLater(id, gen, p)
	}()
	return response{deferred: true}
}

// finish applies the sink outcome to an accepted or submitting form.
func (m *Manager) finish(s *session, receipt Receipt, err error) {
	mode := string(s.form.Mode)
	if err != nil {
		s.state = s.form.Fail(s.state, MsgSubmitFailed)
		metrics.IncSubmission(mode, metrics.OutcomeFailed)
		m.logger.Error("booking delivery failed", zap.String("session", s.id), zap.Error(err))
		return
	}
	if m.opts.Variant == VariantDelayed {
		s.state = s.form.Complete(s.state)
	} else {
		s.state = s.form.Settle(s.state)
	}
	s.receipt = &receipt
	metrics.IncSubmission(mode, metrics.OutcomeDelivered)
	m.logger.Info("booking delivered", zap.String("session", s.id), zap.String("reference", receipt.Reference))
}

func (m *Manager) deliver(p Payload) (Receipt, error) {
	ctx, cancel := context.WithTimeout(m.ctx, sinkTimeout)
	defer cancel()
	return m.sink.Deliver(ctx, p)
}

// deliverLater runs outside the loop and posts the outcome back to it.
func (m *Manager) deliverLater(id string, generation int, p Payload) {
	receipt, err := m.deliver(p)
	req := request{op: opDelivered, id: id, generation: generation, receipt: receipt, err: err}
	select {
	case m.requests <- req:
	case <-m.quit:
	}
}

func (m *Manager) stopTimer(s *session) {
	if s.timer != nil && s.timer.Stop() {
		m.pending.Done()
	}
	s.timer = nil
}

func (m *Manager) expire() {
	cutoff := m.opts.Now().Add(-m.opts.SessionTTL)
	for id, s := range m.sessions {
		if s.state.Phase == PhaseSubmitting || s.touched.After(cutoff) {
			continue
		}
		delete(m.sessions, id)
		m.logger.Debug("booking session expired", zap.String("session", id))
	}
	metrics.SetSessionsActive(len(m.sessions))
}

func (m *Manager) send(ctx context.Context, req request) response {
	return m.sendWait(ctx, req, 2*time.Second)
}

// sendWait is send with a custom bound on the wait for the reply.
func (m *Manager) sendWait(ctx context.Context, req request, wait time.Duration) response {
	req.reply = make(chan response, 1)
	select {
	case m.requests <- req:
	case <-ctx.Done():
		return response{err: ctx.Err()}
	case <-m.quit:
		return response{err: errors.New("booking manager is closed")}
	case <-time.After(2 * time.Second):
		return response{err: errors.New("booking queue is busy")}
	}

	select {
	case res := <-req.reply:
		return res
	case <-ctx.Done():
		return response{err: ctx.Err()}
	case <-m.quit:
		return response{err: errors.New("booking manager is closed")}
	case <-time.After(wait):
		return response{err: errors.New("booking operation timed out")}
	}
}

// Create opens a new form session over the current catalog for mode. The
// contact settings are read once here; a failing read leaves them empty.
func (m *Manager) Create(ctx context.Context, mode Mode) (View, error) {
	if !mode.Valid() {
		return View{}, ErrUnknownMode
	}
	items, err := m.catalog.Items(ctx, mode)
	if err != nil {
		return View{}, fmt.Errorf("load catalog: %w", err)
	}
	s := &session{
		id:      uuid.NewString(),
		form:    NewForm(mode, items, m.opts.TimeSlots, m.opts.DeliveryFeeCents),
		contact: m.contactMethods(ctx),
	}
	s.state = s.form.Initial()
	res := m.send(ctx, request{op: opCreate, session: s})
	if res.err == nil {
		m.logger.Info("booking session opened", zap.String("session", s.id), zap.String("mode", string(mode)))
	}
	return res.view, res.err
}

func (m *Manager) contactMethods(ctx context.Context) settings.ContactMethods {
	if m.settings == nil {
		return settings.ContactMethods{}
	}
	methods, err := m.settings.ContactMethods(ctx)
	if err != nil {
		m.logger.Warn("contact settings unavailable", zap.Error(err))
		return settings.ContactMethods{}
	}
	return methods
}

// Get returns the current view of a session.
func (m *Manager) Get(ctx context.Context, id string) (View, error) {
	res := m.send(ctx, request{op: opGet, id: id})
	return res.view, res.err
}

// Dispatch applies user actions in order. Actions that do not apply in the
// current phase are ignored.
func (m *Manager) Dispatch(ctx context.Context, id string, actions ...Action) (View, error) {
	res := m.send(ctx, request{op: opDispatch, id: id, actions: actions})
	return res.view, res.err
}

// Submit validates the form and hands it to the sink according to the variant.
// A validation failure returns the rejected view together with the error.
// The sink runs off the session goroutine, so a slow sink only delays this call.
func (m *Manager) Submit(ctx context.Context, id string) (View, error) {
	res := m.sendWait(ctx, request{op: opSubmit, id: id}, sinkTimeout+2*time.Second)
	return res.view, res.err
}

// Reset returns a session to its initial state. It fails with
// ErrSubmissionInFlight while a delayed submission is pending.
func (m *Manager) Reset(ctx context.Context, id string) (View, error) {
	res := m.send(ctx, request{op: opReset, id: id})
	return res.view, res.err
}

// WhatsAppLink builds the deep link for the creator's WhatsApp with the form's
// current content as the message.
func (m *Manager) WhatsAppLink(ctx context.Context, id string) (string, error) {
	res := m.send(ctx, request{op: opLink, id: id})
	return res.link, res.err
}

// Place validates and delivers a one-shot booking without keeping a session.
// The sink is always called synchronously.
func (m *Manager) Place(ctx context.Context, mode Mode, d Draft) (View, error) {
	if !mode.Valid() {
		return View{}, ErrUnknownMode
	}
	items, err := m.catalog.Items(ctx, mode)
	if err != nil {
		return View{}, fmt.Errorf("load catalog: %w", err)
	}
	form := NewForm(mode, items, m.opts.TimeSlots, m.opts.DeliveryFeeCents)
	state := form.Initial()
	for _, a := range d.Actions() {
		state = form.Reduce(state, a)
	}
	state, payload, err := form.Submit(state, m.opts.Now())
	if err != nil {
		metrics.IncSubmission(string(mode), metrics.OutcomeRejected)
		return form.View(state), err
	}
	metrics.IncSubmission(string(mode), metrics.OutcomeAccepted)

	deliverCtx, cancel := context.WithTimeout(ctx, sinkTimeout)
	defer cancel()
	receipt, err := m.sink.Deliver(deliverCtx, *payload)
	if err != nil {
		metrics.IncSubmission(string(mode), metrics.OutcomeFailed)
		m.logger.Error("booking delivery failed", zap.String("mode", string(mode)), zap.Error(err))
		return form.View(form.Fail(state, MsgSubmitFailed)), fmt.Errorf("submission failed: %w", err)
	}
	metrics.IncSubmission(string(mode), metrics.OutcomeDelivered)
	view := form.View(state)
	view.Receipt = &receipt
	return view, nil
}

// Close stops the goroutine, cancels in-flight sink calls and waits for
// scheduled deliveries to drain.
func (m *Manager) Close() {
	close(m.quit)
	<-m.done
	m.cancel()
	m.pending.Wait()
}
