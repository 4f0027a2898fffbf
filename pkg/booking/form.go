package booking

import (
	"strings"
	"time"

	"glowlink/pkg/catalog"
)

// Form is the fixed configuration of one form instance. Its methods are pure
// transitions over State.
type Form struct {
	Mode             Mode
	Catalog          catalog.Catalog
	Slots            []string
	DeliveryFeeCents int64
}

// NewForm builds a form for mode over the given items, falling back to the default
// time slots when none are configured.
func NewForm(mode Mode, items []catalog.Item, slots []string, feeCents int64) Form {
	if len(slots) == 0 {
		slots = DefaultTimeSlots
	}
	return Form{
		Mode:             mode,
		Catalog:          catalog.New(items),
		Slots:            append([]string(nil), slots...),
		DeliveryFeeCents: feeCents,
	}
}

// Initial is the empty form: nothing selected, quantity 1, delivery chosen.
// Services are always picked up.
func (f Form) Initial() State {
	method := DeliveryMethodDelivery
	if f.Mode == ModeService {
		method = DeliveryMethodPickup
	}
	return State{
		Mode: f.Mode,
		Selection: Selection{
			Quantity:       MinQuantity,
			DeliveryMethod: method,
		},
		Phase: PhaseIdle,
	}
}

// Action is a user input applied by Reduce.
type Action interface {
	apply(f Form, s State) State
}

// SelectItem replaces the current selection. Unknown ids are ignored.
type SelectItem struct{ ItemID string }

// Increment raises the quantity by one, up to MaxQuantity.
type Increment struct{}

// Decrement lowers the quantity by one, down to MinQuantity.
type Decrement struct{}

// ChooseDelivery switches between delivery and pickup.
type ChooseDelivery struct{ Method DeliveryMethod }

// SetContact stores a contact field verbatim.
type SetContact struct {
	Field Field
	Value string
}

// ChooseDate sets the appointment date of a service booking.
type ChooseDate struct{ Date string }

// ChooseSlot sets the appointment time slot of a service booking.
type ChooseSlot struct{ Slot string }

// Reset returns the form to its initial state.
type Reset struct{}

func (a SelectItem) apply(f Form, s State) State {
	if _, ok := f.Catalog.Find(a.ItemID); ok {
		s.Selection.ItemID = a.ItemID
	}
	return s
}

func (Increment) apply(f Form, s State) State {
	if f.Mode == ModeService {
		return s
	}
	if s.Selection.Quantity < MaxQuantity {
		s.Selection.Quantity++
	}
	return s
}

func (Decrement) apply(f Form, s State) State {
	if f.Mode == ModeService {
		return s
	}
	if s.Selection.Quantity > MinQuantity {
		s.Selection.Quantity--
	}
	return s
}

func (a ChooseDelivery) apply(f Form, s State) State {
	if f.Mode == ModeService || !a.Method.Valid() {
		return s
	}
	s.Selection.DeliveryMethod = a.Method
	return s
}

func (a SetContact) apply(_ Form, s State) State {
	switch a.Field {
	case FieldName:
		s.Contact.Name = a.Value
	case FieldPhone:
		s.Contact.Phone = a.Value
	case FieldEmail:
		s.Contact.Email = a.Value
	case FieldAddress:
		s.Contact.Address = a.Value
	case FieldNotes:
		s.Contact.Notes = a.Value
	}
	return s
}

func (a ChooseDate) apply(f Form, s State) State {
	if f.Mode != ModeService {
		return s
	}
	s.Appointment.Date = strings.TrimSpace(a.Date)
	return s
}

func (a ChooseSlot) apply(f Form, s State) State {
	if f.Mode != ModeService || !f.hasSlot(a.Slot) {
		return s
	}
	s.Appointment.Slot = a.Slot
	return s
}

func (Reset) apply(f Form, _ State) State {
	return f.Initial()
}

// Reduce applies one user action. Input is ignored once the form has been
// accepted, and a reset is ignored while a submission is in flight.
func (f Form) Reduce(s State, a Action) State {
	if a == nil {
		return s
	}
	if _, ok := a.(Reset); ok {
		if s.Phase == PhaseSubmitting {
			return s
		}
		return a.apply(f, s)
	}
	if !s.Phase.Editable() {
		return s
	}
	return a.apply(f, s)
}

// ResetToIdle is the explicit reset operation. It refuses to abandon an
// in-flight submission.
func (f Form) ResetToIdle(s State) (State, error) {
	if s.Phase == PhaseSubmitting {
		return s, ErrSubmissionInFlight
	}
	return f.Initial(), nil
}

// SelectedItem resolves the current selection against the catalog.
func (f Form) SelectedItem(s State) (catalog.Item, bool) {
	return f.Catalog.Find(s.Selection.ItemID)
}

// Total is the derived total of s in cents.
func (f Form) Total(s State) int64 {
	var item *catalog.Item
	if it, ok := f.SelectedItem(s); ok {
		item = &it
	}
	return ComputeTotal(item, s.Selection.Quantity, s.Selection.DeliveryMethod, f.DeliveryFeeCents)
}

// AddressRequired reports whether the address input is shown and required.
func (f Form) AddressRequired(s State) bool {
	return f.Mode == ModeProduct && s.Selection.DeliveryMethod == DeliveryMethodDelivery
}

// Validate checks the inputs a submission needs. now anchors the "no past
// dates" rule for appointments.
func (f Form) Validate(s State, now time.Time) error {
	if _, ok := f.SelectedItem(s); !ok {
		if f.Mode == ModeService {
			return newValidationError(MsgSelectService)
		}
		return newValidationError(MsgSelectItem)
	}
	c := s.Contact
	if blank(c.Name) || blank(c.Phone) || blank(c.Email) {
		return newValidationError(MsgRequiredFields)
	}
	if f.AddressRequired(s) && blank(c.Address) {
		return newValidationError(MsgRequiredFields)
	}
	if f.Mode == ModeService {
		if blank(s.Appointment.Date) || blank(s.Appointment.Slot) {
			return newValidationError(MsgRequiredFields)
		}
		day, err := time.ParseInLocation(DateLayout, s.Appointment.Date, now.Location())
		if err != nil {
			return newValidationError(MsgInvalidDate)
		}
		y, m, d := now.Date()
		if day.Before(time.Date(y, m, d, 0, 0, 0, 0, now.Location())) {
			return newValidationError(MsgPastDate)
		}
	}
	return nil
}

// Submit runs validation. A valid form moves to Accepted and yields the payload
// for the sink; an invalid one moves to Rejected and carries the message.
func (f Form) Submit(s State, now time.Time) (State, *Payload, error) {
	switch s.Phase {
	case PhaseSubmitting:
		return s, nil, ErrSubmissionInFlight
	case PhaseAccepted, PhaseSuccess:
		return s, nil, ErrAlreadySubmitted
	}

	s.Phase = PhaseValidating
	if err := f.Validate(s, now); err != nil {
		s.Phase = PhaseRejected
		s.Message = err.Error()
		return s, nil, err
	}
	s.Phase = PhaseAccepted
	s.Message = ""
	payload := f.payload(s, now)
	return s, &payload, nil
}

// Begin marks an accepted form as waiting for the sink.
func (f Form) Begin(s State) State {
	if s.Phase == PhaseAccepted {
		s.Phase = PhaseSubmitting
	}
	return s
}

// Settle records a successful immediate delivery; the form stays Accepted.
func (f Form) Settle(s State) State {
	if s.Phase == PhaseSubmitting {
		s.Phase = PhaseAccepted
	}
	return s
}

// Complete records a successful delivery.
func (f Form) Complete(s State) State {
	if s.Phase == PhaseAccepted || s.Phase == PhaseSubmitting {
		s.Phase = PhaseSuccess
	}
	return s
}

// Fail returns the form to Idle with the inputs intact so the user can retry.
func (f Form) Fail(s State, msg string) State {
	if s.Phase == PhaseAccepted || s.Phase == PhaseSubmitting {
		s.Phase = PhaseIdle
		s.Message = msg
	}
	return s
}

func (f Form) payload(s State, now time.Time) Payload {
	item, _ := f.SelectedItem(s)
	p := Payload{
		Mode:             f.Mode,
		Item:             item,
		Quantity:         s.Selection.Quantity,
		DeliveryMethod:   s.Selection.DeliveryMethod,
		Contact:          trimContact(s.Contact),
		DeliveryFeeCents: DeliveryFee(s.Selection.DeliveryMethod, f.DeliveryFeeCents),
		TotalCents:       f.Total(s),
		SubmittedAt:      now.UTC(),
	}
	if !f.AddressRequired(s) {
		p.Contact.Address = ""
	}
	if f.Mode == ModeService {
		appt := s.Appointment
		p.Appointment = &appt
	}
	return p
}

func (f Form) hasSlot(slot string) bool {
	for _, s := range f.Slots {
		if s == slot {
			return true
		}
	}
	return false
}

func trimContact(c Contact) Contact {
	return Contact{
		Name:    strings.TrimSpace(c.Name),
		Phone:   strings.TrimSpace(c.Phone),
		Email:   strings.TrimSpace(c.Email),
		Address: strings.TrimSpace(c.Address),
		Notes:   strings.TrimSpace(c.Notes),
	}
}

func blank(v string) bool {
	return strings.TrimSpace(v) == ""
}
