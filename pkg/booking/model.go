package booking

import (
	"time"

	"glowlink/pkg/catalog"
)

// Mode picks which half of the catalog a form works on.
type Mode = catalog.Kind

const (
	ModeProduct = catalog.KindProduct
	ModeService = catalog.KindService
)

// DeliveryMethod is a radio choice between home delivery and pickup.
type DeliveryMethod string

const (
	DeliveryMethodDelivery DeliveryMethod = "delivery"
	DeliveryMethodPickup   DeliveryMethod = "pickup"
)

// Valid reports whether m is one of the two delivery methods.
func (m DeliveryMethod) Valid() bool {
	return m == DeliveryMethodDelivery || m == DeliveryMethodPickup
}

// Quantity bounds and the default delivery fee.
const (
	MinQuantity             = 1
	MaxQuantity             = 10
	DefaultDeliveryFeeCents = 1000
)

// DefaultTimeSlots are the appointment times offered for services.
var DefaultTimeSlots = []string{
	"09:00 AM", "10:00 AM", "11:00 AM", "12:00 PM",
	"01:00 PM", "02:00 PM", "03:00 PM", "04:00 PM",
}

// DateLayout is the accepted appointment date format.
const DateLayout = "2006-01-02"

// Field names a contact form input.
type Field string

const (
	FieldName    Field = "name"
	FieldPhone   Field = "phone"
	FieldEmail   Field = "email"
	FieldAddress Field = "address"
	FieldNotes   Field = "notes"
)

// Valid reports whether f is a known contact field.
func (f Field) Valid() bool {
	switch f {
	case FieldName, FieldPhone, FieldEmail, FieldAddress, FieldNotes:
		return true
	}
	return false
}

// Selection holds the chosen item, the quantity and the delivery method.
type Selection struct {
	ItemID         string         `json:"item_id"`
	Quantity       int            `json:"quantity"`
	DeliveryMethod DeliveryMethod `json:"delivery_method"`
}

// Contact holds the free-text customer fields.
type Contact struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

// Appointment is the date and time slot of a service booking.
type Appointment struct {
	Date string `json:"date"`
	Slot string `json:"slot"`
}

// Phase is the position of a form in the submission state machine.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseValidating Phase = "validating"
	PhaseRejected   Phase = "rejected"
	PhaseAccepted   Phase = "accepted"
	PhaseSubmitting Phase = "submitting"
	PhaseSuccess    Phase = "success"
)

// Editable reports whether user input is still applied in this phase.
func (p Phase) Editable() bool {
	return p == PhaseIdle || p == PhaseRejected
}

// State is everything one form instance owns.
type State struct {
	Mode        Mode        `json:"mode"`
	Selection   Selection   `json:"selection"`
	Contact     Contact     `json:"contact"`
	Appointment Appointment `json:"appointment"`
	Phase       Phase       `json:"phase"`
	Message     string      `json:"message,omitempty"`
}

// Payload is what an accepted form hands to the submission sink.
type Payload struct {
	Mode             Mode           `json:"mode"`
	Item             catalog.Item   `json:"item"`
	Quantity         int            `json:"quantity"`
	DeliveryMethod   DeliveryMethod `json:"delivery_method"`
	Contact          Contact        `json:"contact"`
	Appointment      *Appointment   `json:"appointment,omitempty"`
	DeliveryFeeCents int64          `json:"delivery_fee_cents"`
	TotalCents       int64          `json:"total_cents"`
	SubmittedAt      time.Time      `json:"submitted_at"`
}

// Receipt is the sink's acknowledgement of a payload.
type Receipt struct {
	Reference  string    `json:"reference"`
	OrderID    int64     `json:"order_id,omitempty"`
	AcceptedAt time.Time `json:"accepted_at"`
}
