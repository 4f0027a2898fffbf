package order

import (
	"time"

	"glowlink/pkg/booking"
)

// Order is an accepted booking as it is stored and exported.
type Order struct {
	ID               int64     `json:"id"`
	Reference        string    `json:"reference"`
	Kind             string    `json:"kind"`
	ItemID           string    `json:"item_id"`
	ItemName         string    `json:"item_name"`
	UnitPriceCents   int64     `json:"unit_price_cents"`
	Quantity         int       `json:"quantity"`
	DeliveryMethod   string    `json:"delivery_method"`
	DeliveryFeeCents int64     `json:"delivery_fee_cents"`
	TotalCents       int64     `json:"total_cents"`
	AppointmentDate  string    `json:"appointment_date,omitempty"`
	AppointmentSlot  string    `json:"appointment_slot,omitempty"`
	Name             string    `json:"name"`
	Phone            string    `json:"phone"`
	Email            string    `json:"email"`
	Address          string    `json:"address,omitempty"`
	Notes            string    `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// FromPayload flattens an accepted form payload into a storable order.
func FromPayload(p booking.Payload) Order {
	o := Order{
		Kind:             string(p.Mode),
		ItemID:           p.Item.ID,
		ItemName:         p.Item.Name,
		UnitPriceCents:   p.Item.PriceCents,
		Quantity:         p.Quantity,
		DeliveryMethod:   string(p.DeliveryMethod),
		DeliveryFeeCents: p.DeliveryFeeCents,
		TotalCents:       p.TotalCents,
		Name:             p.Contact.Name,
		Phone:            p.Contact.Phone,
		Email:            p.Contact.Email,
		Address:          p.Contact.Address,
		Notes:            p.Contact.Notes,
		CreatedAt:        p.SubmittedAt,
	}
	if p.Appointment != nil {
		o.AppointmentDate = p.Appointment.Date
		o.AppointmentSlot = p.Appointment.Slot
	}
	return o
}
