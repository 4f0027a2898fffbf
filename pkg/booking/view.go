package booking

import (
	"fmt"
	"strings"

	"glowlink/pkg/catalog"
)

// Summary is the order summary block, present once an item is selected.
type Summary struct {
	ItemName       string         `json:"item_name"`
	Duration       string         `json:"duration,omitempty"`
	UnitPrice      string         `json:"unit_price"`
	Quantity       int            `json:"quantity"`
	DeliveryMethod DeliveryMethod `json:"delivery_method"`
	DeliveryFee    string         `json:"delivery_fee"`
	Total          string         `json:"total"`
}

// View is what a client renders for one form session.
type View struct {
	ID               string         `json:"id,omitempty"`
	State
	Item             *catalog.Item  `json:"item,omitempty"`
	AddressRequired  bool           `json:"address_required"`
	DeliveryFeeCents int64          `json:"delivery_fee_cents"`
	TotalCents       int64          `json:"total_cents"`
	Total            string         `json:"total"`
	Summary          *Summary       `json:"summary,omitempty"`
	Slots            []string       `json:"slots,omitempty"`
	Items            []catalog.Item `json:"items"`
	Receipt          *Receipt       `json:"receipt,omitempty"`
}

// View derives the rendered form from s.
func (f Form) View(s State) View {
	total := f.Total(s)
	v := View{
		State:            s,
		AddressRequired:  f.AddressRequired(s),
		DeliveryFeeCents: DeliveryFee(s.Selection.DeliveryMethod, f.DeliveryFeeCents),
		TotalCents:       total,
		Total:            catalog.FormatPrice(total),
		Items:            f.Catalog.Items(),
	}
	if f.Mode == ModeService {
		v.Slots = append([]string(nil), f.Slots...)
	}
	if item, ok := f.SelectedItem(s); ok {
		v.Item = &item
		v.Summary = &Summary{
			ItemName:       item.Name,
			Duration:       item.Duration,
			UnitPrice:      catalog.FormatPrice(item.PriceCents),
			Quantity:       s.Selection.Quantity,
			DeliveryMethod: s.Selection.DeliveryMethod,
			DeliveryFee:    catalog.FormatPrice(v.DeliveryFeeCents),
			Total:          v.Total,
		}
	}
	return v
}

// Message renders the text prefilled into a WhatsApp chat for this booking.
func Message(v View) string {
	var b strings.Builder
	if v.Mode == ModeService {
		b.WriteString("Hi! I'd like to book an appointment.")
	} else {
		b.WriteString("Hi! I'd like to place an order.")
	}
	if v.Item != nil {
		label := "Product"
		if v.Mode == ModeService {
			label = "Service"
		}
		fmt.Fprintf(&b, "\n%s: %s", label, v.Item.Name)
		if v.Mode == ModeProduct {
			fmt.Fprintf(&b, " x%d", v.Selection.Quantity)
		}
		fmt.Fprintf(&b, "\nTotal: %s", v.Total)
	}
	if v.Mode == ModeService && v.Appointment.Date != "" {
		fmt.Fprintf(&b, "\nWhen: %s %s", v.Appointment.Date, v.Appointment.Slot)
	}
	if v.Mode == ModeProduct {
		fmt.Fprintf(&b, "\n%s", deliveryLabel(v.Selection.DeliveryMethod))
	}
	if v.Mode == ModeService {
		for _, line := range []struct{ label, value string }{
			{"Name", v.Contact.Name},
			{"Phone", v.Contact.Phone},
			{"Email", v.Contact.Email},
			{"Notes", v.Contact.Notes},
		} {
			if value := strings.TrimSpace(line.value); value != "" {
				fmt.Fprintf(&b, "\n%s: %s", line.label, value)
			}
		}
	} else if name := strings.TrimSpace(v.Contact.Name); name != "" {
		fmt.Fprintf(&b, "\nName: %s", name)
	}
	return b.String()
}

func deliveryLabel(m DeliveryMethod) string {
	if m == DeliveryMethodPickup {
		return "Pickup"
	}
	return "Home delivery"
}
