package booking

// Draft is a complete booking posted in one request.
type Draft struct {
	ItemID         string         `json:"item_id"`
	Quantity       int            `json:"quantity"`
	DeliveryMethod DeliveryMethod `json:"delivery_method"`
	Contact        Contact        `json:"contact"`
	Date           string         `json:"date"`
	Slot           string         `json:"slot"`
}

// Actions replays the draft as user input, so quantity and delivery obey the
// same rules as the interactive form.
func (d Draft) Actions() []Action {
	actions := []Action{SelectItem{ItemID: d.ItemID}}
	for q := MinQuantity; q < d.Quantity && q < MaxQuantity; q++ {
		actions = append(actions, Increment{})
	}
	if d.DeliveryMethod != "" {
		actions = append(actions, ChooseDelivery{Method: d.DeliveryMethod})
	}
	actions = append(actions,
		SetContact{Field: FieldName, Value: d.Contact.Name},
		SetContact{Field: FieldPhone, Value: d.Contact.Phone},
		SetContact{Field: FieldEmail, Value: d.Contact.Email},
		SetContact{Field: FieldAddress, Value: d.Contact.Address},
		SetContact{Field: FieldNotes, Value: d.Contact.Notes},
	)
	if d.Date != "" {
		actions = append(actions, ChooseDate{Date: d.Date})
	}
	if d.Slot != "" {
		actions = append(actions, ChooseSlot{Slot: d.Slot})
	}
	return actions
}
