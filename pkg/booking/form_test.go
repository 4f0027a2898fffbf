package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glowlink/pkg/catalog"
)

var testNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func productForm() Form {
	return NewForm(ModeProduct, catalog.DefaultProducts(), nil, DefaultDeliveryFeeCents)
}

func serviceForm() Form {
	return NewForm(ModeService, catalog.DefaultServices(), nil, DefaultDeliveryFeeCents)
}

func apply(f Form, s State, actions ...Action) State {
	for _, a := range actions {
		s = f.Reduce(s, a)
	}
	return s
}

func filledContact() []Action {
	return []Action{
		SetContact{Field: FieldName, Value: "Ada"},
		SetContact{Field: FieldPhone, Value: "555-0100"},
		SetContact{Field: FieldEmail, Value: "ada@example.com"},
		SetContact{Field: FieldAddress, Value: "1 Main St"},
	}
}

func TestComputeTotal(t *testing.T) {
	tote := catalog.Item{ID: "1", PriceCents: 4500}
	cases := []struct {
		name   string
		item   *catalog.Item
		qty    int
		method DeliveryMethod
		want   int64
	}{
		{"delivery adds fee", &tote, 2, DeliveryMethodDelivery, 10000},
		{"pickup has no fee", &tote, 2, DeliveryMethodPickup, 9000},
		{"no item with delivery is the fee", nil, 1, DeliveryMethodDelivery, 1000},
		{"no item with pickup is zero", nil, 3, DeliveryMethodPickup, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputeTotal(tc.item, tc.qty, tc.method, DefaultDeliveryFeeCents))
		})
	}
}

func TestInitialState(t *testing.T) {
	s := productForm().Initial()
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.Equal(t, MinQuantity, s.Selection.Quantity)
	assert.Equal(t, DeliveryMethodDelivery, s.Selection.DeliveryMethod)
	assert.Empty(t, s.Selection.ItemID)

	svc := serviceForm().Initial()
	assert.Equal(t, DeliveryMethodPickup, svc.Selection.DeliveryMethod)
}

func TestQuantityStaysInBounds(t *testing.T) {
	f := productForm()
	s := f.Initial()

	s = apply(f, s, Decrement{})
	assert.Equal(t, 1, s.Selection.Quantity)

	for i := 0; i < 15; i++ {
		s = f.Reduce(s, Increment{})
	}
	assert.Equal(t, MaxQuantity, s.Selection.Quantity)

	s = apply(f, s, Decrement{}, Decrement{})
	assert.Equal(t, 8, s.Selection.Quantity)
}

func TestSelectItemIsSingleSelect(t *testing.T) {
	f := productForm()
	s := apply(f, f.Initial(), SelectItem{ItemID: "1"}, SelectItem{ItemID: "2"})
	assert.Equal(t, "2", s.Selection.ItemID)

	s = f.Reduce(s, SelectItem{ItemID: "missing"})
	assert.Equal(t, "2", s.Selection.ItemID)
}

func TestTotalFollowsSelection(t *testing.T) {
	f := productForm()
	s := apply(f, f.Initial(), SelectItem{ItemID: "1"}, Increment{})
	assert.Equal(t, int64(10000), f.Total(s))

	s = f.Reduce(s, ChooseDelivery{Method: DeliveryMethodPickup})
	assert.Equal(t, int64(9000), f.Total(s))
	assert.False(t, f.AddressRequired(s))

	s = f.Reduce(s, ChooseDelivery{Method: "drone"})
	assert.Equal(t, DeliveryMethodPickup, s.Selection.DeliveryMethod)
}

func TestViewSummary(t *testing.T) {
	f := productForm()

	v := f.View(f.Initial())
	assert.Nil(t, v.Summary)
	assert.Equal(t, int64(1000), v.TotalCents)
	assert.True(t, v.AddressRequired)
	assert.Len(t, v.Items, 3)

	v = f.View(apply(f, f.Initial(), SelectItem{ItemID: "2"}, Increment{}, Increment{}))
	require.NotNil(t, v.Summary)
	assert.Equal(t, "Ceramic Vase Set", v.Summary.ItemName)
	assert.Equal(t, "$65", v.Summary.UnitPrice)
	assert.Equal(t, 3, v.Summary.Quantity)
	assert.Equal(t, "$10", v.Summary.DeliveryFee)
	assert.Equal(t, "$205", v.Total)
}

func TestSubmitWithoutItemIsRejected(t *testing.T) {
	f := productForm()
	s := apply(f, f.Initial(), filledContact()...)

	next, payload, err := f.Submit(s, testNow)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Nil(t, payload)
	assert.Equal(t, PhaseRejected, next.Phase)
	assert.Equal(t, MsgSelectItem, next.Message)
}

func TestSubmitRequiresContactFields(t *testing.T) {
	f := productForm()
	base := apply(f, f.Initial(), SelectItem{ItemID: "1"})
	cases := []struct {
		name    string
		actions []Action
	}{
		{"nothing", nil},
		{"blank name", []Action{
			SetContact{Field: FieldName, Value: "   "},
			SetContact{Field: FieldPhone, Value: "1"},
			SetContact{Field: FieldEmail, Value: "a@b.c"},
			SetContact{Field: FieldAddress, Value: "x"},
		}},
		{"missing address on delivery", []Action{
			SetContact{Field: FieldName, Value: "Ada"},
			SetContact{Field: FieldPhone, Value: "1"},
			SetContact{Field: FieldEmail, Value: "a@b.c"},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, _, err := f.Submit(apply(f, base, tc.actions...), testNow)
			require.True(t, IsValidation(err))
			assert.Equal(t, MsgRequiredFields, next.Message)
			assert.Equal(t, PhaseRejected, next.Phase)
		})
	}
}

func TestPickupDoesNotNeedAddress(t *testing.T) {
	f := productForm()
	s := apply(f, f.Initial(),
		SelectItem{ItemID: "3"},
		ChooseDelivery{Method: DeliveryMethodPickup},
		SetContact{Field: FieldName, Value: "Ada"},
		SetContact{Field: FieldPhone, Value: "555"},
		SetContact{Field: FieldEmail, Value: "ada@example.com"},
		SetContact{Field: FieldAddress, Value: "stale"},
	)
	next, payload, err := f.Submit(s, testNow)
	require.NoError(t, err)
	assert.Equal(t, PhaseAccepted, next.Phase)
	require.NotNil(t, payload)
	assert.Equal(t, int64(2500), payload.TotalCents)
	assert.Equal(t, int64(0), payload.DeliveryFeeCents)
	assert.Empty(t, payload.Contact.Address)
	assert.Nil(t, payload.Appointment)
}

func TestRejectedFormCanBeCorrected(t *testing.T) {
	f := productForm()
	s, _, err := f.Submit(f.Initial(), testNow)
	require.Error(t, err)

	s = apply(f, s, append([]Action{SelectItem{ItemID: "1"}}, filledContact()...)...)
	assert.Equal(t, MsgSelectItem, s.Message)

	s, payload, err := f.Submit(s, testNow)
	require.NoError(t, err)
	assert.Empty(t, s.Message)
	assert.Equal(t, "Ankara Tote Bag", payload.Item.Name)
	assert.Equal(t, int64(5500), payload.TotalCents)
	assert.Equal(t, testNow, payload.SubmittedAt)
}

func TestAcceptedFormIgnoresInput(t *testing.T) {
	f := productForm()
	s := apply(f, f.Initial(), append([]Action{SelectItem{ItemID: "1"}}, filledContact()...)...)
	s, _, err := f.Submit(s, testNow)
	require.NoError(t, err)

	edited := apply(f, s, Increment{}, SelectItem{ItemID: "2"})
	assert.Equal(t, s, edited)

	_, _, err = f.Submit(s, testNow)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
}

func TestSubmittingLifecycle(t *testing.T) {
	f := productForm()
	s := apply(f, f.Initial(), append([]Action{SelectItem{ItemID: "1"}}, filledContact()...)...)
	s, _, err := f.Submit(s, testNow)
	require.NoError(t, err)

	s = f.Begin(s)
	assert.Equal(t, PhaseSubmitting, s.Phase)

	_, _, err = f.Submit(s, testNow)
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	_, err = f.ResetToIdle(s)
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
	assert.Equal(t, s, f.Reduce(s, Reset{}))

	done := f.Complete(s)
	assert.Equal(t, PhaseSuccess, done.Phase)

	settled := f.Settle(s)
	assert.Equal(t, PhaseAccepted, settled.Phase)
	assert.Equal(t, PhaseIdle, f.Settle(f.Initial()).Phase)

	reset, err := f.ResetToIdle(done)
	require.NoError(t, err)
	assert.Equal(t, f.Initial(), reset)

	failed := f.Fail(s, MsgSubmitFailed)
	assert.Equal(t, PhaseIdle, failed.Phase)
	assert.Equal(t, MsgSubmitFailed, failed.Message)
	assert.Equal(t, "1", failed.Selection.ItemID)
}

func TestServiceMode(t *testing.T) {
	f := serviceForm()
	s := apply(f, f.Initial(),
		SelectItem{ItemID: "s1"},
		Increment{},
		ChooseDelivery{Method: DeliveryMethodDelivery},
		SetContact{Field: FieldName, Value: "Ada"},
		SetContact{Field: FieldPhone, Value: "555"},
		SetContact{Field: FieldEmail, Value: "ada@example.com"},
	)
	assert.Equal(t, 1, s.Selection.Quantity)
	assert.Equal(t, DeliveryMethodPickup, s.Selection.DeliveryMethod)
	assert.Equal(t, int64(6000), f.Total(s))

	_, _, err := f.Submit(s, testNow)
	require.True(t, IsValidation(err))
	assert.Equal(t, MsgRequiredFields, err.Error())

	s = apply(f, s, ChooseDate{Date: "2026-10-17"}, ChooseSlot{Slot: "10:00 AM"})
	_, _, err = f.Submit(s, testNow)
	assert.Equal(t, MsgPastDate, err.Error())

	s = f.Reduce(s, ChooseDate{Date: "tomorrow"})
	_, _, err = f.Submit(s, testNow)
	assert.Equal(t, MsgInvalidDate, err.Error())

	s = apply(f, s, ChooseDate{Date: "2026-10-18"}, ChooseSlot{Slot: "25:00"})
	assert.Equal(t, "10:00 AM", s.Appointment.Slot)

	s, payload, err := f.Submit(s, testNow)
	require.NoError(t, err)
	assert.Equal(t, PhaseAccepted, s.Phase)
	require.NotNil(t, payload.Appointment)
	assert.Equal(t, Appointment{Date: "2026-10-18", Slot: "10:00 AM"}, *payload.Appointment)
}

func TestServiceWithoutSelection(t *testing.T) {
	f := serviceForm()
	_, _, err := f.Submit(f.Initial(), testNow)
	require.Error(t, err)
	assert.Equal(t, MsgSelectService, err.Error())
}

func TestDraftActionsClampQuantity(t *testing.T) {
	f := productForm()
	s := apply(f, f.Initial(), Draft{ItemID: "1", Quantity: 40}.Actions()...)
	assert.Equal(t, MaxQuantity, s.Selection.Quantity)

	s = apply(f, f.Initial(), Draft{ItemID: "1", Quantity: -3}.Actions()...)
	assert.Equal(t, MinQuantity, s.Selection.Quantity)
}

func TestMessage(t *testing.T) {
	f := productForm()
	v := f.View(apply(f, f.Initial(), SelectItem{ItemID: "1"}, Increment{}, SetContact{Field: FieldName, Value: "Ada"}))
	msg := Message(v)
	assert.Contains(t, msg, "Product: Ankara Tote Bag x2")
	assert.Contains(t, msg, "Total: $100")
	assert.Contains(t, msg, "Home delivery")
	assert.Contains(t, msg, "Name: Ada")

	sf := serviceForm()
	sv := sf.View(apply(sf, sf.Initial(), SelectItem{ItemID: "s2"}, ChooseDate{Date: "2026-11-01"}, ChooseSlot{Slot: "09:00 AM"}))
	smsg := Message(sv)
	assert.Contains(t, smsg, "book an appointment")
	assert.Contains(t, smsg, "Service: Makeup")
	assert.Contains(t, smsg, "When: 2026-11-01 09:00 AM")
}
