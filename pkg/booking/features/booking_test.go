package features

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"glowlink/pkg/booking"
	"glowlink/pkg/catalog"
)

type formTestContext struct {
	items []catalog.Item
	fee   int64
	form  booking.Form
	state booking.State
	err   error
}

func (c *formTestContext) reset() {
	c.items = nil
	c.fee = booking.DefaultDeliveryFeeCents
	c.err = nil
	c.rebuild()
}

func (c *formTestContext) rebuild() {
	c.form = booking.NewForm(booking.ModeProduct, c.items, nil, c.fee)
	c.state = c.form.Initial()
}

func (c *formTestContext) dispatch(a booking.Action) {
	c.state = c.form.Reduce(c.state, a)
}

func (c *formTestContext) aProductCatalog(table *godog.Table) error {
	c.items = nil
	for i, row := range table.Rows {
		if i == 0 {
			continue
		}
		if len(row.Cells) != 3 {
			return fmt.Errorf("row %d: expected id, name and price", i)
		}
		cents, err := catalog.ParsePrice(row.Cells[2].Value)
		if err != nil {
			return err
		}
		c.items = append(c.items, catalog.Item{
			ID:         row.Cells[0].Value,
			Kind:       catalog.KindProduct,
			Name:       row.Cells[1].Value,
			PriceCents: cents,
			Position:   i,
		})
	}
	c.rebuild()
	return nil
}

func (c *formTestContext) aDeliveryFeeOf(raw string) error {
	cents, err := catalog.ParsePrice(raw)
	if err != nil {
		return err
	}
	c.fee = cents
	c.rebuild()
	return nil
}

func (c *formTestContext) iIncrementTheQuantityTimes(n int) error {
	for i := 0; i < n; i++ {
		c.dispatch(booking.Increment{})
	}
	return nil
}

func (c *formTestContext) iDecrementTheQuantityTimes(n int) error {
	for i := 0; i < n; i++ {
		c.dispatch(booking.Decrement{})
	}
	return nil
}

func (c *formTestContext) iSelectItem(id string) error {
	c.dispatch(booking.SelectItem{ItemID: id})
	return nil
}

func (c *formTestContext) iChoose(method string) error {
	c.dispatch(booking.ChooseDelivery{Method: booking.DeliveryMethod(method)})
	return nil
}

func (c *formTestContext) iSetTheFieldTo(field, value string) error {
	c.dispatch(booking.SetContact{Field: booking.Field(field), Value: value})
	return nil
}

func (c *formTestContext) iSubmitTheForm() error {
	c.state, _, c.err = c.form.Submit(c.state, time.Now())
	return nil
}

func (c *formTestContext) theSubmissionIsDelivered() error {
	if c.err != nil {
		return fmt.Errorf("submission was not accepted: %w", c.err)
	}
	c.state = c.form.Complete(c.form.Begin(c.state))
	return nil
}

func (c *formTestContext) iResetTheForm() error {
	var err error
	c.state, err = c.form.ResetToIdle(c.state)
	return err
}

func (c *formTestContext) theQuantityIs(n int) error {
	if got := c.state.Selection.Quantity; got != n {
		return fmt.Errorf("expected quantity %d, got %d", n, got)
	}
	return nil
}

func (c *formTestContext) theTotalIs(raw string) error {
	want, err := catalog.ParsePrice(raw)
	if err != nil {
		return err
	}
	if got := c.form.Total(c.state); got != want {
		return fmt.Errorf("expected total %s, got %s", catalog.FormatPrice(want), catalog.FormatPrice(got))
	}
	return nil
}

func (c *formTestContext) noSummaryIsAvailable() error {
	if v := c.form.View(c.state); v.Summary != nil {
		return fmt.Errorf("expected no summary, got %+v", *v.Summary)
	}
	return nil
}

func (c *formTestContext) theSubmissionIsRejectedWith(msg string) error {
	if !booking.IsValidation(c.err) {
		return fmt.Errorf("expected a validation error, got %v", c.err)
	}
	if c.err.Error() != msg {
		return fmt.Errorf("expected %q, got %q", msg, c.err.Error())
	}
	if c.state.Message != msg {
		return fmt.Errorf("form message is %q", c.state.Message)
	}
	return nil
}

func (c *formTestContext) thePhaseIs(phase string) error {
	if got := string(c.state.Phase); got != phase {
		return fmt.Errorf("expected phase %s, got %s", phase, got)
	}
	return nil
}

func (c *formTestContext) theSelectedItemIs(id string) error {
	if got := c.state.Selection.ItemID; got != id {
		return fmt.Errorf("expected item %q, got %q", id, got)
	}
	return nil
}

func (c *formTestContext) noItemIsSelected() error {
	return c.theSelectedItemIs("")
}

func (c *formTestContext) theDeliveryMethodIs(method string) error {
	if got := string(c.state.Selection.DeliveryMethod); got != method {
		return fmt.Errorf("expected delivery method %s, got %s", method, got)
	}
	return nil
}

func (c *formTestContext) theContactFieldsAreEmpty() error {
	if c.state.Contact != (booking.Contact{}) {
		return fmt.Errorf("expected empty contact, got %+v", c.state.Contact)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &formTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a product catalog:$`, tc.aProductCatalog)
	ctx.Step(`^a delivery fee of (\S+)$`, tc.aDeliveryFeeOf)

	// When steps
	ctx.Step(`^I increment the quantity (\d+) times$`, tc.iIncrementTheQuantityTimes)
	ctx.Step(`^I decrement the quantity (\d+) times$`, tc.iDecrementTheQuantityTimes)
	ctx.Step(`^I select item "([^"]*)"$`, tc.iSelectItem)
	ctx.Step(`^I choose "(delivery|pickup)"$`, tc.iChoose)
	ctx.Step(`^I set the (name|phone|email|address|notes) to "([^"]*)"$`, tc.iSetTheFieldTo)
	ctx.Step(`^I submit the form$`, tc.iSubmitTheForm)
	ctx.Step(`^the submission is delivered$`, tc.theSubmissionIsDelivered)
	ctx.Step(`^I reset the form$`, tc.iResetTheForm)

	// Then steps
	ctx.Step(`^the quantity is (\d+)$`, tc.theQuantityIs)
	ctx.Step(`^the total is (\S+)$`, tc.theTotalIs)
	ctx.Step(`^no summary is available$`, tc.noSummaryIsAvailable)
	ctx.Step(`^the submission is rejected with "([^"]*)"$`, tc.theSubmissionIsRejectedWith)
	ctx.Step(`^the phase is "([^"]*)"$`, tc.thePhaseIs)
	ctx.Step(`^the selected item is "([^"]*)"$`, tc.theSelectedItemIs)
	ctx.Step(`^no item is selected$`, tc.noItemIsSelected)
	ctx.Step(`^the delivery method is "([^"]*)"$`, tc.theDeliveryMethodIs)
	ctx.Step(`^the contact fields are empty$`, tc.theContactFieldsAreEmpty)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"../../../features/booking.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
