package form

import (
	"context"
	"strconv"

	"github.com/astrasemi/qualitylens/internal/insight"
)

// Controller owns the observation input: it reflects the character count,
// fills canned examples and validates before handing off to the Cycle.
type Controller struct {
	page    *Page
	cycle   *Cycle
	fetcher Fetcher
}

// NewController binds a controller and a fresh cycle to page.
func NewController(page *Page, fetcher Fetcher) *Controller {
	return &Controller{
		page:    page,
		cycle:   NewCycle(page),
		fetcher: fetcher,
	}
}

// Page returns the render context.
func (c *Controller) Page() *Page { return c.page }

// Cycle returns the request/render cycle.
func (c *Controller) Cycle() *Cycle { return c.cycle }

// ReflectCount updates the counter to the current length of the field. It is
// informational only; limits are enforced at submit.
func (c *Controller) ReflectCount() {
	c.page.CharCount.SetText(strconv.Itoa(insight.Length(c.page.Observation.Value())))
}

// Edit replaces the observation text as a user edit would.
func (c *Controller) Edit(text string) {
	c.page.Observation.SetValue(text)
	c.ReflectCount()
}

// Autofill replaces the observation with the canned example for label, or
// with label itself when it is not a known scenario, then focuses the field.
func (c *Controller) Autofill(label string) {
	c.Edit(insight.Example(label))
	c.page.Observation.Focus()
}

// Prepare validates the input and, when valid, enters Submitting. A
// validation failure is rendered in the error panel and never reaches the
// network. Hosts running the fetch off their event loop call Prepare, then
// Finish with the result.
func (c *Controller) Prepare() (insight.Request, error) {
	if c.cycle.State() != StateIdle {
		return insight.Request{}, ErrBusy
	}

	trimmed, err := insight.Validate(c.page.Observation.Value())
	if err != nil {
		RenderError(c.page, err.Error())
		return insight.Request{}, err
	}

	if err := c.cycle.Begin(); err != nil {
		return insight.Request{}, err
	}

	return insight.Request{
		ObservationText: trimmed,
		Context:         c.page.Context.Value(),
	}, nil
}

// Finish completes a request started with Prepare.
func (c *Controller) Finish(resp *insight.Response, err error) State {
	return c.cycle.Finish(resp, err)
}

// Submit handles one user-initiated submit: validate, then exactly one
// request/render cycle.
func (c *Controller) Submit(ctx context.Context) error {
	req, err := c.Prepare()
	if err != nil {
		return err
	}

	if c.fetcher == nil {
		c.Finish(nil, errNoFetcher)
		return errNoFetcher
	}
	resp, err := c.fetcher.Fetch(ctx, req)
	c.Finish(resp, err)
	return err
}
