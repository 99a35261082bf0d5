package form

import (
	"context"
	"errors"
	"sync"

	"github.com/astrasemi/qualitylens/internal/insight"
	"github.com/astrasemi/qualitylens/internal/insight/client"
)

// ErrBusy is returned when a submit arrives while a request is outstanding.
var ErrBusy = errors.New("an insight request is already in progress")

var errNoFetcher = &client.TransportError{Message: client.GenericErrorMessage, Err: errors.New("no fetcher configured")}

// BusyLabel replaces the submit label while a request is outstanding.
const BusyLabel = "Analyzing..."

// State is a request/render cycle state.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateSuccess
	StateFailure
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateSuccess:
		return "success"
	case StateFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Fetcher performs the network call.
type Fetcher interface {
	Fetch(ctx context.Context, req insight.Request) (*insight.Response, error)
}

// Cycle is the Idle → Submitting → {Success|Failure} → Idle state machine.
// Only one request may be outstanding; the guard does not depend on the
// submit button's enabled flag.
type Cycle struct {
	page *Page

	mu        sync.Mutex
	state     State
	idleLabel string
	last      State
}

// NewCycle returns an idle cycle bound to page.
func NewCycle(page *Page) *Cycle {
	return &Cycle{page: page, state: StateIdle, last: StateIdle}
}

// State returns the current state.
func (c *Cycle) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Outcome returns the terminal state of the most recent completed request,
// or StateIdle when none has completed.
func (c *Cycle) Outcome() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Begin enters Submitting: hides previous panels, shows the loading
// indicator and disables the submit control.
func (c *Cycle) Begin() error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state = StateSubmitting
	c.mu.Unlock()

	page := c.page
	page.ResultPanel.Hide()
	page.ErrorPanel.Hide()
	page.Loading.Show()

	c.idleLabel = page.Submit.Label()
	page.Submit.SetEnabled(false)
	page.Submit.SetLabel(BusyLabel)
	return nil
}

// Finish renders the outcome of the outstanding request and returns to Idle.
// The return to Idle happens whatever the outcome. Finish returns the
// terminal state reached, or the current state when nothing was outstanding.
func (c *Cycle) Finish(resp *insight.Response, err error) State {
	c.mu.Lock()
	if c.state != StateSubmitting {
		state := c.state
		c.mu.Unlock()
		return state
	}
	c.mu.Unlock()

	terminal := StateSuccess
	defer c.reset(&terminal)

	page := c.page
	page.Loading.Hide()

	if err != nil {
		terminal = StateFailure
		c.setState(terminal)
		page.ErrorMessage.SetText(client.Message(err))
		page.ErrorPanel.Show()
		page.scrollTo(page.ErrorPanel)
		return terminal
	}

	c.setState(terminal)
	Render(page, resp)
	page.ResultPanel.Show()
	page.scrollTo(page.ResultPanel)
	return terminal
}

// Run performs one full cycle: Begin, the fetch, and Finish. The returned
// error is the fetch error, already rendered in the error panel.
func (c *Cycle) Run(ctx context.Context, fetcher Fetcher, req insight.Request) error {
	if err := c.Begin(); err != nil {
		return err
	}

	var (
		resp *insight.Response
		err  error
	)
	if fetcher == nil {
		err = errNoFetcher
	} else {
		resp, err = fetcher.Fetch(ctx, req)
	}
	c.Finish(resp, err)
	return err
}

func (c *Cycle) setState(state State) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

func (c *Cycle) reset(terminal *State) {
	label := c.idleLabel
	if label == "" {
		label = SubmitLabel
	}
	c.page.Submit.SetEnabled(true)
	c.page.Submit.SetLabel(label)

	c.mu.Lock()
	c.last = *terminal
	c.state = StateIdle
	c.mu.Unlock()
}
