package form

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrasemi/qualitylens/internal/insight"
	"github.com/astrasemi/qualitylens/internal/insight/client"
)

const sampleObservation = "Humidity slightly high in Zone C. Minor particle alert earlier. No visible defects observed."

type fakeFetcher struct {
	requests []insight.Request
	resp     *insight.Response
	err      error
	during   func()
}

func (f *fakeFetcher) Fetch(ctx context.Context, req insight.Request) (*insight.Response, error) {
	f.requests = append(f.requests, req)
	if f.during != nil {
		f.during()
	}
	return f.resp, f.err
}

func fullResponse() *insight.Response {
	return &insight.Response{
		RiskLevel:           insight.RiskHigh,
		RiskInterpretation:  "Elevated humidity could affect sensitive steps.",
		KeyPoints:           []string{"Humidity above target", "Particle alert was brief", "No defects seen"},
		Actions:             []string{"Log the reading", "Tell the shift lead"},
		ClarifyingQuestions: []string{"How long was humidity high?", "Which tools are in Zone C?"},
		Disclaimer:          insight.Disclaimer,
	}
}

func TestReflectCount(t *testing.T) {
	page := NewMemoryPage()
	ctrl := NewController(page, &fakeFetcher{})

	ctrl.Edit("  hello  ")
	assert.Equal(t, "9", page.CharCount.Text())

	ctrl.Edit(strings.Repeat("x", 1500))
	assert.Equal(t, "1500", page.CharCount.Text())
	assert.False(t, page.ErrorPanel.Visible(), "counting never enforces limits")
}

func TestAutofill(t *testing.T) {
	page := NewMemoryPage()
	ctrl := NewController(page, &fakeFetcher{})

	ctrl.Autofill("humidity")
	assert.Equal(t, sampleObservation, page.Observation.Value())
	assert.Equal(t, "92", page.CharCount.Text())
	assert.True(t, page.Observation.(*MemoryField).Focused())

	ctrl.Autofill("Some literal text")
	assert.Equal(t, "Some literal text", page.Observation.Value())
	assert.Equal(t, "17", page.CharCount.Text())
}

func TestSubmitValidationNeverReachesNetwork(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		reason string
	}{
		{"length five", "hello", insight.ReasonTooShort},
		{"whitespace padded", "   " + strings.Repeat("a", 19) + "   ", insight.ReasonTooShort},
		{"too long", strings.Repeat("a", 1001), insight.ReasonTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := NewMemoryPage()
			fetcher := &fakeFetcher{resp: fullResponse()}
			ctrl := NewController(page, fetcher)

			ctrl.Edit(tt.text)
			err := ctrl.Submit(context.Background())

			var verr *insight.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.reason, verr.Reason)
			assert.Empty(t, fetcher.requests)
			assert.True(t, page.ErrorPanel.Visible())
			assert.Contains(t, page.ErrorMessage.Text(), tt.reason)
			assert.False(t, page.Loading.Visible())
			assert.True(t, page.Submit.Enabled())
			assert.Equal(t, StateIdle, ctrl.Cycle().State())
		})
	}
}

func TestSubmitBoundaryLengthsReachNetwork(t *testing.T) {
	for _, n := range []int{insight.MinObservationLength, insight.MaxObservationLength} {
		page := NewMemoryPage()
		fetcher := &fakeFetcher{resp: fullResponse()}
		ctrl := NewController(page, fetcher)

		ctrl.Edit(strings.Repeat("a", n))
		require.NoError(t, ctrl.Submit(context.Background()))
		assert.Len(t, fetcher.requests, 1)
	}
}

func TestSubmitSendsTrimmedTextAndRawContext(t *testing.T) {
	page := NewMemoryPage()
	fetcher := &fakeFetcher{resp: fullResponse()}
	ctrl := NewController(page, fetcher)

	ctrl.Edit("\n  " + sampleObservation + "  ")
	page.Context.SetValue("Cleanroom environment")

	require.NoError(t, ctrl.Submit(context.Background()))
	require.Len(t, fetcher.requests, 1)
	assert.Equal(t, insight.Request{ObservationText: sampleObservation, Context: "Cleanroom environment"}, fetcher.requests[0])
}

func TestSubmitSuccessRendersEverySurface(t *testing.T) {
	page := NewMemoryPage()
	ctrl := NewController(page, &fakeFetcher{resp: fullResponse()})
	ctrl.Edit(sampleObservation)

	require.NoError(t, ctrl.Submit(context.Background()))

	assert.Equal(t, "HIGH", page.RiskBadge.Text())
	assert.Equal(t, "risk-high", page.RiskBadge.Class())
	assert.Equal(t, "Elevated humidity could affect sensitive steps.", page.RiskInterpretation.Text())
	assert.Equal(t, []string{"Humidity above target", "Particle alert was brief", "No defects seen"}, page.KeyPoints.Items())
	assert.Equal(t, []string{"Log the reading", "Tell the shift lead"}, page.Actions.Items())
	assert.True(t, page.QuestionsSection.Visible())
	assert.Equal(t, []string{"How long was humidity high?", "Which tools are in Zone C?"}, page.Questions.Items())
	assert.Equal(t, insight.Disclaimer, page.Disclaimer.Text())

	assert.True(t, page.ResultPanel.Visible())
	assert.False(t, page.ErrorPanel.Visible())
	assert.False(t, page.Loading.Visible())

	scroller := page.Scroller.(*MemoryScroller)
	assert.Same(t, page.ResultPanel, scroller.Target)
	assert.Equal(t, RevealScroll, scroller.Behavior)
	assert.Equal(t, StateSuccess, ctrl.Cycle().Outcome())
}

func TestSubmitFailureRendersServerMessage(t *testing.T) {
	page := NewMemoryPage()
	fetcher := &fakeFetcher{err: &client.TransportError{StatusCode: 400, Message: "X"}}
	ctrl := NewController(page, fetcher)
	ctrl.Edit(sampleObservation)

	err := ctrl.Submit(context.Background())
	require.Error(t, err)

	assert.Equal(t, "X", page.ErrorMessage.Text())
	assert.True(t, page.ErrorPanel.Visible())
	assert.False(t, page.ResultPanel.Visible())
	assert.False(t, page.Loading.Visible())
	assert.Same(t, page.ErrorPanel, page.Scroller.(*MemoryScroller).Target)
	assert.Equal(t, StateFailure, ctrl.Cycle().Outcome())
}

func TestSubmitFailureUsesGenericFallback(t *testing.T) {
	page := NewMemoryPage()
	ctrl := NewController(page, &fakeFetcher{err: errors.New("socket closed")})
	ctrl.Edit(sampleObservation)

	require.Error(t, ctrl.Submit(context.Background()))
	assert.Equal(t, client.GenericErrorMessage, page.ErrorMessage.Text())
}

func TestSubmittingSideEffects(t *testing.T) {
	page := NewMemoryPage()
	page.ResultPanel.Show()
	page.ErrorPanel.Show()

	fetcher := &fakeFetcher{resp: fullResponse()}
	fetcher.during = func() {
		assert.False(t, page.ResultPanel.Visible())
		assert.False(t, page.ErrorPanel.Visible())
		assert.True(t, page.Loading.Visible())
		assert.False(t, page.Submit.Enabled())
		assert.Equal(t, BusyLabel, page.Submit.Label())
	}
	ctrl := NewController(page, fetcher)
	ctrl.Edit(sampleObservation)

	require.NoError(t, ctrl.Submit(context.Background()))
	assert.True(t, page.Submit.Enabled())
	assert.Equal(t, SubmitLabel, page.Submit.Label())
	assert.Equal(t, StateIdle, ctrl.Cycle().State())
}

func TestSubmitRejectedWhileOutstanding(t *testing.T) {
	page := NewMemoryPage()
	fetcher := &fakeFetcher{resp: fullResponse()}
	ctrl := NewController(page, fetcher)
	ctrl.Edit(sampleObservation)

	var nested error
	fetcher.during = func() {
		// Programmatic submit that bypasses the disabled button.
		page.Submit.SetEnabled(true)
		nested = ctrl.Submit(context.Background())
	}

	require.NoError(t, ctrl.Submit(context.Background()))
	assert.ErrorIs(t, nested, ErrBusy)
	assert.Len(t, fetcher.requests, 1)
}

func TestResubmitLeavesNoResidue(t *testing.T) {
	page := NewMemoryPage()
	fetcher := &fakeFetcher{resp: fullResponse()}
	ctrl := NewController(page, fetcher)
	ctrl.Edit(sampleObservation)
	require.NoError(t, ctrl.Submit(context.Background()))
	require.True(t, page.QuestionsSection.Visible())

	fetcher.resp = &insight.Response{
		RiskLevel:          insight.RiskLow,
		RiskInterpretation: "Routine.",
		KeyPoints:          []string{"Only one"},
		Actions:            []string{},
		Disclaimer:         insight.Disclaimer,
	}
	fetcher.during = func() {
		assert.True(t, page.Loading.Visible())
		assert.False(t, page.ResultPanel.Visible())
	}
	require.NoError(t, ctrl.Submit(context.Background()))

	assert.Len(t, fetcher.requests, 2)
	assert.Equal(t, "LOW", page.RiskBadge.Text())
	assert.Equal(t, []string{"Only one"}, page.KeyPoints.Items())
	assert.Empty(t, page.Actions.Items())
	assert.Empty(t, page.Questions.Items())
	assert.False(t, page.QuestionsSection.Visible())
}

func TestPrepareFinishSplit(t *testing.T) {
	page := NewMemoryPage()
	ctrl := NewController(page, nil)
	ctrl.Edit(sampleObservation)

	req, err := ctrl.Prepare()
	require.NoError(t, err)
	assert.Equal(t, sampleObservation, req.ObservationText)
	assert.Equal(t, StateSubmitting, ctrl.Cycle().State())

	_, err = ctrl.Prepare()
	assert.ErrorIs(t, err, ErrBusy)

	assert.Equal(t, StateSuccess, ctrl.Finish(fullResponse(), nil))
	assert.Equal(t, StateIdle, ctrl.Cycle().State())

	// Finish without an outstanding request is a no-op.
	assert.Equal(t, StateIdle, ctrl.Finish(nil, errors.New("late")))
	assert.False(t, page.ErrorPanel.Visible())
}

func TestSubmitWithoutFetcherFails(t *testing.T) {
	page := NewMemoryPage()
	ctrl := NewController(page, nil)
	ctrl.Edit(sampleObservation)

	require.Error(t, ctrl.Submit(context.Background()))
	assert.True(t, page.ErrorPanel.Visible())
	assert.Equal(t, StateIdle, ctrl.Cycle().State())
}
