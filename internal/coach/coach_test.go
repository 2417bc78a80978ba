package coach

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/require"

	"github.com/pable/cs-coach/internal/predict"
	"github.com/pable/cs-coach/internal/rating"
)

func TestInsightsRules(t *testing.T) {
	weak := predict.Features{HeadshotPercentage: 12, KillsPerRound: 0.3, AccuracyScore: 10}
	require.Equal(t, []string{insightAim, insightPositioning, insightSpray, insightNoModel}, Insights(weak, false))

	strong := predict.Features{HeadshotPercentage: 55, KillsPerRound: 0.9, AccuracyScore: 30}
	require.Empty(t, Insights(strong, true))
	require.Equal(t, []string{insightNoModel}, Insights(strong, false))

	// Thresholds are strict.
	edge := predict.Features{HeadshotPercentage: 30, KillsPerRound: 0.5, AccuracyScore: 20}
	require.Empty(t, Insights(edge, true))
}

func sampleBreakdown() rating.Breakdown {
	return rating.Breakdown{
		Combat: 20.123, Impact: 10, Utility: 5, Economy: 7.5, Total: 42.623,
		Metrics: map[string]float64{
			rating.KillsPerRound:    0.75,
			rating.DeathsPerRound:   0.6,
			rating.HeadshotFraction: 0.25,
			rating.AverageAccuracy:  0.18,
			rating.UtilityScore:     5,
		},
	}
}

func TestNewAnalysisFallsBackToRating(t *testing.T) {
	a := NewAnalysis("alpha", "de_mirage", sampleBreakdown(), nil)
	require.False(t, a.ModelUsed)
	require.Equal(t, 42.623, a.PredictedScore)
	require.InDelta(t, 25.0, a.Features.HeadshotPercentage, 1e-9)
	require.Contains(t, a.Insights, insightAim)
	require.Contains(t, a.Insights, insightSpray)
	require.Contains(t, a.Insights, insightNoModel)
	require.NotContains(t, a.Insights, insightPositioning)
}

func TestPromptCarriesData(t *testing.T) {
	a := NewAnalysis("alpha", "de_mirage", sampleBreakdown(), nil)
	p, err := Prompt(a)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(p, "DATA:\n"))

	body := strings.TrimPrefix(p, "DATA:\n")
	body = body[:strings.Index(body, "\n\nQUESTION:")]
	var data promptData
	require.NoError(t, json.Unmarshal([]byte(body), &data))
	require.Equal(t, "alpha", data.Player)
	require.Equal(t, 42.62, data.Rating)
	require.Equal(t, 20.12, data.Scores["combat"])
	require.Len(t, data.Insights, 3)
}

type fakeGenerator struct {
	text   string
	err    error
	system string
	user   string
}

func (f *fakeGenerator) Generate(_ context.Context, system, user string, w io.Writer) error {
	f.system, f.user = system, user
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(w, f.text)
	return err
}

func TestAdviseRendersMarkdown(t *testing.T) {
	gen := &fakeGenerator{text: "## Strengths\n\nGood opening duels.\n"}
	c := New(gen, "notty", 80)

	var out bytes.Buffer
	require.NoError(t, c.Advise(context.Background(), NewAnalysis("alpha", "de_mirage", sampleBreakdown(), nil), &out))
	require.Contains(t, out.String(), "Strengths")
	require.Contains(t, out.String(), "Good opening duels.")
	require.Equal(t, systemPrompt, gen.system)
	require.Contains(t, gen.user, `"player": "alpha"`)
}

func TestAdvisePropagatesGeneratorError(t *testing.T) {
	boom := errors.New("boom")
	c := New(&fakeGenerator{err: boom}, "notty", 80)
	err := c.Advise(context.Background(), NewAnalysis("alpha", "", sampleBreakdown(), nil), io.Discard)
	require.ErrorIs(t, err, boom)
}

func TestNewAnthropicRequiresKey(t *testing.T) {
	_, err := NewAnthropic("", "")
	require.ErrorIs(t, err, ErrNoAPIKey)
}

func sse(w io.Writer, event, data string) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}

func TestAnthropicStreamsTextDeltas(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/messages", r.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream")
		sse(w, "message_start", `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","model":"m","content":[],"stop_reason":null,"usage":{"input_tokens":1,"output_tokens":0}}}`)
		sse(w, "content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`)
		sse(w, "content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hold "}}`)
		sse(w, "content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"angles."}}`)
		sse(w, "content_block_stop", `{"type":"content_block_stop","index":0}`)
		sse(w, "message_stop", `{"type":"message_stop"}`)
	}))
	defer srv.Close()

	gen, err := NewAnthropic("test-key", "", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, gen.Generate(context.Background(), "sys", "user", &out))
	require.Equal(t, "Hold angles.", out.String())
}

func TestAnthropicAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`)
	}))
	defer srv.Close()

	gen, err := NewAnthropic("bad-key", "", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	require.NoError(t, err)
	err = gen.Generate(context.Background(), "sys", "user", io.Discard)
	require.Error(t, err)
	require.Contains(t, err.Error(), "authentication failed")
}
