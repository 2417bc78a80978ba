// Package coach turns a rated match line into coaching feedback: a few
// rule-based insights plus prose generated by an LLM and rendered as markdown.
package coach

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/pable/cs-coach/internal/predict"
	"github.com/pable/cs-coach/internal/rating"
)

// ErrNoAPIKey is returned when no Anthropic API key was configured.
var ErrNoAPIKey = errors.New("no API key: set CSCOACH_COACH_API_KEY, ANTHROPIC_API_KEY or use --api-key")

const (
	insightAim         = "Focus on crosshair placement and aim training"
	insightPositioning = "Work on positioning and trade opportunities"
	insightSpray       = "Practice spray control and burst firing"
	insightNoModel     = "Note: Analysis is based on basic statistics as no ML model is trained yet"
)

// Insights returns the rule-based observations for a feature vector.
func Insights(f predict.Features, modelTrained bool) []string {
	var out []string
	if f.HeadshotPercentage < 30 {
		out = append(out, insightAim)
	}
	if f.KillsPerRound < 0.5 {
		out = append(out, insightPositioning)
	}
	if f.AccuracyScore < 20 {
		out = append(out, insightSpray)
	}
	if !modelTrained {
		out = append(out, insightNoModel)
	}
	return out
}

// Analysis is everything the coach knows about one player's match.
type Analysis struct {
	PlayerName     string
	MapName        string
	Rating         float64
	PredictedScore float64
	ModelUsed      bool
	Breakdown      rating.Breakdown
	Features       predict.Features
	Insights       []string
}

// NewAnalysis scores f with m (falling back to the base rating) and attaches insights.
func NewAnalysis(player, mapName string, b rating.Breakdown, m *predict.Model) Analysis {
	f := predict.FromMetrics(b.Metrics, mapName)
	predicted, used := predict.Estimate(m, f, b.Total)
	return Analysis{
		PlayerName:     player,
		MapName:        mapName,
		Rating:         b.Total,
		PredictedScore: predicted,
		ModelUsed:      used,
		Breakdown:      b,
		Features:       f,
		Insights:       Insights(f, used),
	}
}

const systemPrompt = `You are a Counter-Strike 2 coach. You receive one player's statistics for a
single match as JSON under DATA. Ground every statement in those numbers.

Definitions:
- rating: 0-100 composite of combat (40), impact (25), utility (20) and economy (15) points.
- predicted_score: the rating a model trained on the player's history expects for this line.
- trade_effectiveness: traded deaths plus trade kills per death.
- insights: rule-based observations; expand on them.

Answer in markdown with three short sections: Strengths, Weaknesses, Drills.`

type promptData struct {
	Player         string             `json:"player"`
	Map            string             `json:"map"`
	Rating         float64            `json:"rating"`
	PredictedScore float64            `json:"predicted_score"`
	ModelUsed      bool               `json:"model_used"`
	Scores         map[string]float64 `json:"scores"`
	Metrics        map[string]float64 `json:"metrics"`
	Insights       []string           `json:"insights"`
}

// Prompt builds the user message sent to the model.
func Prompt(a Analysis) (string, error) {
	metrics := make(map[string]float64, len(a.Breakdown.Metrics))
	for k, v := range a.Breakdown.Metrics {
		metrics[k] = round2(v)
	}
	data, err := json.MarshalIndent(promptData{
		Player:         a.PlayerName,
		Map:            a.MapName,
		Rating:         round2(a.Rating),
		PredictedScore: round2(a.PredictedScore),
		ModelUsed:      a.ModelUsed,
		Scores: map[string]float64{
			"combat":  round2(a.Breakdown.Combat),
			"impact":  round2(a.Breakdown.Impact),
			"utility": round2(a.Breakdown.Utility),
			"economy": round2(a.Breakdown.Economy),
		},
		Metrics:  metrics,
		Insights: a.Insights,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode prompt data: %w", err)
	}
	return fmt.Sprintf("DATA:\n%s\n\nQUESTION: How did %s play and what should they practice?", data, a.PlayerName), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Generator streams generated text for a system and user prompt into w.
type Generator interface {
	Generate(ctx context.Context, system, user string, w io.Writer) error
}

// Coach renders coaching feedback through a Generator.
type Coach struct {
	gen   Generator
	style string
	width int
}

// New returns a Coach. style is a glamour standard style name ("auto" picks by terminal).
func New(gen Generator, style string, width int) *Coach {
	if style == "" {
		style = "auto"
	}
	if width <= 0 {
		width = 100
	}
	return &Coach{gen: gen, style: style, width: width}
}

// Advise generates feedback for a and writes it, rendered as markdown, to w.
func (c *Coach) Advise(ctx context.Context, a Analysis, w io.Writer) error {
	user, err := Prompt(a)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := c.gen.Generate(ctx, systemPrompt, user, &buf); err != nil {
		return err
	}
	out, err := c.Render(buf.String())
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// Render formats markdown for the terminal.
func (c *Coach) Render(md string) (string, error) {
	opt := glamour.WithStandardStyle(c.style)
	if c.style == "auto" {
		opt = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(opt, glamour.WithWordWrap(c.width))
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return strings.TrimRight(out, "\n") + "\n", nil
}
