package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/cs-coach/internal/coach"
	"github.com/pable/cs-coach/internal/log"
	"github.com/pable/cs-coach/internal/predict"
	"github.com/pable/cs-coach/internal/rating"
	"github.com/pable/cs-coach/internal/report"
	"github.com/pable/cs-coach/internal/storage"
)

// predictorName is the key the rating predictor is stored under.
const predictorName = "rating"

var (
	analyzeModel   string
	analyzeAPIKey  string
	analyzeOffline bool
	analyzeNoStore bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <demo.dem> <player>",
	Short: "Rate one player in a demo and coach them (AI prose requires an API key)",
	Long: `Parse a demo, rate the chosen player (SteamID64 or in-game name), predict
their score with the trained model when one exists, list rule-based insights and
stream coaching advice from Anthropic rendered as markdown.`,
	Args: cobra.ExactArgs(2),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeModel, "model", "", "Anthropic model to use (default from config)")
	analyzeCmd.Flags().StringVar(&analyzeAPIKey, "api-key", "", "Anthropic API key (falls back to config and $ANTHROPIC_API_KEY)")
	analyzeCmd.Flags().BoolVar(&analyzeOffline, "offline", false, "skip the AI coaching step")
	analyzeCmd.Flags().BoolVar(&analyzeNoStore, "no-store", false, "do not store the parsed demo")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	pd, err := parseDemoFile(args[0])
	if err != nil {
		return err
	}
	id, err := resolvePlayer(pd.Ledger, args[1])
	if err != nil {
		return err
	}
	rec, ok := pd.Ledger.Player(id)
	if !ok {
		return fmt.Errorf("%w: %q", rating.ErrPlayerNotFound, args[1])
	}

	b, err := newEngine().Breakdown(pd.Ledger, id)
	if err != nil {
		return fmt.Errorf("rate player: %w", err)
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer log.Closer(db)

	if !analyzeNoStore {
		if _, _, err := ingest(db, pd, "Competitive"); err != nil {
			return fmt.Errorf("store demo: %w", err)
		}
	}
	m, err := loadPredictor(db)
	if err != nil {
		return err
	}

	a := coach.NewAnalysis(rec.DisplayName, pd.Ledger.MapName, b, m)
	report.PrintRatingBreakdown(os.Stdout, rec.DisplayName, b)
	report.PrintAnalysis(os.Stdout, a)

	if analyzeOffline {
		return nil
	}

	apiKey := analyzeAPIKey
	if apiKey == "" {
		apiKey = cfg.Coach.APIKey
	}
	model := analyzeModel
	if model == "" {
		model = cfg.Coach.Model
	}
	gen, err := coach.NewAnthropic(apiKey, model)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "\n─── AI Coaching ─────────────────────────────────────")
	return coach.New(gen, cfg.Coach.Style, 100).Advise(cmd.Context(), a, os.Stdout)
}

// loadPredictor returns the stored predictor, or nil when none was trained yet.
func loadPredictor(db *storage.DB) (*predict.Model, error) {
	blob, err := db.LoadPredictor(predictorName)
	if errors.Is(err, storage.ErrNoPredictor) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load predictor: %w", err)
	}
	m, err := predict.Unmarshal(blob)
	if err != nil {
		return nil, err
	}
	return m, nil
}
