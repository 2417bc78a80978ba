package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pable/cs-coach/internal/faceit"
	"github.com/pable/cs-coach/internal/log"
	"github.com/pable/cs-coach/internal/storage"
)

// fetch command flags.
var (
	// fetchPlayer is the FACEIT nickname or Steam ID64 of the target player.
	fetchPlayer string
	// fetchMap restricts ingestion to demos on this map (e.g. "de_mirage").
	fetchMap string
	// fetchLevel restricts ingestion to matches at this FACEIT skill level (1-10).
	fetchLevel int
	// fetchCount is the number of matches to ingest.
	fetchCount int
)

// fetchCmd is the cobra command for downloading and ingesting FACEIT demos.
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download, rate and store a player's recent FACEIT demos",
	Long: `Fetches recent matches for a FACEIT player, downloads their demos,
parses and rates them, and stores the results and training records.

Examples:
  cscoach fetch --player <nickname> --count 10
  cscoach fetch --player <steamid64> --level 5 --map de_mirage --count 10`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchPlayer, "player", "", "FACEIT nickname or Steam ID64 (required)")
	fetchCmd.Flags().StringVar(&fetchMap, "map", "", "only ingest matches on this map (e.g. de_mirage)")
	fetchCmd.Flags().IntVar(&fetchLevel, "level", 0, "only ingest matches at this FACEIT skill level (1-10)")
	fetchCmd.Flags().IntVar(&fetchCount, "count", 5, "number of matches to ingest")
	_ = fetchCmd.MarkFlagRequired("player")
}

func runFetch(cmd *cobra.Command, args []string) error {
	client, err := faceit.NewClient(cfg.Faceit.APIKey, "")
	if err != nil {
		return err
	}
	db, err := openDB()
	if err != nil {
		return err
	}
	defer log.Closer(db)

	return doFetch(cmd.Context(), db, client)
}

// doFetch is the download and ingest loop of the fetch command.
func doFetch(ctx context.Context, db *storage.DB, client *faceit.Client) error {
	fp, err := client.LookupPlayer(ctx, fetchPlayer)
	if err != nil {
		return fmt.Errorf("lookup player %q: %w", fetchPlayer, err)
	}
	fmt.Fprintf(os.Stdout, "Player: %s  level=%d  ELO=%d  region=%s\n",
		fp.Nickname, fp.Games.CS2.SkillLevel, fp.Games.CS2.FaceitELO, fp.Games.CS2.Region)

	// Over-fetch history to leave room for map/level filtering.
	history, err := client.GetMatchHistory(ctx, fp.PlayerID, max(50, fetchCount*5))
	if err != nil {
		return fmt.Errorf("match history: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "cscoach-*")
	if err != nil {
		return fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	httpClient := &http.Client{Timeout: 10 * time.Minute}
	ingested := 0
	for _, item := range history {
		if ingested >= fetchCount {
			break
		}
		if !item.Finished() {
			continue
		}

		match, err := client.GetMatch(ctx, item.MatchID)
		if err != nil {
			slog.Warn("Skipping match", slog.String("match", item.MatchID), slog.String("error", err.Error()))
			continue
		}
		if fetchMap != "" && match.MapName() != fetchMap {
			continue
		}
		if fetchLevel > 0 && match.SkillLevel != fetchLevel {
			continue
		}
		if len(match.DemoURLs) == 0 {
			slog.Warn("Skipping match without demo", slog.String("match", item.MatchID))
			continue
		}

		fmt.Fprintf(os.Stdout, "[%d/%d] %s  map=%-15s  level=%d  date=%s\n",
			ingested+1, fetchCount, item.MatchID, match.MapName(), match.SkillLevel, match.MatchDate())

		path, size, err := faceit.Download(ctx, httpClient, match.DemoURLs[0], tmpDir, item.MatchID)
		if err != nil {
			slog.Error("Download failed", slog.String("match", item.MatchID), slog.String("error", err.Error()))
			continue
		}
		fmt.Fprintf(os.Stdout, "  downloaded %s\n", humanize.Bytes(uint64(size)))

		pd, err := parseDemoFile(path)
		os.Remove(path)
		if err != nil {
			slog.Error("Parse failed", slog.String("match", item.MatchID), slog.String("error", err.Error()))
			continue
		}
		pd.PlayedAt = time.Unix(match.StartedAt, 0).UTC()

		res, stored, err := ingest(db, pd, "FACEIT")
		if err != nil {
			return err
		}
		if stored {
			fmt.Fprintf(os.Stdout, "  stored: %d players, %d rounds\n", len(res.Players), res.Summary.Rounds)
		} else {
			fmt.Fprintln(os.Stdout, "  already stored")
		}
		ingested++
	}

	fmt.Fprintf(os.Stdout, "\nDone: %d/%d matches ingested\n", ingested, fetchCount)
	return nil
}
