package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pable/cs-coach/internal/aggregator"
	"github.com/pable/cs-coach/internal/demo"
	"github.com/pable/cs-coach/internal/log"
	"github.com/pable/cs-coach/internal/model"
	"github.com/pable/cs-coach/internal/parser"
	"github.com/pable/cs-coach/internal/rating"
	"github.com/pable/cs-coach/internal/storage"
)

// parsedDemo is one demo decoded into a finalized ledger.
type parsedDemo struct {
	Path     string
	Hash     string
	PlayedAt time.Time
	Ledger   *model.MatchLedger
	Err      error
}

// openDB opens the configured database, creating its directory first.
func openDB() (*storage.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}

func newEngine() *rating.Engine {
	return rating.New(cfg.RatingOptions())
}

// collectDemos expands args into demo file paths. Directories contribute their
// demo files, descending into subdirectories only when recursive is set.
func collectDemos(args []string, recursive bool) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			out = append(out, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && !recursive {
					return filepath.SkipDir
				}
				return nil
			}
			if demo.IsDemo(path) {
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, err)
		}
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// parseDemoFile runs one demo through its own parse session.
func parseDemoFile(path string) (*parsedDemo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat demo: %w", err)
	}
	stream, err := demo.Open(path)
	if err != nil {
		return nil, err
	}
	defer log.Closer(stream)

	logger := slog.Default().With(slog.String("demo", filepath.Base(path)))
	m, err := parser.NewSession(logger).Run(stream)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	logger.Info("Parsed demo",
		slog.String("map", m.MapName),
		slog.Int("events", len(m.Events)),
		slog.Int("players", len(m.Players)))
	return &parsedDemo{Path: path, Hash: stream.Hash, PlayedAt: info.ModTime(), Ledger: m}, nil
}

// parseAll parses paths concurrently with at most jobs sessions in flight.
// Per-demo failures are reported in the result, not returned.
func parseAll(ctx context.Context, paths []string, jobs int) []*parsedDemo {
	out := make([]*parsedDemo, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, jobs))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				out[i] = &parsedDemo{Path: path, Err: err}
				return nil
			}
			pd, err := parseDemoFile(path)
			if err != nil {
				pd = &parsedDemo{Path: path, Err: err}
			}
			out[i] = pd
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// ingest rates and stores a parsed demo unless it is already stored. The
// bool reports whether anything was written.
func ingest(db *storage.DB, pd *parsedDemo, matchType string) (*aggregator.Result, bool, error) {
	exists, err := db.DemoExists(pd.Hash)
	if err != nil {
		return nil, false, fmt.Errorf("check demo: %w", err)
	}
	res, err := aggregator.Aggregate(pd.Hash, matchType, pd.Ledger, newEngine(), pd.PlayedAt)
	if err != nil {
		return nil, false, fmt.Errorf("aggregate: %w", err)
	}
	if exists {
		return res, false, nil
	}
	if err := db.SaveResult(res); err != nil {
		return nil, false, err
	}
	return res, true, nil
}

// resolvePlayer finds a player of m by SteamID64, stable id or display name.
func resolvePlayer(m *model.MatchLedger, query string) (model.PlayerID, error) {
	if query == "" {
		return 0, nil
	}
	if v, err := strconv.ParseUint(query, 10, 64); err == nil {
		if _, ok := m.Player(model.PlayerID(v)); ok {
			return model.PlayerID(v), nil
		}
	}
	if rec, ok := m.FindPlayerByName(query); ok {
		return rec.StableID, nil
	}
	return 0, fmt.Errorf("%w: %q", rating.ErrPlayerNotFound, query)
}

// parsePlayerID parses a stored player id argument.
func parsePlayerID(s string) (model.PlayerID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid player id %q: %w", s, err)
	}
	return model.PlayerID(v), nil
}
