package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/cs-coach/internal/config"
	"github.com/pable/cs-coach/internal/log"
)

var (
	configPath string
	dbPath     string
	logLevel   string
	logFile    string

	cfg       config.Config
	logCloser = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "cscoach",
	Short: "CS2 demo rating and coaching tool",
	Long: `Parse CS2 .dem files, correlate match events into trades, clutches and
flash assists, rate every player on a 0-100 scale and coach them on the result.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) { logCloser() },
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.cscoach/cscoach.yaml or ./cscoach.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to SQLite database (default ~/.cscoach/cscoach.db)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this file")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(roundsCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(summaryCmd)
}

// setup loads configuration, applies flag overrides and installs the logger.
func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = loaded

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DBPath = dbPath
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = log.Level(logLevel)
	}
	if flags.Changed("log-file") {
		cfg.Log.File = logFile
	}
	dbPath = cfg.DBPath

	logCloser = log.MustCreateLogger(cfg.Log.File, cfg.Log.Level)
	return nil
}
