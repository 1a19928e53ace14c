package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/kholcomb/fredsync/internal/config"
	"github.com/kholcomb/fredsync/internal/database"
	"github.com/kholcomb/fredsync/internal/extract"
	"github.com/kholcomb/fredsync/internal/fred"
	"github.com/kholcomb/fredsync/internal/pipeline"
	"github.com/kholcomb/fredsync/internal/server"
	"github.com/kholcomb/fredsync/internal/transform"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "fredsync",
	Short:   "Incremental FRED data harvester",
	Long:    "fredsync pulls economic series from the FRED API into a local long-format store and denormalizes them into a date-aligned wide table.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(transformCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("fredsync", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/fredsync/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to adjust the series catalog, then set FRED_API_KEY and run 'fredsync setup'.")
		return nil
	},
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the database schema and populate the calendar shell",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		added, err := db.EnsureDateShell(cfg.Calendar.Start, cfg.Calendar.End)
		if err != nil {
			return fmt.Errorf("populating date shell: %w", err)
		}

		fmt.Printf("Database ready: %s\n", db.Path())
		if added > 0 {
			fmt.Printf("Calendar shell: added %d dates (%s..%s)\n", added, cfg.Calendar.Start, cfg.Calendar.End)
		} else {
			fmt.Println("Calendar shell already populated.")
		}
		return nil
	},
}

// --- extract command ---

var extractCmd = &cobra.Command{
	Use:   "extract [series-id...]",
	Short: "Fetch new observations for catalog series (or the given ids)",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		provider, err := newProvider()
		if err != nil {
			return err
		}

		catalog := cfg
		if len(args) > 0 {
			// Ad-hoc catalog from the command line, watermarks still apply.
			override := *cfg
			override.Series = []config.SeriesGroup{{Category: "adhoc", IDs: args}}
			catalog = &override
		}

		extractor := extract.New(catalog, db, provider)
		result := extractor.Run(context.Background())
		printExtractionSummary(result)
		return nil
	},
}

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Rebuild the wide table from the long store",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		summary, err := transform.New(cfg, db).Run()
		if err != nil {
			return err
		}

		fmt.Printf("Wide table updated: %d rows, %d columns (%d new)\n",
			summary.Rows, summary.Columns, summary.NewColumns)
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: extract -> transform",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		provider, err := newProvider()
		if err != nil {
			return err
		}

		result := pipeline.New(cfg, db, provider).Run(context.Background())
		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/%d: %s\n", i+1, len(result.Steps), step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}
		return nil
	},
}

// --- search command ---

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "Search FRED for series matching a text query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := newProvider()
		if err != nil {
			return err
		}

		query := ""
		for i, a := range args {
			if i > 0 {
				query += " "
			}
			query += a
		}

		results, err := provider.Search(context.Background(), query, searchLimit)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println("No series found.")
			return nil
		}

		for _, s := range results {
			fmt.Printf("  %-20s %s (%s, %s)\n", s.ID, s.Title, s.Frequency, s.Units)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "Maximum results")
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and extraction status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.Stats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Database: %s\n\n", db.Path())
		fmt.Println("Long store:")
		fmt.Printf("  Series: %d\n", stats.SeriesCount)
		fmt.Printf("  Observations: %d\n", stats.ObservationCount)
		if stats.FirstObservation != "" {
			fmt.Printf("  Date range: %s .. %s\n", stats.FirstObservation, stats.LastObservation)
		}
		fmt.Println("\nWide store:")
		fmt.Printf("  Rows: %d\n", stats.WideRowCount)
		fmt.Println("\nExtraction log:")
		fmt.Printf("  Successes: %d\n", stats.LogSuccesses)
		fmt.Printf("  Errors: %d\n", stats.LogErrors)

		recent, err := db.RecentExtractions(5)
		if err != nil {
			return err
		}
		if len(recent) > 0 {
			fmt.Println("\nRecent extractions:")
			for _, e := range recent {
				fmt.Printf("  %s  %-10s %-8s %s\n", e.ExtractedAt, e.SeriesID, e.Status, e.Message)
			}
		}
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local status server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		fmt.Printf("Starting status server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

func printExtractionSummary(result *extract.Result) {
	fmt.Println("\nExtraction complete:")
	fmt.Printf("  Series extracted: %d/%d\n", result.Succeeded(), len(result.Series))
	fmt.Printf("  Observations fetched: %d\n", result.Records())

	failed := false
	for _, s := range result.Series {
		if s.Err != nil {
			if !failed {
				fmt.Println("\nFailed series:")
				failed = true
			}
			fmt.Printf("  %s (%s): %v\n", s.SeriesID, s.Category, s.Err)
		}
	}
}

func newProvider() (*fred.Client, error) {
	key, err := cfg.APIKey()
	if err != nil {
		return nil, err
	}
	return fred.NewClient(
		key,
		cfg.API.BaseURL,
		time.Duration(cfg.API.TimeoutSeconds)*time.Second,
		time.Duration(cfg.API.RateLimitMS)*time.Millisecond,
	), nil
}

func openDB() (*database.DB, error) {
	return database.Open(cfg.DatabasePath())
}
