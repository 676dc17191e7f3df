package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/websentry/websentry/internal/analyzer"
	"github.com/websentry/websentry/internal/config"
	"github.com/websentry/websentry/internal/engine"
	"github.com/websentry/websentry/internal/log"
	"github.com/websentry/websentry/internal/model"
	"github.com/websentry/websentry/internal/report"
	"github.com/websentry/websentry/internal/store"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [url-or-domain]...",
		Short: "Scan websites for security posture",
		Long: `Scan runs the full analyzer pipeline against one or more targets and
reports a weighted risk score with prioritized recommendations.

Each target is analyzed across six dimensions:
- SSL/TLS configuration (protocols, certificate health, ciphers)
- Security response headers (CSP, HSTS, frame and content-type protections)
- Technology stack fingerprinting (frameworks, servers, outdated components)
- Malware and phishing reputation
- Open port exposure
- Domain registration health (age, expiry, transfer locks)

Examples:
  # Scan a single site
  websentry scan example.com

  # Scan multiple sites concurrently
  websentry scan shop.example.com mail.example.com legacy.example.org

  # Output a Markdown report to a file
  websentry scan --markdown -o report.md example.com

  # Keep scan history in a SQLite database
  websentry scan --db ~/.local/share/websentry/websentry.db example.com

Configuration file (.websentry) example:
  sites:
    demo.example.com:
      sslTier: poor
      portProfile: development`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Pipeline flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultStepTimeout,
		"Timeout for each analyzer step")
	cmd.Flags().Duration("step-delay", config.DefaultStepDelay,
		"Pause between pipeline steps")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent scans")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .websentry in current or home directory)")

	// Storage flags
	cmd.Flags().String("db", "",
		"SQLite database path for scan history (default: in-memory only)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runScan(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error

	cfg.StepTimeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.StepDelay, err = cmd.Flags().GetDuration("step-delay")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load per-domain overrides from the config file.
	// If the user explicitly specified a config file path, error if not
	// found. If no path was specified, silently use empty overrides.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	switch {
	case configPath != "":
		cfg.SiteOverrides, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case explicitConfigPath:
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	default:
		cfg.SiteOverrides = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.DBPath, err = cmd.Flags().GetString("db")
	if err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.Targets = args

	return cfg, nil
}

// openStore opens the scan store configured by cfg: SQLite when a
// database path is set, otherwise in-memory.
func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.DBPath == "" {
		return store.NewMemoryStore(), nil
	}
	return store.OpenSQLite(cfg.DBPath)
}

// buildAnalyzers assembles the analyzer pipeline, applying per-domain
// overrides from the config file to the pluggable classifiers.
func buildAnalyzers(cfg *config.Config) []analyzer.Analyzer {
	overrides := cfg.SiteOverrides
	if overrides == nil || (len(overrides.Sites) == 0 && overrides.Defaults == (config.SiteConfig{})) {
		return analyzer.DefaultAnalyzers()
	}

	sslClassifier := func(domain string, seed uint64) analyzer.SSLTier {
		if tier, ok := analyzer.ParseSSLTier(overrides.GetSiteConfig(domain).SSLTier); ok {
			return tier
		}
		return analyzer.DefaultSSLTier(domain, seed)
	}
	portClassifier := func(domain string, seed uint64) analyzer.PortArchetype {
		if archetype, ok := analyzer.ParsePortArchetype(overrides.GetSiteConfig(domain).PortProfile); ok {
			return archetype
		}
		return analyzer.DefaultPortArchetype(domain, seed)
	}

	return []analyzer.Analyzer{
		analyzer.NewSSLAnalyzer(analyzer.WithSSLTierClassifier(sslClassifier)),
		analyzer.NewHeadersAnalyzer(),
		analyzer.NewTechAnalyzer(),
		analyzer.NewMalwareAnalyzer(),
		analyzer.NewPortsAnalyzer(analyzer.WithPortClassifier(portClassifier)),
		analyzer.NewWhoisAnalyzer(),
	}
}

// runScan executes the scan for all configured targets.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open scan store: %w", err)
	}
	defer func() { _ = st.Close() }()

	eng := engine.New(st,
		engine.WithLogger(logger),
		engine.WithAnalyzers(buildAnalyzers(cfg)),
		engine.WithStepTimeout(cfg.StepTimeout),
		engine.WithStepDelay(cfg.StepDelay),
	)

	logger.Info("starting scan",
		"targets", cfg.Targets,
		"batch_size", cfg.BatchSize,
		"db", cfg.DBPath,
	)

	if len(cfg.Targets) > 1 && cfg.BatchSize > 1 {
		return runBatchScan(ctx, cfg, eng, logger)
	}
	return runSequentialScan(ctx, cfg, eng, logger)
}

// runSequentialScan scans targets one at a time.
func runSequentialScan(ctx context.Context, cfg *config.Config, eng *engine.Engine, logger *slog.Logger) error {
	for _, target := range cfg.Targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Printf("Scanning %s...\n", target)
		startTime := time.Now()

		record, err := eng.NewScan(ctx, target)
		if err != nil {
			logger.Error("scan failed", "target", target, "error", err)
			fmt.Fprintf(os.Stderr, "Scan error for %s: %v\n", target, err)
			continue
		}

		if err := eng.RunScan(ctx, record.ID); err != nil {
			logger.Error("scan failed", "target", target, "error", err)
			fmt.Fprintf(os.Stderr, "Scan error for %s: %v\n", target, err)
			continue
		}

		elapsed := time.Since(startTime)
		fmt.Printf("Scan completed in %s\n\n", elapsed.Round(time.Millisecond))

		final, err := eng.Scan(ctx, record.ID)
		if err != nil {
			logger.Error("failed to load finished scan", "scan_id", record.ID, "error", err)
			continue
		}
		if err := outputReport(cfg, final); err != nil {
			logger.Error("report failed", "target", target, "error", err)
		}
	}

	return nil
}

// runBatchScan scans multiple targets concurrently.
func runBatchScan(ctx context.Context, cfg *config.Config, eng *engine.Engine, logger *slog.Logger) error {
	fmt.Printf("Starting batch scan of %d targets (concurrency: %d)...\n\n",
		len(cfg.Targets), cfg.BatchSize)

	startTime := time.Now()

	batch := engine.NewBatch(eng,
		engine.WithBatchConcurrency(cfg.BatchSize),
		engine.WithBatchLogger(logger),
	)

	records, err := batch.Run(ctx, cfg.Targets)
	if err != nil {
		return err
	}

	for i, record := range records {
		if record == nil {
			fmt.Fprintf(os.Stderr, "[%d/%d] Scan failed: %s\n", i+1, len(records), cfg.Targets[i])
			continue
		}
		fmt.Printf("[%d/%d] Scan completed: %s\n", i+1, len(records), record.Domain)
		if err := outputReport(cfg, record); err != nil {
			logger.Error("report failed", "target", record.Domain, "error", err)
		}
	}

	fmt.Printf("\nBatch scan completed in %s\n", time.Since(startTime).Round(time.Millisecond))
	return nil
}

// outputReport outputs the scan report in the requested format.
func outputReport(cfg *config.Config, record *model.ScanRecord) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports describe a target's weaknesses, so keep them
		// owner-readable only.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := writer.Write(record)
	return err
}
