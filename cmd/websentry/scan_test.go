package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/websentry/websentry/internal/analyzer"
	"github.com/websentry/websentry/internal/config"
	"github.com/websentry/websentry/internal/store"
)

// TestNewScanCmd tests the scan command creation.
func TestNewScanCmd(t *testing.T) {
	t.Parallel()

	cmd := NewScanCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "scan [url-or-domain]..." {
			t.Errorf("expected use 'scan [url-or-domain]...', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has long description", func(t *testing.T) {
		t.Parallel()
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has timeout flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("timeout")
		if flag == nil {
			t.Fatal("expected timeout flag")
		}
		if flag.Shorthand != "t" {
			t.Errorf("expected shorthand 't', got %q", flag.Shorthand)
		}
	})

	t.Run("has step-delay flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("step-delay")
		if flag == nil {
			t.Fatal("expected step-delay flag")
		}
	})

	t.Run("has batch flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("batch")
		if flag == nil {
			t.Fatal("expected batch flag")
		}
		if flag.Shorthand != "b" {
			t.Errorf("expected shorthand 'b', got %q", flag.Shorthand)
		}
	})

	t.Run("has config flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("config")
		if flag == nil {
			t.Fatal("expected config flag")
		}
		if flag.Shorthand != "c" {
			t.Errorf("expected shorthand 'c', got %q", flag.Shorthand)
		}
	})

	t.Run("has db flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("db")
		if flag == nil {
			t.Fatal("expected db flag")
		}
	})

	t.Run("has json flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("json")
		if flag == nil {
			t.Fatal("expected json flag")
		}
		if flag.Shorthand != "j" {
			t.Errorf("expected shorthand 'j', got %q", flag.Shorthand)
		}
	})

	t.Run("has markdown flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("markdown")
		if flag == nil {
			t.Fatal("expected markdown flag")
		}
		if flag.Shorthand != "m" {
			t.Errorf("expected shorthand 'm', got %q", flag.Shorthand)
		}
	})

	t.Run("has output flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("output")
		if flag == nil {
			t.Fatal("expected output flag")
		}
		if flag.Shorthand != "o" {
			t.Errorf("expected shorthand 'o', got %q", flag.Shorthand)
		}
	})
}

// TestGetVerboseFlag tests the verbose flag retrieval.
func TestGetVerboseFlag(t *testing.T) {
	t.Run("returns false when flag not set", func(t *testing.T) {
		cmd := NewScanCmd()
		result := getVerboseFlag(cmd)
		if result {
			t.Error("expected false when flag not set")
		}
	})

	t.Run("returns value from parent verbose flag", func(t *testing.T) {
		root := NewRootCmd()
		// Set verbose flag to true
		_ = root.PersistentFlags().Set("verbose", "true")

		// Get scan subcommand
		scanCmd, _, err := root.Find([]string{"scan"})
		if err != nil {
			t.Fatalf("failed to find scan command: %v", err)
		}

		result := getVerboseFlag(scanCmd)
		if !result {
			t.Error("expected true from parent verbose flag")
		}
	})
}

// TestBuildConfig tests configuration building from flags.
func TestBuildConfig(t *testing.T) {
	t.Run("builds config with default values", func(t *testing.T) {
		cmd := NewScanCmd()
		cfg, err := buildConfig(cmd, []string{"example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg == nil {
			t.Fatal("expected non-nil config")
		}
		if len(cfg.Targets) != 1 || cfg.Targets[0] != "example.com" {
			t.Errorf("expected targets [example.com], got %v", cfg.Targets)
		}
		if cfg.StepTimeout != config.DefaultStepTimeout {
			t.Errorf("expected default StepTimeout, got %v", cfg.StepTimeout)
		}
		if cfg.BatchSize != config.DefaultBatchSize {
			t.Errorf("expected default BatchSize, got %d", cfg.BatchSize)
		}
	})

	t.Run("builds config with custom timeout", func(t *testing.T) {
		cmd := NewScanCmd()
		_ = cmd.Flags().Set("timeout", "45s")
		cfg, err := buildConfig(cmd, []string{"example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.StepTimeout != 45*time.Second {
			t.Errorf("expected StepTimeout 45s, got %v", cfg.StepTimeout)
		}
	})

	t.Run("builds config with custom batch size", func(t *testing.T) {
		cmd := NewScanCmd()
		_ = cmd.Flags().Set("batch", "5")
		cfg, err := buildConfig(cmd, []string{"example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.BatchSize != 5 {
			t.Errorf("expected BatchSize 5, got %d", cfg.BatchSize)
		}
	})

	t.Run("builds config with JSON flag", func(t *testing.T) {
		cmd := NewScanCmd()
		_ = cmd.Flags().Set("json", "true")
		cfg, err := buildConfig(cmd, []string{"example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !cfg.JSONReport {
			t.Error("expected JSONReport to be true")
		}
	})

	t.Run("builds config with multiple targets", func(t *testing.T) {
		cmd := NewScanCmd()
		cfg, err := buildConfig(cmd, []string{"a.example.com", "b.example.com", "c.example.org"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(cfg.Targets) != 3 {
			t.Errorf("expected 3 targets, got %d", len(cfg.Targets))
		}
	})

	t.Run("builds config with valid config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "websentry.yaml")

		content := []byte(`
defaults:
  sslTier: average
sites:
  demo.example.com:
    sslTier: poor
    portProfile: development
`)
		if err := os.WriteFile(configPath, content, 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cmd := NewScanCmd()
		_ = cmd.Flags().Set("config", configPath)
		cfg, err := buildConfig(cmd, []string{"demo.example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.SiteOverrides == nil {
			t.Fatal("expected SiteOverrides to be loaded")
		}
		if cfg.SiteOverrides.Defaults.SSLTier != "average" {
			t.Errorf("expected default sslTier 'average', got %q", cfg.SiteOverrides.Defaults.SSLTier)
		}
		site := cfg.SiteOverrides.GetSiteConfig("demo.example.com")
		if site.PortProfile != "development" {
			t.Errorf("expected portProfile 'development', got %q", site.PortProfile)
		}
	})

	t.Run("returns error for invalid config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "invalid.yaml")

		content := []byte(`{invalid yaml`)
		if err := os.WriteFile(configPath, content, 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cmd := NewScanCmd()
		_ = cmd.Flags().Set("config", configPath)
		_, err := buildConfig(cmd, []string{"example.com"})
		if err == nil {
			t.Fatal("expected error for invalid config file")
		}
	})

	t.Run("returns error for missing explicit config file", func(t *testing.T) {
		cmd := NewScanCmd()
		_ = cmd.Flags().Set("config", filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := buildConfig(cmd, []string{"example.com"})
		if err == nil {
			t.Fatal("expected error for missing config file")
		}
	})

	t.Run("builds config with output file", func(t *testing.T) {
		cmd := NewScanCmd()
		_ = cmd.Flags().Set("output", "/tmp/report.json")
		cfg, err := buildConfig(cmd, []string{"example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.ReportFile != "/tmp/report.json" {
			t.Errorf("expected ReportFile '/tmp/report.json', got %q", cfg.ReportFile)
		}
	})
}

// TestOpenStore tests store selection from the configuration.
func TestOpenStore(t *testing.T) {
	t.Parallel()

	t.Run("empty db path opens memory store", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		st, err := openStore(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer func() { _ = st.Close() }()

		if _, ok := st.(*store.MemoryStore); !ok {
			t.Errorf("expected *store.MemoryStore, got %T", st)
		}
	})

	t.Run("db path opens sqlite store", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.DBPath = filepath.Join(t.TempDir(), "websentry.db")
		st, err := openStore(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer func() { _ = st.Close() }()

		if _, ok := st.(*store.SQLiteStore); !ok {
			t.Errorf("expected *store.SQLiteStore, got %T", st)
		}
	})
}

// TestBuildAnalyzers tests analyzer pipeline assembly.
func TestBuildAnalyzers(t *testing.T) {
	t.Parallel()

	wantDimensions := []analyzer.Dimension{
		analyzer.DimensionSSL,
		analyzer.DimensionHeaders,
		analyzer.DimensionTech,
		analyzer.DimensionMalware,
		analyzer.DimensionPorts,
		analyzer.DimensionWhois,
	}

	t.Run("no overrides uses default pipeline", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		analyzers := buildAnalyzers(cfg)
		if len(analyzers) != len(wantDimensions) {
			t.Fatalf("expected %d analyzers, got %d", len(wantDimensions), len(analyzers))
		}
		for i, a := range analyzers {
			if a.Dimension() != wantDimensions[i] {
				t.Errorf("analyzer %d covers %q, want %q", i, a.Dimension(), wantDimensions[i])
			}
		}
	})

	t.Run("overrides keep pipeline shape", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.SiteOverrides = &config.File{
			Sites: map[string]config.SiteConfig{
				"demo.example.com": {SSLTier: "poor", PortProfile: "development"},
			},
		}
		analyzers := buildAnalyzers(cfg)
		if len(analyzers) != len(wantDimensions) {
			t.Fatalf("expected %d analyzers, got %d", len(wantDimensions), len(analyzers))
		}
		for i, a := range analyzers {
			if a.Dimension() != wantDimensions[i] {
				t.Errorf("analyzer %d covers %q, want %q", i, a.Dimension(), wantDimensions[i])
			}
		}
	})
}
