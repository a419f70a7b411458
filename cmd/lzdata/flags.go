package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath      string
	LogLevel        string
	LogFormat       string
	Debug           bool
	ShutdownTimeout time.Duration
	Serve           bool
	Region          string
	Fields          string
	LDRefVar        string
	ShowVersion     bool
	ShowHelp        bool
	Validate        bool
}

func parseFlags(fs *flag.FlagSet, args []string) (*CLIConfig, error) {
	cfg := &CLIConfig{}

	fs.StringVar(&cfg.ConfigPath, "config",
		getEnv("LZDATA_CONFIG", "lzdata.yaml"),
		"Path to configuration file, .json/.yaml/.yml (env: LZDATA_CONFIG)")
	fs.StringVar(&cfg.ConfigPath, "c",
		getEnv("LZDATA_CONFIG", "lzdata.yaml"),
		"Path to configuration file (env: LZDATA_CONFIG)")

	fs.StringVar(&cfg.LogLevel, "log-level",
		getEnv("LZDATA_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: LZDATA_LOG_LEVEL)")
	fs.StringVar(&cfg.LogFormat, "log-format",
		getEnv("LZDATA_LOG_FORMAT", "json"),
		"Log format: json, text (env: LZDATA_LOG_FORMAT)")
	fs.BoolVar(&cfg.Debug, "debug",
		getEnvBool("LZDATA_DEBUG", false),
		"Enable debug logging (env: LZDATA_DEBUG)")

	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout",
		getEnvDuration("LZDATA_SHUTDOWN_TIMEOUT", 30*time.Second),
		"Graceful shutdown timeout (env: LZDATA_SHUTDOWN_TIMEOUT)")

	fs.BoolVar(&cfg.Serve, "serve",
		getEnvBool("LZDATA_SERVE", false),
		"Serve the HTTP gateway instead of running one query (env: LZDATA_SERVE)")

	fs.StringVar(&cfg.Region, "region", "", "Query region as chr:start-end")
	fs.StringVar(&cfg.Fields, "fields", "", "Comma-separated field tokens, e.g. assoc:position,ld:state")
	fs.StringVar(&cfg.LDRefVar, "ldrefvar", "", "LD reference variant")

	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	fs.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	fs.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	fs.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")
	fs.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	fs.Usage = func() {
		printDetailedHelp(fs.Output(), fs)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.Debug {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	if _, err := os.Stat(cfg.ConfigPath); err != nil {
		return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}
	if !slices.Contains([]string{"json", "text"}, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	if cfg.Serve || cfg.Validate {
		return nil
	}
	if cfg.Region == "" || cfg.Fields == "" {
		return fmt.Errorf("a query needs -region and -fields (or use -serve)")
	}
	if _, _, _, err := parseRegion(cfg.Region); err != nil {
		return err
	}
	return nil
}

// parseRegion parses chr:start-end.
func parseRegion(s string) (string, int, int, error) {
	chr, span, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || chr == "" {
		return "", 0, 0, fmt.Errorf("invalid region %q: want chr:start-end", s)
	}
	from, to, ok := strings.Cut(span, "-")
	if !ok {
		return "", 0, 0, fmt.Errorf("invalid region %q: want chr:start-end", s)
	}
	start, err := strconv.Atoi(strings.ReplaceAll(from, ",", ""))
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid region start %q: %w", from, err)
	}
	end, err := strconv.Atoi(strings.ReplaceAll(to, ",", ""))
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid region end %q: %w", to, err)
	}
	if start < 0 || end < start {
		return "", 0, 0, fmt.Errorf("invalid region %q: end before start", s)
	}
	return chr, start, end, nil
}

// splitFields splits a comma-separated token list, dropping blanks.
func splitFields(s string) []string {
	var tokens []string
	for _, tok := range strings.Split(s, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

func printDetailedHelp(w io.Writer, fs *flag.FlagSet) {
	_, _ = fmt.Fprintf(w, `%s - region data for genome browser panels

Usage: %s [options]

Options:
`, appName, appName)
	fs.PrintDefaults()
	_, _ = fmt.Fprintf(w, `
Examples:
  # Fetch association results with LD for one region
  %s -c lzdata.yaml -region 10:114550000-115067678 \
      -fields assoc:position,assoc:log_pvalue,ld:state

  # Serve GET /api/v1/data
  %s -c lzdata.yaml -serve

  # Validate configuration only
  %s -c lzdata.yaml -validate

Version: %s
Build: %s
`, appName, appName, appName, Version, BuildTime)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
