package config

import (
	"errors"
	"flag"
	"io"
	"os"
	"strconv"
	"time"
)

// Common flags shared by every subcommand. Flags override the environment.
func bindCommon(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "Marketplace API base URL (MODELHUB_BASE_URL)")
	fs.StringVar(&cfg.Origin, "origin", cfg.Origin, "Origin for relative endpoint paths (MODELHUB_ORIGIN)")
	fs.StringVar(&cfg.QuotaDriver, "quota", cfg.QuotaDriver, "Quota store: file, memory, redis, sqlite, postgres, mysql (MODELHUB_QUOTA_DRIVER)")
	fs.StringVar(&cfg.QuotaDSN, "quota-dsn", cfg.QuotaDSN, "Quota store location (MODELHUB_QUOTA_DSN)")
	fs.StringVar(&cfg.CatalogDir, "catalog", cfg.CatalogDir, "Directory of model descriptors (MODELHUB_CATALOG_DIR)")
}

// ParseTUIFlags parses flags for the interactive sandbox
func ParseTUIFlags(args []string, output io.Writer) (Config, error) {
	cfg := Load()

	fs := flag.NewFlagSet("modelhub", flag.ContinueOnError)
	fs.SetOutput(output)
	bindCommon(fs, &cfg)

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// InvokeConfig holds the one-shot invocation settings
type InvokeConfig struct {
	Config
	ModelID  string
	Method   string
	Path     string
	Input    string
	ReadFile string
}

// ParseInvokeFlags parses `modelhub invoke [flags] [input]`.
// The input comes from -input, -file ("-" for stdin) or the first argument.
func ParseInvokeFlags(args []string, output io.Writer) (InvokeConfig, error) {
	cfg := InvokeConfig{Config: Load()}

	fs := flag.NewFlagSet("modelhub invoke", flag.ContinueOnError)
	fs.SetOutput(output)
	bindCommon(fs, &cfg.Config)
	fs.StringVar(&cfg.ModelID, "m", "", "Model id (required)")
	fs.StringVar(&cfg.Method, "method", "", "Endpoint method (default: any)")
	fs.StringVar(&cfg.Path, "endpoint", "", "Endpoint path (default: the model's first endpoint)")
	fs.StringVar(&cfg.Input, "input", "", "Raw input text or JSON")
	fs.StringVar(&cfg.ReadFile, "file", "", "Read the input from a file, - for stdin")

	if err := fs.Parse(args); err != nil {
		return InvokeConfig{}, err
	}

	if cfg.ModelID == "" {
		return InvokeConfig{}, errors.New("model id required (use -m)")
	}
	if cfg.Input == "" && cfg.ReadFile == "" && fs.NArg() > 0 {
		cfg.Input = fs.Arg(0)
	}
	return cfg, nil
}

// MockConfig holds the mock server settings
type MockConfig struct {
	CatalogDir        string
	Port              int
	RequestsPerMinute int
	Burst             int
	ForceStatus       int
	Latency           time.Duration
}

// ParseMockFlags parses `modelhub mock [flags]`
func ParseMockFlags(args []string, output io.Writer) (MockConfig, error) {
	base := Load()
	cfg := MockConfig{CatalogDir: base.CatalogDir}

	fs := flag.NewFlagSet("modelhub mock", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&cfg.CatalogDir, "catalog", cfg.CatalogDir, "Directory of model descriptors (MODELHUB_CATALOG_DIR)")
	fs.IntVar(&cfg.Port, "p", 0, "Listen port (MODELHUB_MOCK_PORT, default 8089)")
	fs.IntVar(&cfg.RequestsPerMinute, "rpm", 0, "Requests per minute per model, 0 for unlimited")
	fs.IntVar(&cfg.Burst, "burst", 1, "Burst size when -rpm is set")
	fs.IntVar(&cfg.ForceStatus, "status", 0, "Fail every model call with this status (e.g. 503)")
	fs.DurationVar(&cfg.Latency, "latency", 0, "Delay added to each model response")

	if err := fs.Parse(args); err != nil {
		return MockConfig{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("MODELHUB_MOCK_PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return MockConfig{}, errors.New("invalid MODELHUB_MOCK_PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 8089
		}
	}

	if cfg.CatalogDir == "" {
		return MockConfig{}, errors.New("catalog directory required (use -catalog or MODELHUB_CATALOG_DIR env)")
	}
	if cfg.ForceStatus != 0 && (cfg.ForceStatus < 400 || cfg.ForceStatus > 599) {
		return MockConfig{}, errors.New("-status must be between 400 and 599")
	}
	return cfg, nil
}
