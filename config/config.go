// Package config loads the TOML configuration shared by the CLI commands.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	cae "github.com/mynextid/zk-age/circuits/age-eligibility"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	EnvSubmitURL = "ZKAGE_SUBMIT_URL"
	EnvSignerKey = "ZKAGE_SIGNER_KEY"
)

// Config is the root of the TOML file.
type Config struct {
	Shape     ShapeConfig     `toml:"shape"`
	Artifacts ArtifactsConfig `toml:"artifacts"`
	Server    ServerConfig    `toml:"server"`
	Issuer    IssuerConfig    `toml:"issuer"`
	Log       LogConfig       `toml:"log"`

	// Submission is read from the environment only.
	Submission SubmissionConfig `toml:"-"`
}

// ShapeConfig selects the circuit shape.
type ShapeConfig struct {
	Capacity int    `toml:"capacity"`
	YearBits int    `toml:"year_bits"`
	Curve    string `toml:"curve"`
}

// ArtifactsConfig holds where compiled circuits and keys live.
type ArtifactsConfig struct {
	Dir      string `toml:"dir"`
	S3Bucket string `toml:"s3_bucket"`
	S3Prefix string `toml:"s3_prefix"`
	S3Region string `toml:"s3_region"`
}

// ServerConfig holds HTTP service settings.
type ServerConfig struct {
	Host                string   `toml:"host"`
	Port                int      `toml:"port"`
	ReadTimeout         Duration `toml:"read_timeout"`
	WriteTimeout        Duration `toml:"write_timeout"`
	IdleTimeout         Duration `toml:"idle_timeout"`
	RequestTimeout      Duration `toml:"request_timeout"`
	ShutdownTimeout     Duration `toml:"shutdown_timeout"`
	MaxRequestSize      int64    `toml:"max_request_size"`
	MaxConcurrentProofs int64    `toml:"max_concurrent_proofs"`
	EnableCORS          bool     `toml:"enable_cors"`
	AllowedOrigins      []string `toml:"allowed_origins"`
	EnablePprof         bool     `toml:"enable_pprof"`
	TLSCert             string   `toml:"tls_cert"`
	TLSKey              string   `toml:"tls_key"`
}

// Duration decodes TOML strings such as "30s" or "2m".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// IssuerConfig configures the issuer endpoints of the service.
type IssuerConfig struct {
	Enabled    bool   `toml:"enabled"`
	ID         string `toml:"id"`
	LedgerPath string `toml:"ledger_path"`
}

// LogConfig holds logging settings. GnarkLevel applies to gnark's own logger.
type LogConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	GnarkLevel string `toml:"gnark_level"`
}

// SubmissionConfig is handed to the transaction submission client as is.
// `zkage calldata` names the endpoint next to the bundle it writes and
// `zkage serve` logs it at start. The signer key never leaves the process.
type SubmissionConfig struct {
	URL       string
	SignerKey string
}

func (s SubmissionConfig) String() string {
	return fmt.Sprintf("{URL:%s SignerKey:%s}", s.URL, s.redactedKey())
}

// LogValue keeps the signer key out of structured logs.
func (s SubmissionConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("url", s.URL),
		slog.String("signer_key", s.redactedKey()),
	)
}

func (s SubmissionConfig) redactedKey() string {
	if s.SignerKey == "" {
		return ""
	}
	return "[redacted]"
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Shape: ShapeConfig{
			Capacity: 3,
			YearBits: cae.DefaultYearBits,
			Curve:    "bn254",
		},
		Artifacts: ArtifactsConfig{
			Dir: "compiled",
		},
		Server: ServerConfig{
			Host:                "0.0.0.0",
			Port:                8080,
			ReadTimeout:         Duration{15 * time.Second},
			WriteTimeout:        Duration{120 * time.Second},
			IdleTimeout:         Duration{60 * time.Second},
			RequestTimeout:      Duration{110 * time.Second},
			ShutdownTimeout:     Duration{30 * time.Second},
			MaxRequestSize:      10 << 20,
			MaxConcurrentProofs: 2,
			AllowedOrigins:      []string{"*"},
		},
		Issuer: IssuerConfig{
			ID:         "1",
			LedgerPath: "ledger.json",
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			GnarkLevel: "disabled",
		},
	}
}

// Load reads path over the defaults and applies the environment. An empty
// path returns the defaults with the environment applied.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	}
	cfg.Artifacts.Dir = ExpandPath(cfg.Artifacts.Dir)
	cfg.Issuer.LedgerPath = ExpandPath(cfg.Issuer.LedgerPath)
	cfg.Submission = SubmissionConfig{
		URL:       os.Getenv(EnvSubmitURL),
		SignerKey: os.Getenv(EnvSignerKey),
	}
	return &cfg, nil
}

// CircuitShape converts and validates the configured shape.
func (c *Config) CircuitShape() (cae.Shape, error) {
	curve, err := cae.ParseCurve(c.Shape.Curve)
	if err != nil {
		return cae.Shape{}, err
	}
	shape := cae.Shape{Capacity: c.Shape.Capacity, YearBits: c.Shape.YearBits, Curve: curve}
	return shape, shape.Validate()
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}
