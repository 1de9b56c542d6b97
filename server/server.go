package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mynextid/zk-age/artifacts"
	cae "github.com/mynextid/zk-age/circuits/age-eligibility"
	"github.com/mynextid/zk-age/common"
	"github.com/mynextid/zk-age/config"
	"github.com/mynextid/zk-age/issuer"
	"github.com/mynextid/zk-age/server/api"
)

type ServeConfig struct {
	// Server settings
	Host string
	Port int

	// Circuit settings
	ArtifactsDir string
	Shapes       []string  // Specific shapes to load (empty = all in ArtifactsDir)
	DefaultShape cae.Shape // Served when ArtifactsDir holds no shape
	VerifyOnly   bool      // Load verifying keys only
	S3Bucket     string
	S3Prefix     string
	S3Region     string

	// Performance settings
	MaxRequestSize      int64
	MaxConcurrentProofs int64
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	IdleTimeout         time.Duration
	RequestTimeout      time.Duration
	ShutdownTimeout     time.Duration

	// Security settings
	EnableCORS  bool
	CorsOrigins []string

	// Issuer settings
	EnableIssuer bool
	IssuerID     string
	LedgerPath   string

	// Observability
	EnablePprof   bool
	LogLevel      string
	LogFormat     string // "json" or "text"
	GnarkLogLevel string

	// TLS settings
	EnableTLS bool
	CertFile  string
	KeyFile   string

	// Endpoint the calldata bundles are submitted to, read from the environment
	Submission config.SubmissionConfig
}

// NewServeConfig maps the TOML configuration onto the serve settings
func NewServeConfig(cfg *config.Config) (*ServeConfig, error) {
	shape, err := cfg.CircuitShape()
	if err != nil {
		return nil, err
	}
	s := cfg.Server
	return &ServeConfig{
		Host:                s.Host,
		Port:                s.Port,
		ArtifactsDir:        cfg.Artifacts.Dir,
		DefaultShape:        shape,
		S3Bucket:            cfg.Artifacts.S3Bucket,
		S3Prefix:            cfg.Artifacts.S3Prefix,
		S3Region:            cfg.Artifacts.S3Region,
		MaxRequestSize:      s.MaxRequestSize,
		MaxConcurrentProofs: s.MaxConcurrentProofs,
		ReadTimeout:         s.ReadTimeout.Duration,
		WriteTimeout:        s.WriteTimeout.Duration,
		IdleTimeout:         s.IdleTimeout.Duration,
		RequestTimeout:      s.RequestTimeout.Duration,
		ShutdownTimeout:     s.ShutdownTimeout.Duration,
		EnableCORS:          s.EnableCORS,
		CorsOrigins:         s.AllowedOrigins,
		EnableIssuer:        cfg.Issuer.Enabled,
		IssuerID:            cfg.Issuer.ID,
		LedgerPath:          cfg.Issuer.LedgerPath,
		EnablePprof:         s.EnablePprof,
		LogLevel:            cfg.Log.Level,
		LogFormat:           cfg.Log.Format,
		GnarkLogLevel:       cfg.Log.GnarkLevel,
		EnableTLS:           s.TLSCert != "" || s.TLSKey != "",
		CertFile:            s.TLSCert,
		KeyFile:             s.TLSKey,
		Submission:          cfg.Submission,
	}, nil
}

func Run(cfg *ServeConfig) error {
	// Validate configuration
	if err := validateServeConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Setup structured logging
	logger := SetupLogger(cfg.LogLevel, cfg.LogFormat)
	if err := common.SetGnarkLogLevel(cfg.GnarkLogLevel); err != nil {
		return err
	}

	ctx := context.Background()
	handler, err := NewHandler(ctx, cfg, logger)
	if err != nil {
		return err
	}

	// Configure HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	httpServer := &http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", addr, "tls", cfg.EnableTLS)

		var err error
		if cfg.EnableTLS {
			err = httpServer.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
		} else {
			err = httpServer.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal or server error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()

	logger.Info("Shutting down server gracefully...")
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

// NewHandler loads the circuits and the issuer and returns the routed API
func NewHandler(ctx context.Context, cfg *ServeConfig, logger *slog.Logger) (http.Handler, error) {
	store, err := newStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	registry := api.NewCircuitRegistry()
	if err := loadShapes(ctx, registry, store, cfg, logger); err != nil {
		return nil, fmt.Errorf("failed to load circuits: %w", err)
	}

	if cfg.Submission.URL != "" {
		logger.Info("Calldata submission configured", "submission", cfg.Submission)
	}

	opts := api.Options{
		MaxConcurrentProofs: cfg.MaxConcurrentProofs,
		Logger:              logger,
	}
	if cfg.EnableIssuer {
		iss, err := loadIssuer(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to load issuer: %w", err)
		}
		opts.Issuer = iss
		opts.LedgerPath = cfg.LedgerPath
	}

	return setupRouter(api.NewServer(registry, opts), cfg, logger), nil
}

func newStore(ctx context.Context, cfg *ServeConfig, logger *slog.Logger) (*artifacts.Store, error) {
	var fetcher artifacts.Fetcher
	if cfg.S3Bucket != "" {
		f, err := artifacts.NewS3Fetcher(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.S3Region, logger)
		if err != nil {
			return nil, err
		}
		fetcher = f
	}
	return artifacts.NewStore(cfg.ArtifactsDir, fetcher, logger), nil
}

func loadShapes(ctx context.Context, registry *api.CircuitRegistry, store *artifacts.Store, cfg *ServeConfig, logger Logger) error {
	shapes, err := api.ShapeList(store, cfg.Shapes, cfg.DefaultShape)
	if err != nil {
		return err
	}

	loaded := 0
	for _, shape := range shapes {
		c, err := registry.LoadCircuit(ctx, store, shape, cfg.VerifyOnly)
		if err != nil {
			logger.Warn("Failed to load circuit", "shape", shape.Name(), "error", err)
			continue
		}
		loaded++
		logger.Info("Loaded circuit", "shape", shape.Name(), "fingerprint", c.Info.Fingerprint, "prove", c.CanProve())
	}

	if loaded == 0 {
		return fmt.Errorf("no circuits loaded from %s", cfg.ArtifactsDir)
	}

	logger.Info("Circuit loading complete", "loaded", loaded, "total", len(shapes))
	return nil
}

// loadIssuer restores the ledger from LedgerPath or starts an empty one
// sized for the default shape
func loadIssuer(cfg *ServeConfig, logger Logger) (*issuer.Issuer, error) {
	if cfg.LedgerPath != "" && common.FileExists(cfg.LedgerPath) {
		ledger, err := issuer.LoadFromFile(cfg.LedgerPath)
		if err != nil {
			return nil, err
		}
		logger.Info("Loaded issuer ledger", "path", cfg.LedgerPath, "issued", ledger.Len(), "capacity", ledger.Capacity())
		return issuer.NewWithLedger(cfg.IssuerID, ledger)
	}
	logger.Info("Starting empty issuer ledger", "capacity", cfg.DefaultShape.Capacity)
	return issuer.New(cfg.IssuerID, cfg.DefaultShape.Capacity, cfg.DefaultShape.Curve)
}

func validateServeConfig(cfg *ServeConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Port)
	}

	if cfg.EnableTLS {
		if cfg.CertFile == "" || cfg.KeyFile == "" {
			return fmt.Errorf("TLS enabled but cert-file or key-file not provided")
		}
		if _, err := os.Stat(cfg.CertFile); err != nil {
			return fmt.Errorf("cert file not found: %s", cfg.CertFile)
		}
		if _, err := os.Stat(cfg.KeyFile); err != nil {
			return fmt.Errorf("key file not found: %s", cfg.KeyFile)
		}
	}

	if cfg.S3Bucket == "" {
		if _, err := os.Stat(cfg.ArtifactsDir); err != nil {
			return fmt.Errorf("artifacts directory not found: %s", cfg.ArtifactsDir)
		}
	}

	if cfg.RequestTimeout <= 0 || cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("request and shutdown timeouts must be positive")
	}

	return nil
}
