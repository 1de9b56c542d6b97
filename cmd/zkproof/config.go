package zkproof

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mynextid/zk-age/artifacts"
	cae "github.com/mynextid/zk-age/circuits/age-eligibility"
	"github.com/mynextid/zk-age/common"
	"github.com/mynextid/zk-age/config"
	"github.com/mynextid/zk-age/server"
	"github.com/spf13/cobra"
)

// loadConfig reads the file given with --config and applies gnark's log level
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := common.SetGnarkLogLevel(cfg.Log.GnarkLevel); err != nil {
		return nil, err
	}
	return cfg, nil
}

// cliLogger logs to stderr so command output on stdout stays clean
func cliLogger(cfg *config.Config) *slog.Logger {
	return server.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
}

// shapeFlags override the [shape] section of the configuration
type shapeFlags struct {
	capacity int
	yearBits int
	curve    string
}

func (f *shapeFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.capacity, "capacity", "n", 0, "Number of issued commitments in the circuit")
	cmd.Flags().IntVar(&f.yearBits, "year-bits", 0, "Bit width of birth and cutoff years")
	cmd.Flags().StringVar(&f.curve, "curve", "", "Elliptic curve (bn254, bls12-381)")
}

// shape returns the configured shape with the flags that were set applied
func (f *shapeFlags) shape(cmd *cobra.Command, cfg *config.Config) (cae.Shape, error) {
	if cmd.Flags().Changed("capacity") {
		cfg.Shape.Capacity = f.capacity
	}
	if cmd.Flags().Changed("year-bits") {
		cfg.Shape.YearBits = f.yearBits
	}
	if cmd.Flags().Changed("curve") {
		cfg.Shape.Curve = f.curve
	}
	shape, err := cfg.CircuitShape()
	if err != nil {
		return cae.Shape{}, fmt.Errorf("invalid shape: %w", err)
	}
	return shape, nil
}

// resolveShape prefers an explicit shape name over the shape flags
func resolveShape(cmd *cobra.Command, cfg *config.Config, name string, flags *shapeFlags) (cae.Shape, error) {
	if name != "" {
		return cae.ParseShapeName(name)
	}
	return flags.shape(cmd, cfg)
}

// newStore opens the artifacts directory, fetching from S3 when a bucket is
// configured
func newStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*artifacts.Store, error) {
	var fetcher artifacts.Fetcher
	if cfg.Artifacts.S3Bucket != "" {
		f, err := artifacts.NewS3Fetcher(ctx, cfg.Artifacts.S3Bucket, cfg.Artifacts.S3Prefix, cfg.Artifacts.S3Region, logger)
		if err != nil {
			return nil, err
		}
		fetcher = f
	}
	return artifacts.NewStore(cfg.Artifacts.Dir, fetcher, logger), nil
}
