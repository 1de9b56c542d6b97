package zkproof

import (
	"github.com/mynextid/zk-age/server"
	"github.com/spf13/cobra"
)

type serveFlags struct {
	host                string
	port                int
	artifactsDir        string
	shapes              []string
	verifyOnly          bool
	issuer              bool
	maxConcurrentProofs int64
	enablePprof         bool
	logLevel            string
	logFormat           string
	certFile            string
	keyFile             string
}

func NewServeCmd(configPath *string) *cobra.Command {
	f := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the ZK proof API server",
		Long:  `Start the HTTP API server for issuing credentials, generating and verifying age eligibility proofs. Flags override the configuration file.`,
		Example: `  # Start server with the configured settings
  zkage serve --config zkage.toml

  # Start with custom settings
  zkage serve --host 0.0.0.0 --port 9090 --artifacts-dir ./compiled

  # Verifier only deployment with TLS
  zkage serve --verify-only --port 443 \
    --cert-file /etc/ssl/cert.pem --key-file /etc/ssl/key.pem

  # Load specific shapes only and run the issuer
  zkage serve --shapes age-eligibility-n3-y16-bn254 --issuer`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			sc, err := server.NewServeConfig(cfg)
			if err != nil {
				return err
			}
			f.apply(cmd, sc)
			return server.Run(sc)
		},
	}

	f.register(cmd)

	return cmd
}

func (f *serveFlags) register(cmd *cobra.Command) {
	// Server flags
	cmd.Flags().StringVar(&f.host, "host", "", "Host to bind to")
	cmd.Flags().IntVarP(&f.port, "port", "p", 0, "Port to listen on")

	// Circuit flags
	cmd.Flags().StringVarP(&f.artifactsDir, "artifacts-dir", "d", "", "Directory containing compiled circuits")
	cmd.Flags().StringSliceVarP(&f.shapes, "shapes", "s", []string{}, "Specific shapes to load (comma-separated, empty = all)")
	cmd.Flags().BoolVar(&f.verifyOnly, "verify-only", false, "Load verifying keys only")
	cmd.Flags().BoolVar(&f.issuer, "issuer", false, "Enable the issuer endpoints")

	// Performance flags
	cmd.Flags().Int64Var(&f.maxConcurrentProofs, "max-concurrent-proofs", 0, "Proofs generated in parallel")

	// Observability flags
	cmd.Flags().BoolVar(&f.enablePprof, "enable-pprof", false, "Enable pprof endpoints (debug only)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "", "Log format (text, json)")

	// TLS flags
	cmd.Flags().StringVar(&f.certFile, "cert-file", "", "TLS certificate file")
	cmd.Flags().StringVar(&f.keyFile, "key-file", "", "TLS private key file")
}

// apply overrides the settings whose flags were set
func (f *serveFlags) apply(cmd *cobra.Command, sc *server.ServeConfig) {
	flags := cmd.Flags()
	if flags.Changed("host") {
		sc.Host = f.host
	}
	if flags.Changed("port") {
		sc.Port = f.port
	}
	if flags.Changed("artifacts-dir") {
		sc.ArtifactsDir = f.artifactsDir
	}
	if flags.Changed("shapes") {
		sc.Shapes = f.shapes
	}
	if flags.Changed("verify-only") {
		sc.VerifyOnly = f.verifyOnly
	}
	if flags.Changed("issuer") {
		sc.EnableIssuer = f.issuer
	}
	if flags.Changed("max-concurrent-proofs") {
		sc.MaxConcurrentProofs = f.maxConcurrentProofs
	}
	if flags.Changed("enable-pprof") {
		sc.EnablePprof = f.enablePprof
	}
	if flags.Changed("log-level") {
		sc.LogLevel = f.logLevel
	}
	if flags.Changed("log-format") {
		sc.LogFormat = f.logFormat
	}
	if flags.Changed("cert-file") || flags.Changed("key-file") {
		sc.CertFile, sc.KeyFile = f.certFile, f.keyFile
		sc.EnableTLS = true
	}
}
