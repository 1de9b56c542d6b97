package zkproof

import (
	"fmt"
	"time"

	cae "github.com/mynextid/zk-age/circuits/age-eligibility"
	"github.com/mynextid/zk-age/server/api"
	"github.com/spf13/cobra"
)

type setupConfig struct {
	outputDir string
	shapes    []string
	shape     shapeFlags
	force     bool
	solidity  bool
}

func NewSetupCmd(configPath *string) *cobra.Command {
	sc := &setupConfig{}

	cmd := &cobra.Command{
		Use:     "setup",
		Aliases: []string{"compile"},
		Short:   "Compile circuit shapes and generate keys",
		Long: `Compile the age eligibility circuit for one or more shapes and generate the constraint system, proving key and verifying key of each.

The keys come from a single-party setup and are meant for development. Production keys must come from a multi-party ceremony and be placed in the artifacts directory (or the configured S3 bucket), where setup picks them up instead of generating new ones.`,
		Example: `  # Set up the configured shape
  zkage setup -o ./compiled

  # Set up a 5 credential shape and export the Solidity verifier
  zkage setup -n 5 --solidity

  # Regenerate specific shapes
  zkage setup --force -s age-eligibility-n3-y16-bn254,age-eligibility-n3-y16-bls12-381
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup(cmd, *configPath, sc)
		},
	}

	cmd.Flags().StringVarP(&sc.outputDir, "output", "o", "", "Output directory for compiled circuits (default from config)")
	cmd.Flags().StringSliceVarP(&sc.shapes, "shapes", "s", []string{}, "Specific shapes to set up by name (comma-separated, empty = configured shape)")
	cmd.Flags().BoolVarP(&sc.force, "force", "f", false, "Regenerate keys even if they exist")
	cmd.Flags().BoolVar(&sc.solidity, "solidity", false, "Export the Solidity verifier of BN254 shapes")
	sc.shape.register(cmd)

	return cmd
}

func runSetup(cmd *cobra.Command, configPath string, sc *setupConfig) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("output") {
		cfg.Artifacts.Dir = sc.outputDir
	}
	fallback, err := sc.shape.shape(cmd, cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := newStore(ctx, cfg, cliLogger(cfg))
	if err != nil {
		return err
	}

	shapes := []cae.Shape{fallback}
	if len(sc.shapes) > 0 {
		if shapes, err = api.ShapeList(store, sc.shapes, fallback); err != nil {
			return err
		}
	}

	fmt.Printf("\n==== Setting up %d shapes in %s ====\n", len(shapes), store.Dir)

	failed := 0
	for _, shape := range shapes {
		start := time.Now()
		fmt.Printf("Setting up %s...\n", shape.Name())

		circuits, err := api.CompileShapes(ctx, store, []cae.Shape{shape}, api.CompileOptions{
			Force:    sc.force,
			Solidity: sc.solidity,
		})
		if err != nil {
			fmt.Printf("[X] Failed to set up %s: %v\n", shape.Name(), err)
			failed++
			continue
		}

		info := circuits[0].Info
		fmt.Printf("[OK] %s in %s\n", shape.Name(), time.Since(start).Round(time.Millisecond))
		if info.Constraints > 0 {
			fmt.Printf("     constraints: %d\n", info.Constraints)
		}
		fmt.Printf("     fingerprint: %s\n", info.Fingerprint)
	}

	fmt.Println("\n==== Setup complete ====")
	if failed > 0 {
		return fmt.Errorf("%d of %d shapes failed", failed, len(shapes))
	}
	return nil
}
