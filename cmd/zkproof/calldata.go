package zkproof

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mynextid/zk-age/artifacts"
	"github.com/mynextid/zk-age/common"
	"github.com/mynextid/zk-age/protocol"
	"github.com/mynextid/zk-age/solidity"
	"github.com/spf13/cobra"
)

type calldataConfig struct {
	shapeName  string
	shape      shapeFlags
	cutoffYear uint64
	proofPath  string
	base64     bool
	output     string
}

func NewCalldataCmd(configPath *string) *cobra.Command {
	cc := &calldataConfig{}

	cmd := &cobra.Command{
		Use:   "calldata",
		Short: "Encode a stored proof for the on-chain verifier",
		Long:  `Verify a proof against the stored verifying key and write the calldata bundle (proof, commitments, public inputs, verifying key and its fingerprint) as JSON. Proofs that do not verify are refused.`,
		Example: `  # Proof written by 'zkage demo --proof-out'
  zkage calldata --proof proof.bin --cutoff 2006

  # Base64 proof returned by the HTTP API
  zkage calldata --proof proof.b64 --base64 --cutoff 2006 -o calldata.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalldata(cmd, *configPath, cc)
		},
	}

	cmd.Flags().StringVarP(&cc.shapeName, "shape", "s", "", "Shape name (overrides the shape flags)")
	cmd.Flags().Uint64Var(&cc.cutoffYear, "cutoff", 0, "Public cutoff year the proof was made for")
	cmd.Flags().StringVar(&cc.proofPath, "proof", "", "Proof file")
	cmd.Flags().BoolVar(&cc.base64, "base64", false, "Proof file is base64 encoded")
	cmd.Flags().StringVarP(&cc.output, "output", "o", "", "Output file (default stdout)")
	_ = cmd.MarkFlagRequired("cutoff")
	_ = cmd.MarkFlagRequired("proof")
	cc.shape.register(cmd)

	return cmd
}

func runCalldata(cmd *cobra.Command, configPath string, cc *calldataConfig) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	shape, err := resolveShape(cmd, cfg, cc.shapeName, &cc.shape)
	if err != nil {
		return err
	}
	store, err := newStore(cmd.Context(), cfg, cliLogger(cfg))
	if err != nil {
		return err
	}
	vk, err := store.LoadVerifyingKey(cmd.Context(), shape)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(cc.proofPath)
	if err != nil {
		return fmt.Errorf("failed to read proof: %w", err)
	}
	if cc.base64 {
		if raw, err = base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw))); err != nil {
			return fmt.Errorf("failed to decode proof: %w", err)
		}
	}
	proof, err := protocol.UnmarshalProof(shape.Curve, raw)
	if err != nil {
		return err
	}

	ok, err := protocol.Verify(vk, cc.cutoffYear, proof)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("proof does not verify for %s at cutoff %d", shape.Name(), cc.cutoffYear)
	}

	calldata, err := solidity.NewCalldata(vk, cc.cutoffYear, proof)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if cc.output != "" {
		if err := common.EnsureDir(filepath.Dir(cc.output)); err != nil {
			return err
		}
		f, err := os.Create(cc.output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(calldata); err != nil {
		return fmt.Errorf("failed to write calldata: %w", err)
	}

	if cfg.Submission.URL != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "[OK] calldata ready for submission to %s\n", cfg.Submission)
	}
	return nil
}

func NewExportSolidityCmd(configPath *string) *cobra.Command {
	var (
		shapeName string
		shape     shapeFlags
		output    string
	)

	cmd := &cobra.Command{
		Use:     "export-solidity",
		Short:   "Write the Solidity verifier of a BN254 shape",
		Example: `  zkage export-solidity -n 3 -o AgeVerifier.sol`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			s, err := resolveShape(cmd, cfg, shapeName, &shape)
			if err != nil {
				return err
			}
			store, err := newStore(cmd.Context(), cfg, cliLogger(cfg))
			if err != nil {
				return err
			}
			vk, err := store.LoadVerifyingKey(cmd.Context(), s)
			if err != nil {
				return err
			}

			if output == "" {
				output = store.Path(s, artifacts.ExtSolidity)
			}
			if err := common.EnsureDir(filepath.Dir(output)); err != nil {
				return err
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := solidity.ExportVerifier(f, vk); err != nil {
				return err
			}
			fmt.Printf("[OK] Verifier of %s written to %s\n", s.Name(), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&shapeName, "shape", "s", "", "Shape name (overrides the shape flags)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default next to the keys)")
	shape.register(cmd)

	return cmd
}
