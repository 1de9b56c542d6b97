package zkproof

import (
	"fmt"
	"time"

	"github.com/consensys/gnark/backend/groth16"
	cae "github.com/mynextid/zk-age/circuits/age-eligibility"
	"github.com/mynextid/zk-age/common"
	"github.com/mynextid/zk-age/issuer"
	"github.com/mynextid/zk-age/models"
	"github.com/mynextid/zk-age/protocol"
	"github.com/mynextid/zk-age/solidity"
	"github.com/spf13/cobra"
)

type demoConfig struct {
	shapeName  string
	shape      shapeFlags
	cutoffYear uint64
	proofOut   string
	forceSetup bool
}

type scenario struct {
	name     string
	cred     models.Credential
	expected bool
}

func NewDemoCmd(configPath *string) *cobra.Command {
	dc := &demoConfig{}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the issuer, holder and verifier end to end",
		Long: `Issue a full ledger of credentials, then prove and verify three scenarios against one key pair:
  A  a member born before the cutoff year (accepted)
  B  a member born after the cutoff year (rejected)
  C  a credential the issuer never issued (rejected)`,
		Example: `  # Run with the configured shape
  zkage demo

  # Five credentials, cutoff 2007, keep the accepted proof for 'zkage calldata'
  zkage demo -n 5 --cutoff 2007 --proof-out proof.bin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd, *configPath, dc)
		},
	}

	cmd.Flags().StringVarP(&dc.shapeName, "shape", "s", "", "Shape name (overrides the shape flags)")
	cmd.Flags().Uint64Var(&dc.cutoffYear, "cutoff", 2006, "Public cutoff year")
	cmd.Flags().StringVar(&dc.proofOut, "proof-out", "", "Write the scenario A proof to this file")
	cmd.Flags().BoolVar(&dc.forceSetup, "force-setup", false, "Regenerate keys even if they exist")
	dc.shape.register(cmd)

	return cmd
}

func runDemo(cmd *cobra.Command, configPath string, dc *demoConfig) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	shape, err := resolveShape(cmd, cfg, dc.shapeName, &dc.shape)
	if err != nil {
		return err
	}
	if shape.Capacity < 2 {
		return fmt.Errorf("demo needs a capacity of at least 2, got %d", shape.Capacity)
	}
	if dc.cutoffYear == 0 || dc.cutoffYear >= shape.MaxYear() {
		return fmt.Errorf("demo cutoff must be between 1 and %d", shape.MaxYear()-1)
	}

	fmt.Printf("\n==== Age eligibility demo: %s, cutoff %d ====\n", shape.Name(), dc.cutoffYear)

	// Verifier: one setup per shape
	store, err := newStore(cmd.Context(), cfg, cliLogger(cfg))
	if err != nil {
		return err
	}
	start := time.Now()
	kp, err := store.LoadOrSetup(cmd.Context(), shape, dc.forceSetup)
	if err != nil {
		fmt.Printf("[X] Setup failed: %v\n", err)
		return err
	}
	fmt.Printf("[OK] Keys ready in %s (%d constraints)\n",
		time.Since(start).Round(time.Millisecond), kp.ProvingKey.CS.GetNbConstraints())

	// Issuer: fill the ledger
	scenarios, commitments, err := issueDemoLedger(cfg.Issuer.ID, shape, dc.cutoffYear)
	if err != nil {
		fmt.Printf("[X] Issuance failed: %v\n", err)
		return err
	}
	fmt.Printf("[OK] Issued %d credentials\n", len(commitments))
	for i, c := range commitments {
		fmt.Printf("     %d: %s\n", i, c)
	}

	// Holder and verifier
	mismatches := 0
	for i, sc := range scenarios {
		inst := cae.Instance{CutoffYear: dc.cutoffYear, Commitments: commitments, Credential: sc.cred}

		proveStart := time.Now()
		proof, err := protocol.Prove(kp.ProvingKey, inst)
		if err != nil {
			fmt.Printf("[X] %s: %v\n", sc.name, err)
			mismatches++
			continue
		}
		proveTime := time.Since(proveStart)

		verifyStart := time.Now()
		ok, err := protocol.Verify(kp.VerifyingKey, dc.cutoffYear, proof)
		if err != nil {
			fmt.Printf("[X] %s: %v\n", sc.name, err)
			mismatches++
			continue
		}
		verifyTime := time.Since(verifyStart)

		status := "[OK]"
		if ok != sc.expected {
			status = "[X]"
			mismatches++
		}
		fmt.Printf("%s %s: verified=%t expected=%t prove=%s verify=%s\n", status, sc.name, ok, sc.expected,
			proveTime.Round(time.Millisecond), verifyTime.Round(time.Millisecond))

		if i == 0 {
			if err := reportAccepted(kp.VerifyingKey, dc, proof); err != nil {
				return err
			}
		}
	}

	fmt.Println("\n==== Demo complete ====")
	if mismatches > 0 {
		return fmt.Errorf("%d scenarios did not behave as expected", mismatches)
	}
	return nil
}

// issueDemoLedger issues capacity credentials. The first one is born before
// the cutoff and the second after it; the rest are filler.
func issueDemoLedger(issuerID string, shape cae.Shape, cutoff uint64) ([]scenario, []models.Commitment, error) {
	iss, err := issuer.New(issuerID, shape.Capacity, shape.Curve)
	if err != nil {
		return nil, nil, err
	}

	alice, _, err := iss.IssueNew("Alice", fmt.Sprint(cutoff-1))
	if err != nil {
		return nil, nil, err
	}
	bob, _, err := iss.IssueNew("Bob", fmt.Sprint(cutoff+1))
	if err != nil {
		return nil, nil, err
	}
	for i := 2; i < shape.Capacity; i++ {
		if _, _, err := iss.IssueNew(fmt.Sprintf("Holder %d", i), yearBefore(cutoff, uint64(10*i))); err != nil {
			return nil, nil, err
		}
	}
	commitments, err := iss.Ledger().Commitments()
	if err != nil {
		return nil, nil, err
	}

	// Mallory copies Alice's credential but claims an earlier birth year
	mallory := alice
	mallory.DobYear = yearBefore(cutoff, 30)

	return []scenario{
		{name: "Scenario A (member born before cutoff)", cred: alice, expected: true},
		{name: "Scenario B (member born after cutoff)", cred: bob, expected: false},
		{name: "Scenario C (never issued)", cred: mallory, expected: false},
	}, commitments, nil
}

// yearBefore returns cutoff-n, clamped at year zero
func yearBefore(cutoff, n uint64) string {
	if n > cutoff {
		return "0"
	}
	return fmt.Sprint(cutoff - n)
}

func reportAccepted(vk *protocol.VerifyingKey, dc *demoConfig, proof groth16.Proof) error {
	calldata, err := solidity.NewCalldata(vk, dc.cutoffYear, proof)
	if err != nil {
		return err
	}
	fmt.Printf("     calldata: %d proof words, %d public inputs, vk %s\n",
		len(calldata.Proof), len(calldata.PublicInputs), calldata.Fingerprint)

	if dc.proofOut == "" {
		return nil
	}
	if err := common.WriteToFile(dc.proofOut, proof); err != nil {
		return fmt.Errorf("failed to write proof: %w", err)
	}
	fmt.Printf("     proof written to %s\n", dc.proofOut)
	return nil
}
