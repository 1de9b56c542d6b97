package api

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/mynextid/zk-age/artifacts"
	cae "github.com/mynextid/zk-age/circuits/age-eligibility"
	"github.com/mynextid/zk-age/common"
	"github.com/mynextid/zk-age/protocol"
	"github.com/mynextid/zk-age/solidity"
)

// CompileOptions controls CompileShapes
type CompileOptions struct {
	// Force reruns the setup even when artifacts exist
	Force bool
	// Solidity writes the verifier contract next to the keys (BN254 only)
	Solidity bool
}

// CompileShapes sets up every shape and stores the artifacts locally. Shapes
// are processed one at a time since a setup holds the whole constraint
// system in memory.
func CompileShapes(ctx context.Context, store *artifacts.Store, shapes []cae.Shape, opts CompileOptions) ([]*Circuit, error) {
	circuits := make([]*Circuit, 0, len(shapes))
	for _, shape := range shapes {
		if err := ctx.Err(); err != nil {
			return circuits, err
		}
		kp, err := store.LoadOrSetup(ctx, shape, opts.Force)
		if err != nil {
			return circuits, fmt.Errorf("%s: %w", shape.Name(), err)
		}
		if opts.Solidity && shape.Curve == ecc.BN254 {
			if err := writeVerifier(store.Path(shape, artifacts.ExtSolidity), kp.VerifyingKey); err != nil {
				return circuits, fmt.Errorf("%s: %w", shape.Name(), err)
			}
		}
		c, err := NewCircuit(kp)
		if err != nil {
			return circuits, err
		}
		circuits = append(circuits, c)
	}
	return circuits, nil
}

func writeVerifier(path string, vk *protocol.VerifyingKey) error {
	if err := common.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := solidity.ExportVerifier(f, vk); err != nil {
		return fmt.Errorf("failed to export verifier: %w", err)
	}
	return f.Sync()
}
