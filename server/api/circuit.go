package api

import (
	"fmt"

	"github.com/consensys/gnark/backend/groth16"
	cae "github.com/mynextid/zk-age/circuits/age-eligibility"
	"github.com/mynextid/zk-age/models"
	"github.com/mynextid/zk-age/protocol"
	"github.com/mynextid/zk-age/solidity"
)

// Circuit with loaded proving and verifying keys of one shape. ProvingKey is
// nil when the service was started for verification only.
type Circuit struct {
	Info         models.CircuitInfo
	ProvingKey   *protocol.ProvingKey
	VerifyingKey *protocol.VerifyingKey
}

// PublicCircuit with the public verifying key only
type PublicCircuit struct {
	Info         models.CircuitInfo
	VerifyingKey *protocol.VerifyingKey
}

// NewCircuit wraps a key pair. kp.ProvingKey may be nil.
func NewCircuit(kp *protocol.KeyPair) (*Circuit, error) {
	if kp == nil || kp.VerifyingKey == nil || kp.VerifyingKey.VK == nil {
		return nil, fmt.Errorf("circuit has no verifying key")
	}
	shape := kp.VerifyingKey.Shape
	fingerprint, err := solidity.VerifyingKeyFingerprint(kp.VerifyingKey.VK)
	if err != nil {
		return nil, fmt.Errorf("fingerprint of %s: %w", shape.Name(), err)
	}

	info := models.CircuitInfo{
		Name:         shape.Name(),
		Capacity:     shape.Capacity,
		YearBits:     shape.YearBits,
		Curve:        shape.CurveName(),
		PublicInputs: shape.NbPublicInputs(),
		Fingerprint:  fingerprint,
	}
	if kp.ProvingKey != nil && kp.ProvingKey.CS != nil {
		info.Constraints = kp.ProvingKey.CS.GetNbConstraints()
	}

	return &Circuit{
		Info:         info,
		ProvingKey:   kp.ProvingKey,
		VerifyingKey: kp.VerifyingKey,
	}, nil
}

func (c *Circuit) Shape() cae.Shape { return c.VerifyingKey.Shape }

func (c *Circuit) Public() PublicCircuit {
	return PublicCircuit{
		Info:         c.Info,
		VerifyingKey: c.VerifyingKey,
	}
}

// CanProve reports whether the proving key is loaded.
func (c *Circuit) CanProve() bool {
	return c.ProvingKey != nil && c.ProvingKey.PK != nil
}

// Prove generates a proof and returns it in its binary encoding.
func (c *Circuit) Prove(inst cae.Instance) (groth16.Proof, []byte, error) {
	if !c.CanProve() {
		return nil, nil, fmt.Errorf("%w: proving key of %s is not loaded", protocol.ErrProveFailed, c.Info.Name)
	}
	proof, err := protocol.Prove(c.ProvingKey, inst)
	if err != nil {
		return nil, nil, err
	}
	raw, err := protocol.MarshalProof(proof)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", protocol.ErrProveFailed, err)
	}
	return proof, raw, nil
}

// Verify decodes a binary proof and checks it against cutoffYear.
func (c PublicCircuit) Verify(cutoffYear uint64, proofBytes []byte) (bool, error) {
	proof, err := protocol.UnmarshalProof(c.VerifyingKey.Shape.Curve, proofBytes)
	if err != nil {
		return false, err
	}
	return protocol.Verify(c.VerifyingKey, cutoffYear, proof)
}

// Calldata encodes proof for the on-chain verifier of this circuit.
func (c PublicCircuit) Calldata(cutoffYear uint64, proof groth16.Proof) (*solidity.Calldata, error) {
	return solidity.NewCalldata(c.VerifyingKey, cutoffYear, proof)
}
