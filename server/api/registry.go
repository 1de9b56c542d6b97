package api

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/mynextid/zk-age/artifacts"
	cae "github.com/mynextid/zk-age/circuits/age-eligibility"
	"github.com/mynextid/zk-age/models"
	"github.com/mynextid/zk-age/protocol"
	"github.com/mynextid/zk-age/solidity"
)

var _ models.ZKCircuitRegistry = (*CircuitRegistry)(nil)

// CircuitRegistry stores loaded circuits by shape name and verifying keys
// by fingerprint
type CircuitRegistry struct {
	mu        sync.RWMutex
	circuits  map[string]*Circuit
	keys      map[string]groth16.VerifyingKey
	keyShapes map[string]string
}

// NewCircuitRegistry creates a new registry
func NewCircuitRegistry() *CircuitRegistry {
	return &CircuitRegistry{
		circuits:  make(map[string]*Circuit),
		keys:      make(map[string]groth16.VerifyingKey),
		keyShapes: make(map[string]string),
	}
}

// LoadCircuit loads the artifacts of shape from store. With verifyOnly set
// only the verifying key is read.
func (cr *CircuitRegistry) LoadCircuit(ctx context.Context, store *artifacts.Store, shape cae.Shape, verifyOnly bool) (*Circuit, error) {
	var kp *protocol.KeyPair
	if verifyOnly {
		vk, err := store.LoadVerifyingKey(ctx, shape)
		if err != nil {
			return nil, fmt.Errorf("failed to load the circuit: %w", err)
		}
		kp = &protocol.KeyPair{VerifyingKey: vk}
	} else {
		var err error
		if kp, err = store.Load(ctx, shape); err != nil {
			return nil, fmt.Errorf("failed to load the circuit: %w", err)
		}
	}

	circuit, err := NewCircuit(kp)
	if err != nil {
		return nil, err
	}
	return circuit, cr.Register(circuit)
}

// Register adds a circuit and its verifying key
func (cr *CircuitRegistry) Register(circuit *Circuit) error {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	if _, ok := cr.circuits[circuit.Info.Name]; ok {
		return fmt.Errorf("circuit with name %s already exists", circuit.Info.Name)
	}
	cr.circuits[circuit.Info.Name] = circuit
	cr.keys[circuit.Info.Fingerprint] = circuit.VerifyingKey.VK
	cr.keyShapes[circuit.Info.Fingerprint] = circuit.Info.Name
	return nil
}

// Circuit returns a loaded circuit by shape name
func (cr *CircuitRegistry) Circuit(name string) (*Circuit, error) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	if c, ok := cr.circuits[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("circuit %s not found", name)
}

// Get returns the description of a loaded shape
func (cr *CircuitRegistry) Get(name string) (models.CircuitInfo, error) {
	c, err := cr.Circuit(name)
	if err != nil {
		return models.CircuitInfo{}, err
	}
	return c.Info, nil
}

// List returns the loaded shape names in order
func (cr *CircuitRegistry) List() []string {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	names := make([]string, 0, len(cr.circuits))
	for name := range cr.circuits {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (cr *CircuitRegistry) GetVerifyingKey(fingerprint string) (groth16.VerifyingKey, error) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	if vk, ok := cr.keys[fingerprint]; ok {
		return vk, nil
	}
	return nil, fmt.Errorf("verifying key %s not found", fingerprint)
}

// RegisterVerifyingKey records vk under its fingerprint. Registering the
// same key twice is a no-op; a fingerprint bound to another shape is an
// error.
func (cr *CircuitRegistry) RegisterVerifyingKey(vk groth16.VerifyingKey, shape string) (string, error) {
	fingerprint, err := solidity.VerifyingKeyFingerprint(vk)
	if err != nil {
		return "", err
	}
	cr.mu.Lock()
	defer cr.mu.Unlock()
	if prev, ok := cr.keyShapes[fingerprint]; ok && prev != shape {
		return "", fmt.Errorf("verifying key %s already registered for %s", fingerprint, prev)
	}
	cr.keys[fingerprint] = vk
	cr.keyShapes[fingerprint] = shape
	return fingerprint, nil
}
